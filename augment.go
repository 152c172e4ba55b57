package augment

import (
	"context"
)

// AugmentClient uploads images to the augmentation endpoints.
//
// Example:
//
//	upload, _ := augment.UploadFromFile("cat.png")
//	res, err := client.Augment.Basic(ctx, upload, augment.RotateOp{Angle: 45})
//	if err != nil {
//	    fmt.Println(augment.ErrorMessage(err, "Something went wrong"))
//	}
//	_ = os.WriteFile(res.Filename, res.Data, 0o644)
type AugmentClient struct {
	client *Client
}

func (c *AugmentClient) ensureInitialized() error {
	if c == nil || c.client == nil {
		return ConfigError{Reason: "augment client not initialized"}
	}
	return nil
}

// Apply validates upload and op locally and, only if both pass, posts them
// to the endpoint matching op's kind.
func (c *AugmentClient) Apply(ctx context.Context, upload Upload, op Operation) (Result, error) {
	if err := c.ensureInitialized(); err != nil {
		return Result{}, err
	}
	if err := ValidateUpload(upload); err != nil {
		return Result{}, err
	}
	if err := ValidateOperation(op); err != nil {
		return Result{}, err
	}
	spec, err := describe(op)
	if err != nil {
		return Result{}, err
	}
	req, err := c.client.newMultipartRequest(ctx, spec.route, upload, spec.fields)
	if err != nil {
		return Result{}, err
	}
	resp, err := c.client.sendBinary(req)
	if err != nil {
		return Result{}, err
	}
	return newResult(resp, spec), nil
}

// Basic applies a rotate, scale or flip operation.
func (c *AugmentClient) Basic(ctx context.Context, upload Upload, op Operation) (Result, error) {
	switch op.(type) {
	case RotateOp, ScaleOp, FlipOp:
	default:
		return Result{}, ValidationError{Field: "operation", Message: "Invalid operation. Use 'rotate', 'scale', or 'flip'."}
	}
	return c.Apply(ctx, upload, op)
}

// Advanced applies brightness, contrast, saturation, blur and grayscale.
func (c *AugmentClient) Advanced(ctx context.Context, upload Upload, op AdvancedOp) (Result, error) {
	return c.Apply(ctx, upload, op)
}

// Rotate returns a zip archive of op.Count rotated copies.
func (c *AugmentClient) Rotate(ctx context.Context, upload Upload, op RotationBatchOp) (Result, error) {
	return c.Apply(ctx, upload, op)
}

// Random applies a server-chosen augmentation.
func (c *AugmentClient) Random(ctx context.Context, upload Upload) (Result, error) {
	return c.Apply(ctx, upload, RandomOp{})
}
