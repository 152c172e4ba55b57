package augment

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/augmentlab/augment-go/routes"
)

// OperationKind names the augmentation applied by a request.
type OperationKind string

const (
	OperationRotate        OperationKind = "rotate"
	OperationScale         OperationKind = "scale"
	OperationFlip          OperationKind = "flip"
	OperationAdvanced      OperationKind = "advanced"
	OperationRotationBatch OperationKind = "rotation-batch"
	OperationRandom        OperationKind = "random"
)

// FlipDirection is the mirror axis of a flip.
type FlipDirection string

const (
	FlipHorizontal FlipDirection = "horizontal"
	FlipVertical   FlipDirection = "vertical"
)

// Operation is one of RotateOp, ScaleOp, FlipOp, AdvancedOp,
// RotationBatchOp or RandomOp. Exactly one is sent per request.
type Operation interface {
	Kind() OperationKind
	isOperation()
}

// RotateOp rotates by Angle degrees.
type RotateOp struct {
	Angle float64 `form:"angle" validate:"gte=0,lte=360"`
}

// ScaleOp resizes by Factor.
type ScaleOp struct {
	Factor float64 `form:"scale_factor" validate:"gte=0.1,lte=2"`
}

// FlipOp mirrors along Direction.
type FlipOp struct {
	Direction FlipDirection `form:"direction" validate:"oneof=horizontal vertical"`
}

// AdvancedOp applies photometric adjustments; 1.0 leaves a channel unchanged.
type AdvancedOp struct {
	Brightness float64 `form:"brightness" validate:"gte=0.1,lte=3"`
	Contrast   float64 `form:"contrast" validate:"gte=0.1,lte=3"`
	Saturation float64 `form:"saturation" validate:"gte=0.1,lte=3"`
	Blur       bool    `form:"blur"`
	Grayscale  bool    `form:"grayscale"`
}

// RotationBatchOp requests Count copies rotated at 360/Count degree steps.
type RotationBatchOp struct {
	Count int `form:"num_images" validate:"gte=2,lte=360"`
}

// RandomOp lets the server pick the augmentations.
type RandomOp struct{}

func (RotateOp) Kind() OperationKind        { return OperationRotate }
func (ScaleOp) Kind() OperationKind         { return OperationScale }
func (FlipOp) Kind() OperationKind          { return OperationFlip }
func (AdvancedOp) Kind() OperationKind      { return OperationAdvanced }
func (RotationBatchOp) Kind() OperationKind { return OperationRotationBatch }
func (RandomOp) Kind() OperationKind        { return OperationRandom }

func (RotateOp) isOperation()        {}
func (ScaleOp) isOperation()         {}
func (FlipOp) isOperation()          {}
func (AdvancedOp) isOperation()      {}
func (RotationBatchOp) isOperation() {}
func (RandomOp) isOperation()        {}

// Interval is the rotation step in degrees between consecutive images.
func (o RotationBatchOp) Interval() float64 {
	if o.Count <= 0 {
		return 0
	}
	return 360 / float64(o.Count)
}

// DefaultAdvanced leaves every channel unchanged.
func DefaultAdvanced() AdvancedOp {
	return AdvancedOp{Brightness: 1, Contrast: 1, Saturation: 1}
}

// paramMessages maps a failing field to the message shown to the user.
var paramMessages = map[string]string{
	"RotateOp.angle":             "Angle must be between 0 and 360 degrees.",
	"ScaleOp.scale_factor":       "Scale factor must be between 0.1 and 2.0.",
	"FlipOp.direction":           "Flip direction must be horizontal or vertical.",
	"AdvancedOp.brightness":      "Brightness must be between 0.1 and 3.0.",
	"AdvancedOp.contrast":        "Contrast must be between 0.1 and 3.0.",
	"AdvancedOp.saturation":      "Saturation must be between 0.1 and 3.0.",
	"RotationBatchOp.num_images": "Please enter a number between 2 and 360",
}

var paramValidator = newParamValidator()

func newParamValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateOperation checks op against its fixed ranges and returns a
// ValidationError naming the first constraint that failed.
func ValidateOperation(op Operation) error {
	if op == nil {
		return ValidationError{Field: "operation", Message: "Operation is required"}
	}
	err := paramValidator.Struct(op)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return ValidationError{Field: "operation", Message: "Invalid augmentation parameters"}
	}
	fe := verrs[0]
	if msg, ok := paramMessages[fe.Namespace()]; ok {
		return ValidationError{Field: fe.Field(), Message: msg}
	}
	return ValidationError{Field: fe.Field(), Message: fmt.Sprintf("%s is invalid", fe.Field())}
}

// requestSpec is everything needed to turn an Operation into a request.
type requestSpec struct {
	route       string
	fields      []formField
	expect      ResultKind
	defaultName string
}

func describe(op Operation) (requestSpec, error) {
	switch o := op.(type) {
	case RotateOp:
		return requestSpec{
			route:       routes.AugmentBasic,
			fields:      []formField{{"operation", string(OperationRotate)}, {"angle", formatFloat(o.Angle)}},
			expect:      ResultImage,
			defaultName: DefaultImageFilename,
		}, nil
	case ScaleOp:
		return requestSpec{
			route:       routes.AugmentBasic,
			fields:      []formField{{"operation", string(OperationScale)}, {"scale_factor", formatFloat(o.Factor)}},
			expect:      ResultImage,
			defaultName: DefaultImageFilename,
		}, nil
	case FlipOp:
		return requestSpec{
			route:       routes.AugmentBasic,
			fields:      []formField{{"operation", string(OperationFlip)}, {"direction", string(o.Direction)}},
			expect:      ResultImage,
			defaultName: DefaultImageFilename,
		}, nil
	case AdvancedOp:
		return requestSpec{
			route: routes.AugmentAdvanced,
			fields: []formField{
				{"brightness", formatFloat(o.Brightness)},
				{"contrast", formatFloat(o.Contrast)},
				{"saturation", formatFloat(o.Saturation)},
				{"blur", onOff(o.Blur)},
				{"grayscale", onOff(o.Grayscale)},
			},
			expect:      ResultImage,
			defaultName: DefaultImageFilename,
		}, nil
	case RotationBatchOp:
		return requestSpec{
			route:       routes.AugmentRotate,
			fields:      []formField{{"num_images", strconv.Itoa(o.Count)}},
			expect:      ResultArchive,
			defaultName: DefaultArchiveFilename,
		}, nil
	case RandomOp:
		return requestSpec{
			route:       routes.AugmentRandom,
			expect:      ResultImage,
			defaultName: DefaultImageFilename,
		}, nil
	default:
		return requestSpec{}, ValidationError{Field: "operation", Message: fmt.Sprintf("Unsupported operation %T", op)}
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
