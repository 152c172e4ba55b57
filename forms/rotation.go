package forms

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	augment "github.com/augmentlab/augment-go"
)

// DefaultRotationCount is the initial number of rotated copies.
const DefaultRotationCount = 36

// RotationForm requests a zip of evenly rotated copies. The archive is
// delivered as soon as it arrives and is not kept.
type RotationForm struct {
	base
	count     int
	delivered string
}

// NewRotation returns the form with DefaultRotationCount.
func NewRotation(deps Deps) *RotationForm {
	return &RotationForm{base: newBase(deps), count: DefaultRotationCount}
}

// Name identifies the form in the shell.
func (f *RotationForm) Name() string { return "rotation" }

// SetCount sets how many images to produce; the range is checked on submit.
func (f *RotationForm) SetCount(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count = n
}

// Count returns the requested number of images.
func (f *RotationForm) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

// Interval is the degree step for the current count, or 0 when the count
// is out of range.
func (f *RotationForm) Interval() float64 {
	op := augment.RotationBatchOp{Count: f.Count()}
	if augment.ValidateOperation(op) != nil {
		return 0
	}
	return op.Interval()
}

// Set accepts num_images (or count) as an integer.
func (f *RotationForm) Set(field, value string) error {
	switch field {
	case "num_images", "count":
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return augment.ValidationError{Field: "num_images", Message: "Please enter a number between 2 and 360"}
	}
	f.SetCount(n)
	return nil
}

// Fields reports the count and the resulting degree step.
func (f *RotationForm) Fields() []Field {
	return []Field{
		{Name: "num_images", Value: strconv.Itoa(f.Count())},
		{Name: "interval", Value: formatFloat(f.Interval())},
	}
}

// Delivered returns where the last archive was written.
func (f *RotationForm) Delivered() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.delivered
}

// Submit fetches the archive, hands it to the Deliverer and releases it.
func (f *RotationForm) Submit(ctx context.Context) (Outcome, error) {
	ref, err := f.fetch(ctx, augment.RotationBatchOp{Count: f.Count()})
	if err != nil {
		return Outcome{}, err
	}
	defer func() {
		f.mu.Lock()
		if f.result.URL == ref.URL {
			f.releaseLocked()
		}
		f.mu.Unlock()
	}()
	if f.deps.Deliverer == nil {
		err := errors.New("forms: no deliverer configured")
		f.setRequest(augment.Failed(MsgSomethingWrong))
		return Outcome{}, err
	}
	path, err := f.deps.Deliverer.Save(f.deps.Registry, ref, "")
	if err != nil {
		f.setRequest(augment.Failed(fmt.Sprintf("Could not save archive: %v", err)))
		return Outcome{}, err
	}
	f.mu.Lock()
	f.delivered = path
	f.mu.Unlock()
	return Outcome{Delivered: path}, nil
}
