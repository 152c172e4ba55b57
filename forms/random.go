package forms

import (
	"context"
	"fmt"

	augment "github.com/augmentlab/augment-go"
)

// RandomForm has no parameters; the server picks the augmentations.
type RandomForm struct {
	base
}

// NewRandom returns an empty random form.
func NewRandom(deps Deps) *RandomForm {
	return &RandomForm{base: newBase(deps)}
}

// Name identifies the form in the shell.
func (f *RandomForm) Name() string { return "random" }

// Set always fails; the form has no parameters.
func (f *RandomForm) Set(field, _ string) error {
	return fmt.Errorf("%w: %s", ErrUnknownField, field)
}

// Fields is always empty.
func (f *RandomForm) Fields() []Field { return nil }

// Submit sends the file and keeps the returned image as the result.
func (f *RandomForm) Submit(ctx context.Context) (Outcome, error) {
	ref, err := f.fetch(ctx, augment.RandomOp{})
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Ref: ref}, nil
}

var (
	_ Form = (*BasicAdvancedForm)(nil)
	_ Form = (*RotationForm)(nil)
	_ Form = (*RandomForm)(nil)
)
