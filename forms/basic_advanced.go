package forms

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	augment "github.com/augmentlab/augment-go"
)

// Mode selects between the basic and advanced halves of BasicAdvancedForm.
type Mode string

const (
	ModeBasic    Mode = "basic"
	ModeAdvanced Mode = "advanced"
)

// Defaults shown when the form first renders.
const (
	DefaultAngle = 45
	DefaultScale = 1.5
)

// BasicAdvancedForm sends either one basic operation (rotate, scale or
// flip) or the advanced photometric adjustments.
type BasicAdvancedForm struct {
	base

	mode     Mode
	basic    augment.OperationKind
	angle    float64
	scale    float64
	flip     augment.FlipDirection
	advanced augment.AdvancedOp
}

// NewBasicAdvanced returns the form with its default parameters.
func NewBasicAdvanced(deps Deps) *BasicAdvancedForm {
	return &BasicAdvancedForm{
		base:     newBase(deps),
		mode:     ModeBasic,
		basic:    augment.OperationRotate,
		angle:    DefaultAngle,
		scale:    DefaultScale,
		flip:     augment.FlipHorizontal,
		advanced: augment.DefaultAdvanced(),
	}
}

// Name identifies the form in the shell.
func (f *BasicAdvancedForm) Name() string { return "basic-advanced" }

// Mode returns the active half of the form.
func (f *BasicAdvancedForm) Mode() Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

// SetMode switches halves; parameters of both halves are kept.
func (f *BasicAdvancedForm) SetMode(m Mode) error {
	if m != ModeBasic && m != ModeAdvanced {
		return augment.ValidationError{Field: "mode", Message: "Mode must be basic or advanced"}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mode = m
	return nil
}

// SetBasicOperation picks rotate, scale or flip.
func (f *BasicAdvancedForm) SetBasicOperation(kind augment.OperationKind) error {
	switch kind {
	case augment.OperationRotate, augment.OperationScale, augment.OperationFlip:
	default:
		return augment.ValidationError{Field: "operation", Message: "Operation must be rotate, scale or flip"}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.basic = kind
	return nil
}

// SetAdvanced replaces all advanced parameters.
func (f *BasicAdvancedForm) SetAdvanced(op augment.AdvancedOp) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advanced = op
}

// Operation returns what Submit would send right now.
func (f *BasicAdvancedForm) Operation() augment.Operation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.operationLocked()
}

func (f *BasicAdvancedForm) operationLocked() augment.Operation {
	if f.mode == ModeAdvanced {
		return f.advanced
	}
	switch f.basic {
	case augment.OperationScale:
		return augment.ScaleOp{Factor: f.scale}
	case augment.OperationFlip:
		return augment.FlipOp{Direction: f.flip}
	default:
		return augment.RotateOp{Angle: f.angle}
	}
}

// Set assigns one parameter from its text form. Range checks happen on
// submit so an out-of-range value stays visible to the user.
func (f *BasicAdvancedForm) Set(field, value string) error {
	value = strings.TrimSpace(value)
	switch field {
	case "mode":
		return f.SetMode(Mode(strings.ToLower(value)))
	case "operation":
		return f.SetBasicOperation(augment.OperationKind(strings.ToLower(value)))
	case "direction":
		f.mu.Lock()
		f.flip = augment.FlipDirection(strings.ToLower(value))
		f.mu.Unlock()
		return nil
	case "blur", "grayscale":
		on, err := parseSwitch(field, value)
		if err != nil {
			return err
		}
		f.mu.Lock()
		if field == "blur" {
			f.advanced.Blur = on
		} else {
			f.advanced.Grayscale = on
		}
		f.mu.Unlock()
		return nil
	}

	var target *float64
	f.mu.Lock()
	switch field {
	case "angle":
		target = &f.angle
	case "scale_factor", "scale":
		target = &f.scale
	case "brightness":
		target = &f.advanced.Brightness
	case "contrast":
		target = &f.advanced.Contrast
	case "saturation":
		target = &f.advanced.Saturation
	}
	f.mu.Unlock()
	if target == nil {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return augment.ValidationError{Field: field, Message: fmt.Sprintf("%s must be a number", field)}
	}
	f.mu.Lock()
	*target = v
	f.mu.Unlock()
	return nil
}

// Fields lists the parameters of the active half.
func (f *BasicAdvancedForm) Fields() []Field {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []Field{{Name: "mode", Value: string(f.mode)}}
	if f.mode == ModeAdvanced {
		return append(out,
			Field{"brightness", formatFloat(f.advanced.Brightness)},
			Field{"contrast", formatFloat(f.advanced.Contrast)},
			Field{"saturation", formatFloat(f.advanced.Saturation)},
			Field{"blur", strconv.FormatBool(f.advanced.Blur)},
			Field{"grayscale", strconv.FormatBool(f.advanced.Grayscale)},
		)
	}
	out = append(out, Field{"operation", string(f.basic)})
	switch f.basic {
	case augment.OperationScale:
		out = append(out, Field{"scale_factor", formatFloat(f.scale)})
	case augment.OperationFlip:
		out = append(out, Field{"direction", string(f.flip)})
	default:
		out = append(out, Field{"angle", formatFloat(f.angle)})
	}
	return out
}

// Submit sends the active operation and keeps the image as the form's
// result. The previous result is released.
func (f *BasicAdvancedForm) Submit(ctx context.Context) (Outcome, error) {
	ref, err := f.fetch(ctx, f.Operation())
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Ref: ref}, nil
}

func parseSwitch(field, value string) (bool, error) {
	switch strings.ToLower(value) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, augment.ValidationError{Field: field, Message: fmt.Sprintf("%s must be on or off", field)}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
