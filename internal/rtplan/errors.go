package rtplan

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingField is returned when a required attribute has no value in the record.
	ErrMissingField = errors.New("missing field")

	// ErrIndexOutOfRange is returned for a beam, control point or device slot
	// outside the record's declared bounds.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrShapeMismatch is returned when an array's length does not fit its role.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrUnsupportedShape is reported for a device sequence of length 2 or >= 4.
	ErrUnsupportedShape = errors.New("unsupported device sequence shape")

	// ErrInvalidValue is returned when a value is present but cannot be read
	// as the number its field requires.
	ErrInvalidValue = errors.New("invalid value")

	// ErrAmbiguousDevice is reported when a device entry's identity cannot be
	// determined or contradicts its position.
	ErrAmbiguousDevice = errors.New("ambiguous device")
)

// FieldError locates a failure inside the plan. Beam, ControlPoint and Slot
// are -1 when they do not apply.
type FieldError struct {
	Field        string
	Beam         int
	ControlPoint int
	Slot         int
	Err          error
}

func (e *FieldError) Error() string {
	var b strings.Builder
	b.WriteString(e.Field)
	if e.Beam >= 0 {
		fmt.Fprintf(&b, " beam=%d", e.Beam)
	}
	if e.ControlPoint >= 0 {
		fmt.Fprintf(&b, " cp=%d", e.ControlPoint)
	}
	if e.Slot >= 0 {
		fmt.Fprintf(&b, " slot=%d", e.Slot)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func fieldErr(field string, beam, cp, slot int, err error) error {
	return &FieldError{Field: field, Beam: beam, ControlPoint: cp, Slot: slot, Err: err}
}

// Warning is a non-fatal defect localized to one control point of one beam.
type Warning struct {
	Beam         int
	ControlPoint int
	Err          error
}

func (w Warning) Error() string {
	if w.ControlPoint < 0 {
		return fmt.Sprintf("beam %d: %v", w.Beam, w.Err)
	}
	return fmt.Sprintf("beam %d control point %d: %v", w.Beam, w.ControlPoint, w.Err)
}

func (w Warning) Unwrap() error {
	return w.Err
}

// Code returns a stable machine-readable name for the warning's cause.
func (w Warning) Code() string {
	switch {
	case errors.Is(w.Err, ErrUnsupportedShape):
		return "unsupported_shape"
	case errors.Is(w.Err, ErrAmbiguousDevice):
		return "ambiguous_device"
	case errors.Is(w.Err, ErrShapeMismatch):
		return "shape_mismatch"
	case errors.Is(w.Err, ErrMissingField):
		return "missing_field"
	case errors.Is(w.Err, ErrInvalidValue):
		return "invalid_value"
	default:
		return "invalid_value"
	}
}
