package rtplan

import (
	"fmt"

	"rtplan-service/internal/tagtree"
)

// Navigator exposes typed accessors over an RT Plan record:
// plan -> beam sequence -> control point sequence -> device position sequence.
// It holds no state besides the reader; every call resolves from the root.
type Navigator struct {
	r tagtree.Reader
}

// NewNavigator returns a Navigator reading from r.
func NewNavigator(r tagtree.Reader) *Navigator {
	return &Navigator{r: r}
}

func beamPath(beam int) tagtree.Path {
	return tagtree.Path{tagtree.Item(TagBeamSequence, beam)}
}

func controlPointPath(beam, cp int) tagtree.Path {
	return beamPath(beam).Join(tagtree.Item(TagControlPointSequence, cp))
}

func slotPath(beam, cp, slot int) tagtree.Path {
	return controlPointPath(beam, cp).Join(tagtree.Item(TagDevicePositionSequence, slot))
}

func fractionGroupPath() tagtree.Path {
	return tagtree.Path{tagtree.Item(TagFractionGroupSequence, 0)}
}

// BeamCount returns the plan's declared number of beams. A count larger than
// the beam sequence's item count fails with ErrShapeMismatch.
func (n *Navigator) BeamCount() (int, error) {
	p := fractionGroupPath().Join(tagtree.Field(TagNumberOfBeams))
	declared, err := n.count("NumberOfBeams", p, -1)
	if err != nil {
		return 0, err
	}
	return n.checkItems("NumberOfBeams", tagtree.Path{tagtree.Field(TagBeamSequence)}, declared, -1)
}

// ControlPointCount returns the declared number of control points of beam.
// A count larger than the control point sequence's item count fails with
// ErrShapeMismatch.
func (n *Navigator) ControlPointCount(beam int) (int, error) {
	if err := n.checkBeam(beam); err != nil {
		return 0, err
	}
	p := beamPath(beam).Join(tagtree.Field(TagNumberOfControlPoints))
	declared, err := n.count("NumberOfControlPoints", p, beam)
	if err != nil {
		return 0, err
	}
	seq := beamPath(beam).Join(tagtree.Field(TagControlPointSequence))
	return n.checkItems("NumberOfControlPoints", seq, declared, beam)
}

// DeviceSequenceLength returns how many device entries are present at a
// control point. A present but empty sequence yields 0; an absent one fails
// with ErrMissingField.
func (n *Navigator) DeviceSequenceLength(beam, cp int) (int, error) {
	if err := n.checkControlPoint(beam, cp); err != nil {
		return 0, err
	}
	p := controlPointPath(beam, cp).Join(tagtree.Field(TagDevicePositionSequence))
	length, err := n.r.ChildCount(p)
	if err != nil {
		return 0, fieldErr("BeamLimitingDevicePositionSequence", beam, cp, -1, fmt.Errorf("%w: %w", ErrMissingField, err))
	}
	return length, nil
}

// DeviceValue returns the raw positions of the device in slot.
func (n *Navigator) DeviceValue(beam, cp, slot int) ([]float64, error) {
	if err := n.checkSlot(beam, cp, slot); err != nil {
		return nil, err
	}
	p := slotPath(beam, cp, slot).Join(tagtree.Field(TagLeafJawPositions))
	vals, err := n.r.Array(p)
	if err != nil {
		return nil, fieldErr("LeafJawPositions", beam, cp, slot, fmt.Errorf("%w: %w", ErrMissingField, err))
	}
	out := make([]float64, len(vals))
	for i, v := range vals {
		f, err := v.Float()
		if err != nil {
			return nil, fieldErr("LeafJawPositions", beam, cp, slot, fmt.Errorf("%w: position %d: %w", ErrShapeMismatch, i, err))
		}
		out[i] = f
	}
	return out, nil
}

// DeviceType returns the declared device type of the entry in slot.
func (n *Navigator) DeviceType(beam, cp, slot int) (DeviceType, error) {
	if err := n.checkSlot(beam, cp, slot); err != nil {
		return DeviceUnknown, err
	}
	p := slotPath(beam, cp, slot).Join(tagtree.Field(TagDeviceType))
	v, err := n.r.Scalar(p)
	if err != nil {
		return DeviceUnknown, fieldErr("RTBeamLimitingDeviceType", beam, cp, slot, fmt.Errorf("%w: %w", ErrMissingField, err))
	}
	return ParseDeviceType(v.String()), nil
}

// LeafCountHint returns the value multiplicity of the MLC entry at beam 0,
// control point 0, slot 2.
func (n *Navigator) LeafCountHint() (int, error) {
	p := slotPath(0, 0, 2).Join(tagtree.Field(TagLeafJawPositions))
	vals, err := n.r.Array(p)
	if err != nil {
		return 0, fieldErr("LeafCount", 0, 0, 2, fmt.Errorf("%w: %w", ErrMissingField, err))
	}
	return len(vals), nil
}

// BeamName returns the beam's declared name.
func (n *Navigator) BeamName(beam int) (string, error) {
	if err := n.checkBeam(beam); err != nil {
		return "", err
	}
	v, err := n.r.Scalar(beamPath(beam).Join(tagtree.Field(TagBeamName)))
	if err != nil {
		return "", fieldErr("BeamName", beam, -1, -1, fmt.Errorf("%w: %w", ErrMissingField, err))
	}
	return v.String(), nil
}

// BeamNumber returns the beam's declared number.
func (n *Navigator) BeamNumber(beam int) (int, error) {
	if err := n.checkBeam(beam); err != nil {
		return 0, err
	}
	return n.count("BeamNumber", beamPath(beam).Join(tagtree.Field(TagBeamNumber)), beam)
}

// GantryAngle returns the gantry angle declared at a control point, in degrees.
func (n *Navigator) GantryAngle(beam, cp int) (float64, error) {
	if err := n.checkControlPoint(beam, cp); err != nil {
		return 0, err
	}
	v, err := n.r.Scalar(controlPointPath(beam, cp).Join(tagtree.Field(TagGantryAngle)))
	if err != nil {
		return 0, fieldErr("GantryAngle", beam, cp, -1, fmt.Errorf("%w: %w", ErrMissingField, err))
	}
	f, err := v.Float()
	if err != nil {
		return 0, fieldErr("GantryAngle", beam, cp, -1, fmt.Errorf("%w: %w", ErrInvalidValue, err))
	}
	return f, nil
}

// BeamDose returns the dose the first fraction group assigns to beam. The
// referenced beam entry is matched on beam number, or on position when the
// beam declares no number.
func (n *Navigator) BeamDose(beam int) (float64, error) {
	if err := n.checkBeam(beam); err != nil {
		return 0, err
	}
	number, numErr := n.BeamNumber(beam)
	refs := fractionGroupPath().Join(tagtree.Field(TagReferencedBeamSequence))
	total, err := n.r.ChildCount(refs)
	if err != nil {
		return 0, fieldErr("ReferencedBeamSequence", beam, -1, -1, fmt.Errorf("%w: %w", ErrMissingField, err))
	}
	for k := 0; k < total; k++ {
		item := fractionGroupPath().Join(tagtree.Item(TagReferencedBeamSequence, k))
		if numErr == nil {
			ref, err := n.r.Scalar(item.Join(tagtree.Field(TagReferencedBeamNumber)))
			if err != nil {
				continue
			}
			if got, err := ref.Int(); err != nil || got != number {
				continue
			}
		} else if k != beam {
			continue
		}
		v, err := n.r.Scalar(item.Join(tagtree.Field(TagBeamDose)))
		if err != nil {
			return 0, fieldErr("BeamDose", beam, -1, -1, fmt.Errorf("%w: %w", ErrMissingField, err))
		}
		dose, err := v.Float()
		if err != nil {
			return 0, fieldErr("BeamDose", beam, -1, -1, fmt.Errorf("%w: %w", ErrInvalidValue, err))
		}
		return dose, nil
	}
	return 0, fieldErr("BeamDose", beam, -1, -1, ErrMissingField)
}

func (n *Navigator) count(field string, p tagtree.Path, beam int) (int, error) {
	v, err := n.r.Scalar(p)
	if err != nil {
		return 0, fieldErr(field, beam, -1, -1, fmt.Errorf("%w: %w", ErrMissingField, err))
	}
	c, err := v.Int()
	if err != nil {
		return 0, fieldErr(field, beam, -1, -1, fmt.Errorf("%w: %w", ErrInvalidValue, err))
	}
	if c < 0 {
		return 0, fieldErr(field, beam, -1, -1, fmt.Errorf("%w: negative count %d", ErrShapeMismatch, c))
	}
	return c, nil
}

// checkItems bounds a declared count by the item count of the sequence at seq.
// Every later loop and allocation sized by the count relies on this.
func (n *Navigator) checkItems(field string, seq tagtree.Path, declared, beam int) (int, error) {
	if declared == 0 {
		return 0, nil
	}
	items, err := n.r.ChildCount(seq)
	if err != nil {
		return 0, fieldErr(field, beam, -1, -1, fmt.Errorf("%w: %w", ErrMissingField, err))
	}
	if declared > items {
		return 0, fieldErr(field, beam, -1, -1,
			fmt.Errorf("%w: declares %d but the sequence has %d items", ErrShapeMismatch, declared, items))
	}
	return declared, nil
}

func (n *Navigator) checkBeam(beam int) error {
	total, err := n.BeamCount()
	if err != nil {
		return err
	}
	if beam < 0 || beam >= total {
		return fieldErr("Beam", beam, -1, -1, fmt.Errorf("%w: plan declares %d beams", ErrIndexOutOfRange, total))
	}
	return nil
}

func (n *Navigator) checkControlPoint(beam, cp int) error {
	total, err := n.ControlPointCount(beam)
	if err != nil {
		return err
	}
	if cp < 0 || cp >= total {
		return fieldErr("ControlPoint", beam, cp, -1, fmt.Errorf("%w: beam declares %d control points", ErrIndexOutOfRange, total))
	}
	return nil
}

func (n *Navigator) checkSlot(beam, cp, slot int) error {
	length, err := n.DeviceSequenceLength(beam, cp)
	if err != nil {
		return err
	}
	if slot < 0 || slot >= length {
		return fieldErr("DeviceSlot", beam, cp, slot, fmt.Errorf("%w: device sequence has %d entries", ErrIndexOutOfRange, length))
	}
	return nil
}
