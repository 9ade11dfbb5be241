package rtplan

import (
	"errors"
	"fmt"

	"rtplan-service/internal/tagtree"
)

// DecodeReader is Decode over a fresh Navigator for r.
func DecodeReader(r tagtree.Reader) (*Decoded, error) {
	return Decode(NewNavigator(r))
}

// Decode builds the trajectory model of the plan behind nav.
//
// Beam count, control point counts and the plan-wide leaf count are required:
// any failure reading them aborts the decode. Defects inside a single control
// point are recorded as warnings and leave that frame's jaws and leaves unset.
func Decode(nav *Navigator) (*Decoded, error) {
	beams, err := nav.BeamCount()
	if err != nil {
		return nil, err
	}
	d := &decoder{nav: nav}
	out := &Decoded{Plan: Plan{Beams: make([]Beam, 0, beams)}}
	if beams == 0 {
		return out, nil
	}

	leafCount, err := nav.LeafCountHint()
	if err != nil {
		return nil, err
	}
	if leafCount == 0 || leafCount%2 != 0 {
		return nil, fieldErr("LeafCount", 0, 0, 2, fmt.Errorf("%w: leaf count %d is not a positive even number", ErrShapeMismatch, leafCount))
	}
	d.leafCount = leafCount
	out.Plan.LeafCount = leafCount

	for b := 0; b < beams; b++ {
		beam, err := d.beam(b)
		if err != nil {
			return nil, err
		}
		out.Plan.Beams = append(out.Plan.Beams, beam)
	}
	out.Warnings = d.warnings
	return out, nil
}

type decoder struct {
	nav       *Navigator
	leafCount int
	warnings  []Warning
}

func (d *decoder) warn(beam, cp int, err error) {
	d.warnings = append(d.warnings, Warning{Beam: beam, ControlPoint: cp, Err: err})
}

// optional reports whether err may be downgraded; it records a warning for
// anything but a plain missing field.
func (d *decoder) optional(beam, cp int, err error) bool {
	if errors.Is(err, ErrIndexOutOfRange) {
		return false
	}
	if !errors.Is(err, ErrMissingField) {
		d.warn(beam, cp, err)
	}
	return true
}

func (d *decoder) beam(b int) (Beam, error) {
	cps, err := d.nav.ControlPointCount(b)
	if err != nil {
		return Beam{}, err
	}
	beam := Beam{Index: b, Frames: make([]ControlPointFrame, 0, cps)}

	if num, err := d.nav.BeamNumber(b); err == nil {
		beam.Number = &num
	} else if !d.optional(b, -1, err) {
		return Beam{}, err
	}
	if name, err := d.nav.BeamName(b); err == nil {
		beam.Name = name
	} else if !d.optional(b, -1, err) {
		return Beam{}, err
	}
	if dose, err := d.nav.BeamDose(b); err == nil {
		beam.Dose = &dose
	} else if !d.optional(b, -1, err) {
		return Beam{}, err
	}

	for c := 0; c < cps; c++ {
		f, err := d.frame(b, c)
		if err != nil {
			return Beam{}, err
		}
		beam.Frames = append(beam.Frames, f)
	}
	return beam, nil
}

func (d *decoder) frame(b, c int) (ControlPointFrame, error) {
	f := ControlPointFrame{Index: c}

	if angle, err := d.nav.GantryAngle(b, c); err == nil {
		f.GantryAngle = &angle
	} else if !d.optional(b, c, err) {
		return f, err
	}

	length, err := d.nav.DeviceSequenceLength(b, c)
	if err != nil {
		if errors.Is(err, ErrIndexOutOfRange) {
			return f, err
		}
		f.Shape = ShapeAbsent
		d.warn(b, c, err)
		return f, nil
	}

	f.Shape = Classify(length)
	switch f.Shape {
	case ShapeFull:
		f.Jaws, f.Leaves, err = d.fullFrame(b, c)
	case ShapeSingleDevice:
		f.Jaws, f.Leaves, err = d.singleDevice(b, c)
	case ShapeEmpty:
	default:
		err = fieldErr("BeamLimitingDevicePositionSequence", b, c, -1,
			fmt.Errorf("%w: %d device entries", ErrUnsupportedShape, length))
	}
	if err != nil {
		if errors.Is(err, ErrIndexOutOfRange) {
			return f, err
		}
		d.warn(b, c, err)
		f.Jaws, f.Leaves = nil, nil
	}
	return f, nil
}

// fullFrame reads the X jaw, Y jaw and MLC from slots 0, 1 and 2.
func (d *decoder) fullFrame(b, c int) ([]JawPositions, *LeafBankPositions, error) {
	jaws := make([]JawPositions, 0, 2)
	var leaves *LeafBankPositions
	for slot, role := range fullFrameRoles {
		declared, err := d.declaredType(b, c, slot)
		if err != nil {
			return nil, nil, err
		}
		if declared != DeviceUnknown && declared != role {
			return nil, nil, fieldErr("RTBeamLimitingDeviceType", b, c, slot,
				fmt.Errorf("%w: slot declares %s, layout expects %s", ErrAmbiguousDevice, declared, role))
		}
		vals, err := d.nav.DeviceValue(b, c, slot)
		if err != nil {
			return nil, nil, err
		}
		if role == DeviceMLC {
			banks, err := SplitBanks(vals, d.leafCount)
			if err != nil {
				return nil, nil, fieldErr("LeafJawPositions", b, c, slot, err)
			}
			leaves = &banks
			continue
		}
		jaw, err := jawFrom(role.axis(), vals)
		if err != nil {
			return nil, nil, fieldErr("LeafJawPositions", b, c, slot, err)
		}
		jaws = append(jaws, jaw)
	}
	return jaws, leaves, nil
}

// singleDevice reads slot 0. The declared device type decides what it holds;
// without one, the array length must identify it unambiguously.
func (d *decoder) singleDevice(b, c int) ([]JawPositions, *LeafBankPositions, error) {
	declared, err := d.declaredType(b, c, 0)
	if err != nil {
		return nil, nil, err
	}
	vals, err := d.nav.DeviceValue(b, c, 0)
	if err != nil {
		return nil, nil, err
	}

	mlc := func() ([]JawPositions, *LeafBankPositions, error) {
		banks, err := SplitBanks(vals, d.leafCount)
		if err != nil {
			return nil, nil, fieldErr("LeafJawPositions", b, c, 0, err)
		}
		return nil, &banks, nil
	}
	jaw := func(axis JawAxis) ([]JawPositions, *LeafBankPositions, error) {
		j, err := jawFrom(axis, vals)
		if err != nil {
			return nil, nil, fieldErr("LeafJawPositions", b, c, 0, err)
		}
		return []JawPositions{j}, nil, nil
	}

	switch declared {
	case DeviceMLC:
		return mlc()
	case DeviceJawX, DeviceJawY:
		return jaw(declared.axis())
	}

	switch {
	case len(vals) == d.leafCount && len(vals) == 2:
		return nil, nil, fieldErr("LeafJawPositions", b, c, 0,
			fmt.Errorf("%w: 2 values fit both a jaw and the leaf count", ErrAmbiguousDevice))
	case len(vals) == d.leafCount:
		return mlc()
	case len(vals) == 2:
		d.warn(b, c, fieldErr("RTBeamLimitingDeviceType", b, c, 0,
			fmt.Errorf("%w: jaw axis not declared", ErrAmbiguousDevice)))
		return jaw(AxisUnknown)
	default:
		return nil, nil, fieldErr("LeafJawPositions", b, c, 0,
			fmt.Errorf("%w: %d values match neither a jaw nor %d leaves", ErrAmbiguousDevice, len(vals), d.leafCount))
	}
}

// declaredType returns DeviceUnknown when the record omits the device type.
func (d *decoder) declaredType(b, c, slot int) (DeviceType, error) {
	t, err := d.nav.DeviceType(b, c, slot)
	if errors.Is(err, ErrMissingField) {
		return DeviceUnknown, nil
	}
	return t, err
}
