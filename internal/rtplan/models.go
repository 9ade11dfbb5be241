package rtplan

import "fmt"

// Plan is the decoded trajectory model of one treatment plan.
type Plan struct {
	LeafCount int    `json:"leaf_count"`
	Beams     []Beam `json:"beams"`
}

// ControlPointTotal returns the number of frames across all beams.
func (p Plan) ControlPointTotal() int {
	n := 0
	for _, b := range p.Beams {
		n += len(b.Frames)
	}
	return n
}

// TotalDose sums the declared beam doses. ok is false when no beam declares one.
func (p Plan) TotalDose() (total float64, ok bool) {
	for _, b := range p.Beams {
		if b.Dose != nil {
			total += *b.Dose
			ok = true
		}
	}
	return total, ok
}

// Beam is one beam of the plan with its frames in control-point order.
type Beam struct {
	Index  int                 `json:"index"`
	Number *int                `json:"number,omitempty"`
	Name   string              `json:"name,omitempty"`
	Dose   *float64            `json:"dose,omitempty"`
	Frames []ControlPointFrame `json:"frames"`
}

// ControlPointFrame holds what the record declares at one control point.
// Jaws and Leaves are only set when present at this frame; absent devices are
// unchanged since an earlier frame and are not filled in here.
type ControlPointFrame struct {
	Index       int                `json:"index"`
	Shape       FrameShape         `json:"shape"`
	GantryAngle *float64           `json:"gantry_angle,omitempty"`
	Jaws        []JawPositions     `json:"jaws,omitempty"`
	Leaves      *LeafBankPositions `json:"leaves,omitempty"`
}

// Jaw returns the jaw declared for axis at this frame.
func (f ControlPointFrame) Jaw(axis JawAxis) (JawPositions, bool) {
	for _, j := range f.Jaws {
		if j.Axis == axis {
			return j, true
		}
	}
	return JawPositions{}, false
}

// JawAxis names the axis a jaw pair moves along.
type JawAxis int

const (
	AxisUnknown JawAxis = iota
	AxisX
	AxisY
)

func (a JawAxis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	default:
		return "unknown"
	}
}

func (a JawAxis) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *JawAxis) UnmarshalText(b []byte) error {
	switch string(b) {
	case "X":
		*a = AxisX
	case "Y":
		*a = AxisY
	case "unknown":
		*a = AxisUnknown
	default:
		return fmt.Errorf("unknown jaw axis %q", b)
	}
	return nil
}

// JawPositions is the near and far edge of one jaw pair, in mm.
type JawPositions struct {
	Axis JawAxis `json:"axis"`
	Near float64 `json:"near"`
	Far  float64 `json:"far"`
}

// LeafBankPositions holds the two opposing MLC banks. A and B have equal
// length and A followed by B is the record's flat leaf array.
type LeafBankPositions struct {
	A []float64 `json:"a"`
	B []float64 `json:"b"`
}

// Pairs returns the number of leaf pairs.
func (l LeafBankPositions) Pairs() int {
	return len(l.A)
}

// Decoded is the result of one decode: the plan plus every localized warning.
type Decoded struct {
	Plan     Plan
	Warnings []Warning
}

// Complete reports whether the plan decoded without warnings.
func (d *Decoded) Complete() bool {
	return len(d.Warnings) == 0
}
