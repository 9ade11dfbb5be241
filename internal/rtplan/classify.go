package rtplan

import (
	"fmt"
	"strings"
)

// FrameShape classifies a control point by the length of its beam limiting
// device position sequence.
type FrameShape int

const (
	// ShapeUnsupported covers lengths 2 and >= 4, which neither known layout produces.
	ShapeUnsupported FrameShape = iota
	// ShapeEmpty means no device moved at this control point.
	ShapeEmpty
	// ShapeSingleDevice means exactly one device moved; its identity is not
	// implied by the length.
	ShapeSingleDevice
	// ShapeFull is the X jaw, Y jaw, MLC layout of a beam's first control point.
	ShapeFull
	// ShapeAbsent marks a frame whose device sequence is missing from the
	// record. Classify never returns it.
	ShapeAbsent
)

// Classify maps a device sequence length to a FrameShape. It is total:
// negative lengths are unsupported.
func Classify(length int) FrameShape {
	switch length {
	case 0:
		return ShapeEmpty
	case 1:
		return ShapeSingleDevice
	case 3:
		return ShapeFull
	default:
		return ShapeUnsupported
	}
}

func (s FrameShape) String() string {
	switch s {
	case ShapeEmpty:
		return "empty"
	case ShapeSingleDevice:
		return "single"
	case ShapeFull:
		return "full"
	case ShapeAbsent:
		return "absent"
	default:
		return "unsupported"
	}
}

func (s FrameShape) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *FrameShape) UnmarshalText(b []byte) error {
	switch string(b) {
	case "empty":
		*s = ShapeEmpty
	case "single":
		*s = ShapeSingleDevice
	case "full":
		*s = ShapeFull
	case "absent":
		*s = ShapeAbsent
	case "unsupported":
		*s = ShapeUnsupported
	default:
		return fmt.Errorf("unknown frame shape %q", b)
	}
	return nil
}

// DeviceType is the declared RT Beam Limiting Device Type of a device entry.
type DeviceType int

const (
	DeviceUnknown DeviceType = iota
	DeviceJawX
	DeviceJawY
	DeviceMLC
)

// fullFrameRoles is the device expected in each slot of a ShapeFull frame.
var fullFrameRoles = [3]DeviceType{DeviceJawX, DeviceJawY, DeviceMLC}

// ParseDeviceType maps the record's device type code. Unrecognised codes
// yield DeviceUnknown.
func ParseDeviceType(code string) DeviceType {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "X", "ASYMX":
		return DeviceJawX
	case "Y", "ASYMY":
		return DeviceJawY
	case "MLCX", "MLCY":
		return DeviceMLC
	default:
		return DeviceUnknown
	}
}

func (d DeviceType) String() string {
	switch d {
	case DeviceJawX:
		return "jaw-x"
	case DeviceJawY:
		return "jaw-y"
	case DeviceMLC:
		return "mlc"
	default:
		return "unknown"
	}
}

func (d DeviceType) axis() JawAxis {
	switch d {
	case DeviceJawX:
		return AxisX
	case DeviceJawY:
		return AxisY
	default:
		return AxisUnknown
	}
}
