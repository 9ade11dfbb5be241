package rtplan

import "rtplan-service/internal/tagtree"

// Attributes of the RT Plan record read by the navigator.
var (
	TagFractionGroupSequence  = tagtree.T(0x300A, 0x0070)
	TagNumberOfBeams          = tagtree.T(0x300A, 0x0080)
	TagBeamDose               = tagtree.T(0x300A, 0x0084)
	TagBeamSequence           = tagtree.T(0x300A, 0x00B0)
	TagDeviceType             = tagtree.T(0x300A, 0x00B8)
	TagBeamNumber             = tagtree.T(0x300A, 0x00C0)
	TagBeamName               = tagtree.T(0x300A, 0x00C2)
	TagNumberOfControlPoints  = tagtree.T(0x300A, 0x0110)
	TagControlPointSequence   = tagtree.T(0x300A, 0x0111)
	TagDevicePositionSequence = tagtree.T(0x300A, 0x011A)
	TagLeafJawPositions       = tagtree.T(0x300A, 0x011C)
	TagGantryAngle            = tagtree.T(0x300A, 0x011E)
	TagReferencedBeamSequence = tagtree.T(0x300C, 0x0004)
	TagReferencedBeamNumber   = tagtree.T(0x300C, 0x0006)
)
