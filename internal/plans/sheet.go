package plans

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"rtplan-service/internal/rtplan"
)

// DefaultParticles is written to the "# Particles" header when no count is configured.
const DefaultParticles = 1000

var (
	// ErrBeamNotFound is returned for a beam index the plan does not have.
	ErrBeamNotFound = errors.New("beam not found")

	// ErrControlPointNotFound is returned for a control point the beam does not have.
	ErrControlPointNotFound = errors.New("control point not found")

	// ErrIncompleteFrame is returned when jaws or leaves cannot be resolved for a sheet.
	ErrIncompleteFrame = errors.New("frame has no resolvable jaw or leaf positions")
)

// SheetFrame is a control point with every device position resolved,
// carrying forward values from earlier frames of the same beam.
type SheetFrame struct {
	Beam         int
	ControlPoint int
	GantryAngle  float64
	JawX         *rtplan.JawPositions
	JawY         *rtplan.JawPositions
	Leaves       *rtplan.LeafBankPositions
}

// ResolveFrame returns control point cp of beam with jaws, leaves and gantry
// angle taken from the most recent frame at or before cp that declares them.
// Jaws of unknown axis are never carried.
func ResolveFrame(beam rtplan.Beam, cp int) (SheetFrame, error) {
	if cp < 0 || cp >= len(beam.Frames) {
		return SheetFrame{}, fmt.Errorf("%w: beam %d has %d control points", ErrControlPointNotFound, beam.Index, len(beam.Frames))
	}
	out := SheetFrame{Beam: beam.Index, ControlPoint: cp}
	for _, f := range beam.Frames[:cp+1] {
		if f.GantryAngle != nil {
			out.GantryAngle = *f.GantryAngle
		}
		if x, ok := f.Jaw(rtplan.AxisX); ok {
			out.JawX = &x
		}
		if y, ok := f.Jaw(rtplan.AxisY); ok {
			out.JawY = &y
		}
		if f.Leaves != nil {
			out.Leaves = f.Leaves
		}
	}
	return out, nil
}

// CentreBanks shifts both banks so the open aperture is centred on zero.
// Only leaf pairs that are not closed count towards the aperture; when every
// pair is closed the banks are returned unchanged.
func CentreBanks(l rtplan.LeafBankPositions) rtplan.LeafBankPositions {
	minA, maxB := math.Inf(1), math.Inf(-1)
	for i := range l.A {
		if l.A[i] == l.B[i] {
			continue
		}
		minA = math.Min(minA, l.A[i])
		maxB = math.Max(maxB, l.B[i])
	}
	out := rtplan.LeafBankPositions{
		A: append([]float64(nil), l.A...),
		B: append([]float64(nil), l.B...),
	}
	if math.IsInf(minA, 1) {
		return out
	}
	shift := -(minA + maxB) / 2
	for i := range out.A {
		out.A[i] += shift
		out.B[i] += shift
	}
	return out
}

// BuildSheet renders f in the plan-sheet text format: a rotation and particle
// header, one X1,X2,Y1,Y2 jaw line, then one A,B line per leaf pair.
func BuildSheet(f SheetFrame, particles int) (string, error) {
	if f.JawX == nil || f.JawY == nil || f.Leaves == nil {
		return "", fmt.Errorf("%w: beam %d control point %d", ErrIncompleteFrame, f.Beam, f.ControlPoint)
	}
	if particles <= 0 {
		particles = DefaultParticles
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Rotation: %.1f\n", f.GantryAngle)
	fmt.Fprintf(&b, "# Particles: %d\n", particles)
	b.WriteString("# Jaws: X1[mm],X2[mm],Y1[mm],Y2[mm]\n")
	b.WriteString(strings.Join([]string{
		formatMM(f.JawX.Near), formatMM(f.JawX.Far),
		formatMM(f.JawY.Near), formatMM(f.JawY.Far),
	}, ","))
	b.WriteString("\n# MLC: Y1[mm],Y2[mm]\n")
	for i := range f.Leaves.A {
		b.WriteString(formatMM(f.Leaves.A[i]))
		b.WriteString(",")
		b.WriteString(formatMM(f.Leaves.B[i]))
		b.WriteString("\n")
	}
	return b.String(), nil
}

func formatMM(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// SheetFileName returns the sheet file name for a beam and control point:
// <base>_beam<b>_cp<c>.dat.
func SheetFileName(base string, beam, cp int) string {
	return fmt.Sprintf("%s_beam%d_cp%d.dat", base, beam, cp)
}
