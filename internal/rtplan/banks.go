package rtplan

import "fmt"

// SplitBanks splits a flat leaf array into bank A (first half) and bank B
// (second half). Values are copied unchanged.
func SplitBanks(flat []float64, leafCount int) (LeafBankPositions, error) {
	if leafCount <= 0 || leafCount%2 != 0 {
		return LeafBankPositions{}, fmt.Errorf("%w: leaf count %d is not a positive even number", ErrShapeMismatch, leafCount)
	}
	if len(flat) != leafCount {
		return LeafBankPositions{}, fmt.Errorf("%w: got %d leaf positions, want %d", ErrShapeMismatch, len(flat), leafCount)
	}
	half := leafCount / 2
	a := make([]float64, half)
	b := make([]float64, half)
	copy(a, flat[:half])
	copy(b, flat[half:])
	return LeafBankPositions{A: a, B: b}, nil
}

// Flat returns bank A followed by bank B.
func (l LeafBankPositions) Flat() []float64 {
	out := make([]float64, 0, len(l.A)+len(l.B))
	out = append(out, l.A...)
	return append(out, l.B...)
}

func jawFrom(axis JawAxis, vals []float64) (JawPositions, error) {
	if len(vals) != 2 {
		return JawPositions{}, fmt.Errorf("%w: jaw array has %d values, want 2", ErrShapeMismatch, len(vals))
	}
	return JawPositions{Axis: axis, Near: vals[0], Far: vals[1]}, nil
}
