package bms

import (
	"fmt"
	"image"

	"gonum.org/v1/gonum/floats"
)

// Accumulator sums attention maps and counts how many were folded in.
// It is not safe for concurrent use; parallel sweeps give each worker its own
// Accumulator and Merge them afterwards.
type Accumulator struct {
	W, H  int
	sum   []float64
	count int
}

func NewAccumulator(w, h int) *Accumulator {
	return &Accumulator{W: w, H: h, sum: make([]float64, w*h)}
}

func (a *Accumulator) Add(am AttentionMap) error {
	if am.W != a.W || am.H != a.H || len(am.Pix) != len(a.sum) {
		return fmt.Errorf("%w: attention map %dx%d, accumulator %dx%d",
			ErrDimensionMismatch, am.W, am.H, a.W, a.H)
	}
	for i, v := range am.Pix {
		a.sum[i] += float64(v)
	}
	a.count++
	return nil
}

// Merge folds the sums and count of b into a.
func (a *Accumulator) Merge(b *Accumulator) error {
	if b.W != a.W || b.H != a.H {
		return fmt.Errorf("%w: accumulator %dx%d, accumulator %dx%d",
			ErrDimensionMismatch, b.W, b.H, a.W, a.H)
	}
	floats.Add(a.sum, b.sum)
	a.count += b.count
	return nil
}

// Count is the number of attention maps folded in.
func (a *Accumulator) Count() int {
	return a.count
}

// Raw returns a copy of the unnormalized sum.
func (a *Accumulator) Raw() []float64 {
	out := make([]float64, len(a.sum))
	copy(out, a.sum)
	return out
}

// SaliencyMap min-max normalizes the sum into [0,255]. A constant sum, including an
// empty accumulator, yields an all-zero map.
func (a *Accumulator) SaliencyMap() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, a.W, a.H))
	if len(a.sum) == 0 {
		return img
	}
	lo, hi := floats.Min(a.sum), floats.Max(a.sum)
	if !(hi > lo) {
		return img
	}
	vals := a.Raw()
	floats.AddConst(-lo, vals)
	floats.Scale(255/(hi-lo), vals)
	for i, v := range vals {
		img.Pix[i] = clampByte(v)
	}
	return img
}
