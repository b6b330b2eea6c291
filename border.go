package bms

import (
	"image"
	"math/rand/v2"
)

const (
	jitterProbability = 0.01
	jitterMin         = 5
	jitterMax         = 25 // exclusive
)

// BorderSeeds returns the flood-fill seeds along the image border in scan order: left and
// right edge for every row, then top and bottom edge for every column. With handleBorder
// each seed is independently moved inward by [5,25) pixels with probability 0.01, clamped
// to the image. rng is only read when handleBorder is set.
func BorderSeeds(w, h int, handleBorder bool, rng *rand.Rand) []image.Point {
	seeds := make([]image.Point, 0, 2*(w+h))
	jump := func() int {
		if !handleBorder || rng.Float64() <= 1-jitterProbability {
			return 0
		}
		return jitterMin + rng.IntN(jitterMax-jitterMin)
	}
	for y := range h {
		seeds = append(seeds, image.Pt(clampInt(jump(), 0, w-1), y))
		seeds = append(seeds, image.Pt(clampInt(w-1-jump(), 0, w-1), y))
	}
	for x := range w {
		seeds = append(seeds, image.Pt(x, clampInt(jump(), 0, h-1)))
		seeds = append(seeds, image.Pt(x, clampInt(h-1-jump(), 0, h-1)))
	}
	return seeds
}

// AnalyzeBorder marks every pixel whose 8-connected same-valued region contains a border
// seed and returns the surrounded remainder split by the value of bm. bm is not modified.
func AnalyzeBorder(bm BooleanMap, handleBorder bool, rng *rand.Rand) MaskPair {
	reached := borderReached(bm, BorderSeeds(bm.W, bm.H, handleBorder, rng))
	mp := MaskPair{
		W:       bm.W,
		H:       bm.H,
		Inside:  make([]bool, len(bm.Pix)),
		Outside: make([]bool, len(bm.Pix)),
	}
	for i, r := range reached {
		if r {
			continue
		}
		if bm.Pix[i] {
			mp.Inside[i] = true
		} else {
			mp.Outside[i] = true
		}
	}
	return mp
}

// Surrounded is the activation mask: pixels not connected to any border seed.
func (mp MaskPair) Surrounded() []bool {
	out := make([]bool, len(mp.Inside))
	for i := range out {
		out[i] = mp.Inside[i] || mp.Outside[i]
	}
	return out
}

func borderReached(bm BooleanMap, seeds []image.Point) []bool {
	w, h := bm.W, bm.H
	reached := make([]bool, len(bm.Pix))
	elems := make([]int, 0, 64)
	for _, s := range seeds {
		start := labelOffset(w, s.X, s.Y)
		if reached[start] {
			continue
		}
		value := bm.Pix[start]
		reached[start] = true
		elems = append(elems[:0], start)
		for len(elems) > 0 {
			cur := elems[len(elems)-1]
			elems = elems[:len(elems)-1]
			cx := cur % w
			cy := cur / w
			for dy := -1; dy <= 1; dy++ {
				ny := cy + dy
				if ny < 0 || ny >= h {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					nx := cx + dx
					if nx < 0 || nx >= w {
						continue
					}
					nIdx := labelOffset(w, nx, ny)
					if !reached[nIdx] && bm.Pix[nIdx] == value {
						reached[nIdx] = true
						elems = append(elems, nIdx)
					}
				}
			}
		}
	}
	return reached
}
