package bms

import (
	"image"
	"math"
	"slices"

	"github.com/anthonynsimon/bild/effect"
)

// BuildAttentionMap dilates both masks of mp by a square of radius dilation and sums them.
// With normalize each mask is scaled to unit L2 norm first; otherwise the sum is min-max
// stretched into [0,1]. Values are never negative.
func BuildAttentionMap(mp MaskPair, dilation int, normalize bool) AttentionMap {
	return buildAttentionMap(mp, dilation, normalize, nil)
}

func buildAttentionMap(mp MaskPair, dilation int, normalize bool, put func(stage string, img image.Image)) AttentionMap {
	inside, outside := mp.Inside, mp.Outside
	if dilation > 0 {
		inside = dilate(inside, mp.W, mp.H, dilation)
		outside = dilate(outside, mp.W, mp.H, dilation)
		if put != nil {
			put("attention-1-dilated", boolGray(mp.W, mp.H, inside))
			put("attention-2-dilated", boolGray(mp.W, mp.H, outside))
		}
	}

	am := AttentionMap{W: mp.W, H: mp.H, Pix: make([]float32, len(mp.Inside))}
	if normalize {
		in := unitMask(inside)
		out := unitMask(outside)
		if put != nil {
			put("attention-1-normal", floatGray(mp.W, mp.H, in))
			put("attention-2-normal", floatGray(mp.W, mp.H, out))
		}
		for i := range am.Pix {
			am.Pix[i] = in[i] + out[i]
		}
		return am
	}

	lo, hi := float32(2), float32(0)
	for i := range am.Pix {
		var v float32
		if inside[i] {
			v++
		}
		if outside[i] {
			v++
		}
		am.Pix[i] = v
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if hi <= lo {
		clear(am.Pix)
		return am
	}
	scale := 1 / (hi - lo)
	for i, v := range am.Pix {
		am.Pix[i] = (v - lo) * scale
	}
	return am
}

// unitMask converts mask to floats with unit L2 norm. An empty mask stays zero.
func unitMask(mask []bool) []float32 {
	out := make([]float32, len(mask))
	n := 0
	for _, v := range mask {
		if v {
			n++
		}
	}
	if n == 0 {
		return out
	}
	v := float32(1 / math.Sqrt(float64(n)))
	for i, m := range mask {
		if m {
			out[i] = v
		}
	}
	return out
}

// dilate grows mask by a (2r+1)×(2r+1) square as r passes of the 3×3 element.
func dilate(mask []bool, w, h, r int) []bool {
	if r <= 0 {
		return slices.Clone(mask)
	}
	img := effect.Dilate(boolGray(w, h, mask), 1)
	for range r - 1 {
		img = effect.Dilate(img, 1)
	}
	out := make([]bool, len(mask))
	for i := range out {
		out[i] = img.Pix[i*4] != 0
	}
	return out
}
