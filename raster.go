package bms

import (
	"image"
	"image/color"
	"math"
)

// FeatureMap is one 8-bit channel of a color space, ready for thresholding.
type FeatureMap struct {
	Name string
	W, H int
	Pix  []uint8 // len = W*H
}

// BooleanMap is a feature map thresholded at Threshold: Pix[i] = value > Threshold.
type BooleanMap struct {
	Channel   string
	Threshold float64
	W, H      int
	Pix       []bool
}

// MaskPair holds the surrounded foreground (Inside) and surrounded background (Outside)
// of a boolean map.
type MaskPair struct {
	W, H    int
	Inside  []bool
	Outside []bool
}

type AttentionMap struct {
	W, H int
	Pix  []float32
}

type rgb8 struct {
	W, H int
	Pix  []uint8 // Interleaved RGB, len = W*H*3
}

func pixOffset(w, x, y int) int {
	return (y*w + x) * 3
}

func labelOffset(w, x, y int) int {
	return y*w + x
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampByte(v float64) uint8 {
	return uint8(max(0, min(255, math.Round(v))))
}

// makeRGB8Image drops alpha: colors are read unpremultiplied.
func makeRGB8Image(img image.Image) rgb8 {
	bounds := img.Bounds()
	h := bounds.Dy()
	w := bounds.Dx()
	out := rgb8{
		W:   w,
		H:   h,
		Pix: make([]uint8, h*w*3),
	}
	if src, ok := img.(*image.NRGBA); ok {
		for y := range h {
			row := src.Pix[src.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
			for x := range w {
				off := pixOffset(w, x, y)
				copy(out.Pix[off:off+3], row[x*4:x*4+3])
			}
		}
		return out
	}
	if src, ok := img.(*image.RGBA); ok {
		for y := range h {
			row := src.Pix[src.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
			for x := range w {
				off := pixOffset(w, x, y)
				p := row[x*4 : x*4+4]
				if p[3] == 0xff {
					copy(out.Pix[off:off+3], p[:3])
					continue
				}
				c := color.NRGBAModel.Convert(color.RGBA{R: p[0], G: p[1], B: p[2], A: p[3]}).(color.NRGBA)
				out.Pix[off], out.Pix[off+1], out.Pix[off+2] = c.R, c.G, c.B
			}
		}
		return out
	}
	for y := range h {
		for x := range w {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			off := pixOffset(w, x, y)
			out.Pix[off] = c.R
			out.Pix[off+1] = c.G
			out.Pix[off+2] = c.B
		}
	}
	return out
}

// Gray returns the feature map as an image.
func (fm FeatureMap) Gray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, fm.W, fm.H))
	copy(img.Pix, fm.Pix)
	return img
}

func (bm BooleanMap) Gray() *image.Gray {
	return boolGray(bm.W, bm.H, bm.Pix)
}

func (am AttentionMap) Gray() *image.Gray {
	return floatGray(am.W, am.H, am.Pix)
}

func boolGray(w, h int, pix []bool) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i, v := range pix {
		if v {
			img.Pix[i] = 255
		}
	}
	return img
}

// floatGray stretches pix into [0,255]. A constant raster renders black.
func floatGray(w, h int, pix []float32) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range pix {
		lo = min(lo, float64(v))
		hi = max(hi, float64(v))
	}
	if !(hi > lo) {
		return img
	}
	scale := 255 / (hi - lo)
	for i, v := range pix {
		img.Pix[i] = clampByte((float64(v) - lo) * scale)
	}
	return img
}
