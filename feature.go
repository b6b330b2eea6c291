package bms

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/anthonynsimon/bild/effect"
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ColorSpace is a set of color spaces. Flags combine with |.
type ColorSpace int

const (
	RGB ColorSpace = 1 << iota
	Lab
	Luv
)

var colorSpaces = []ColorSpace{RGB, Lab, Luv}

var channelNames = map[ColorSpace][3]string{
	RGB: {"rgb-r", "rgb-g", "rgb-b"},
	Lab: {"lab-l", "lab-a", "lab-b"},
	Luv: {"luv-l", "luv-u", "luv-v"},
}

func (c ColorSpace) String() string {
	var names []string
	for _, cs := range colorSpaces {
		if c&cs != 0 {
			names = append(names, strings.SplitN(channelNames[cs][0], "-", 2)[0])
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// ParseColorSpace reads a "|"- or ","-separated list such as "lab|luv".
func ParseColorSpace(s string) (ColorSpace, error) {
	var c ColorSpace
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' }) {
		switch strings.ToLower(strings.TrimSpace(tok)) {
		case "rgb":
			c |= RGB
		case "lab":
			c |= Lab
		case "luv":
			c |= Luv
		default:
			return 0, fmt.Errorf("bms: unknown color space %q", tok)
		}
	}
	if c == 0 {
		return 0, ErrNoColorSpace
	}
	return c, nil
}

// ExtractFeatureMaps converts img into one feature map per channel of every selected color
// space, in RGB, Lab, Luv order. Each map is range-stretched to [0,255] and median filtered;
// with opt.Whitening the channels of a space are decorrelated first. sink may be nil.
func ExtractFeatureMaps(img image.Image, opt Options, sink ArtifactSink) ([]FeatureMap, error) {
	b := img.Bounds()
	if b.Dx() < 1 || b.Dy() < 1 {
		return nil, ErrEmptyImage
	}
	if opt.ColorSpace&(RGB|Lab|Luv) == 0 {
		return nil, ErrNoColorSpace
	}
	src := makeRGB8Image(img)
	var maps []FeatureMap
	for _, cs := range colorSpaces {
		if opt.ColorSpace&cs == 0 {
			continue
		}
		pix := convertColorSpace(src, cs)
		var planes [3][]uint8
		if opt.Whitening {
			planes = whitenPlanes(pix, src.W, src.H, opt.Regularization)
		} else {
			for c := range 3 {
				planes[c] = stretchPlane(pix, c, src.W*src.H)
			}
		}
		for c := range 3 {
			fm := FeatureMap{
				Name: channelNames[cs][c],
				W:    src.W,
				H:    src.H,
				Pix:  median3(planes[c], src.W, src.H),
			}
			if sink != nil {
				sink.Put(fm.Name, fm.Gray())
			}
			maps = append(maps, fm)
		}
	}
	return maps, nil
}

// ============ RGB → Lab / Luv ============

// convertColorSpace returns interleaved 8-bit channels of cs, quantized the way 8-bit
// OpenCV images store them: L in [0,255], a/b offset by 128, u/v rescaled from
// [-134,220] and [-140,122].
func convertColorSpace(src rgb8, cs ColorSpace) []uint8 {
	if cs == RGB {
		return src.Pix
	}
	out := make([]uint8, len(src.Pix))
	cache := make(map[[3]uint8][3]uint8)
	for i := 0; i < len(src.Pix); i += 3 {
		key := [3]uint8{src.Pix[i], src.Pix[i+1], src.Pix[i+2]}
		v, ok := cache[key]
		if !ok {
			c := colorful.Color{
				R: float64(key[0]) / 255.0,
				G: float64(key[1]) / 255.0,
				B: float64(key[2]) / 255.0,
			}
			switch cs {
			case Lab:
				l, a, b := c.Lab()
				v = [3]uint8{clampByte(l * 255), clampByte(a*100 + 128), clampByte(b*100 + 128)}
			case Luv:
				l, u, vv := c.Luv()
				v = [3]uint8{
					clampByte(l * 255),
					clampByte(255.0 / 354.0 * (u*100 + 134)),
					clampByte(255.0 / 262.0 * (vv*100 + 140)),
				}
			}
			cache[key] = v
		}
		copy(out[i:i+3], v[:])
	}
	return out
}

// ============ WHITENING ============

// whitenPlanes projects every pixel through the inverse square root of the regularized
// channel covariance and returns the three stretched 8-bit planes.
func whitenPlanes(pix []uint8, w, h int, reg float64) [3][]uint8 {
	n := w * h
	data := make([]float64, n*3)
	for i, v := range pix[:n*3] {
		data[i] = float64(v)
	}
	samples := mat.NewDense(n, 3, data)

	centered := mat.DenseCopyOf(samples)
	for c := range 3 {
		mean := stat.Mean(mat.Col(nil, c, samples), nil)
		for i := range n {
			centered.Set(i, c, centered.At(i, c)-mean)
		}
	}
	var cov mat.SymDense
	cov.SymOuterK(1/float64(n), centered.T())
	for c := range 3 {
		cov.SetSym(c, c, cov.At(c, c)+reg)
	}

	proj := samples
	if sqrtInv, ok := sqrtInverse(&cov); ok {
		proj = &mat.Dense{}
		proj.Mul(samples, sqrtInv)
	}

	var planes [3][]uint8
	col := make([]float64, n)
	for c := range 3 {
		mat.Col(col, c, proj)
		planes[c] = stretchFloats(col)
	}
	return planes
}

// sqrtInverse returns U·diag(1/√w) from the SVD of a symmetric covariance matrix.
// A zero singular value yields +Inf entries; callers treat the resulting
// non-finite projections as missing.
func sqrtInverse(cov mat.Symmetric) (*mat.Dense, bool) {
	var svd mat.SVD
	if !svd.Factorize(cov, mat.SVDFull) {
		return nil, false
	}
	vals := svd.Values(nil)
	var u mat.Dense
	svd.UTo(&u)
	inv := make([]float64, len(vals))
	for i, s := range vals {
		inv[i] = 1 / math.Sqrt(s)
	}
	out := &mat.Dense{}
	out.Mul(&u, mat.NewDiagDense(len(inv), inv))
	return out, true
}

// ============ RANGE STRETCH / MEDIAN ============

func stretchPlane(pix []uint8, c, n int) []uint8 {
	lo, hi := uint8(255), uint8(0)
	for i := range n {
		v := pix[i*3+c]
		lo = min(lo, v)
		hi = max(hi, v)
	}
	out := make([]uint8, n)
	if hi == lo {
		return out
	}
	scale := 255 / float64(hi-lo)
	for i := range n {
		out[i] = clampByte(float64(pix[i*3+c]-lo) * scale)
	}
	return out
}

// stretchFloats maps the finite range of vals onto [0,255]. Non-finite values
// and constant inputs become 0.
func stretchFloats(vals []float64) []uint8 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = min(lo, v)
		hi = max(hi, v)
	}
	out := make([]uint8, len(vals))
	if !(hi > lo) {
		return out
	}
	scale := 255 / (hi - lo)
	for i, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[i] = clampByte((v - lo) * scale)
	}
	return out
}

// median3 is a 3×3 median filter with replicated borders.
func median3(src []uint8, w, h int) []uint8 {
	gray := image.NewGray(image.Rect(0, 0, w, h))
	copy(gray.Pix, src)
	img := effect.Median(gray, 1)
	dst := make([]uint8, len(src))
	for i := range dst {
		dst[i] = img.Pix[i*4]
	}
	return dst
}
