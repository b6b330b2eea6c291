package utils

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Extensions decodable by ReadImage.
var Extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

func IsImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func ReadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

func SaveImage(img image.Image, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Prepare converts img to RGBA and shrinks it so that its long side is at most maxDim.
// maxDim <= 0 keeps the original size.
func Prepare(img image.Image, maxDim int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim > 0 && max(w, h) > maxDim {
		scale := float64(maxDim) / float64(max(w, h))
		w = max(1, int(float64(w)*scale+0.5))
		h = max(1, int(float64(h)*scale+0.5))
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Rect, img, b, draw.Src, nil)
	return dst
}

// Smooth blurs a saliency map with a Gaussian of the given sigma and re-stretches it to
// [0,255]. sigma <= 0 returns sal unchanged.
func Smooth(sal *image.Gray, sigma float64) *image.Gray {
	if sigma <= 0 {
		return sal
	}
	blurred := imaging.Blur(sal, sigma)
	out := image.NewGray(sal.Rect)
	lo, hi := uint8(255), uint8(0)
	for y := range sal.Rect.Dy() {
		for x := range sal.Rect.Dx() {
			v := blurred.NRGBAAt(x, y).R
			out.SetGray(sal.Rect.Min.X+x, sal.Rect.Min.Y+y, color.Gray{Y: v})
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	if hi <= lo {
		return out
	}
	for i, v := range out.Pix {
		out.Pix[i] = uint8((int(v-lo)*255 + int(hi-lo)/2) / int(hi-lo))
	}
	return out
}

// Restore scales a saliency map back to size.
func Restore(sal *image.Gray, size image.Point) *image.Gray {
	if sal.Rect.Dx() == size.X && sal.Rect.Dy() == size.Y {
		return sal
	}
	dst := image.NewGray(image.Rect(0, 0, size.X, size.Y))
	draw.BiLinear.Scale(dst, dst.Rect, sal, sal.Rect, draw.Src, nil)
	return dst
}
