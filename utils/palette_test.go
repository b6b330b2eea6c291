package utils

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
)

func TestParsePaletteMethod(t *testing.T) {
	for _, m := range []PaletteMethod{PaletteMethodDominantColor, PaletteMethodKMeans} {
		got, err := ParsePaletteMethod(m.String())
		if err != nil || got != m {
			t.Errorf("ParsePaletteMethod(%q) = %v, %v", m.String(), got, err)
		}
	}
	if got, err := ParsePaletteMethod(""); err != nil || got != PaletteMethodDominantColor {
		t.Errorf("Expected empty string to select dominantcolor, got %v, %v", got, err)
	}
	if _, err := ParsePaletteMethod("median-cut"); err == nil {
		t.Error("Expected error for unknown method")
	}
}

func TestSalientPixels(t *testing.T) {
	img := createTestImage(4, 4, func(x, y int) color.RGBA {
		if x >= 2 {
			return color.RGBA{R: 250, A: 255}
		}
		return color.RGBA{B: 250, A: 255}
	})
	sal := image.NewGray(image.Rect(0, 0, 4, 4))
	for y := range 4 {
		sal.SetGray(2, y, color.Gray{Y: 200})
		sal.SetGray(3, y, color.Gray{Y: 128})
		sal.SetGray(0, y, color.Gray{Y: 127})
	}
	got := SalientPixels(img, sal, 128)
	if len(got) != 8 {
		t.Fatalf("Expected 8 salient pixels, got %d", len(got))
	}
	for _, c := range got {
		if c != (color.RGBA{R: 250, A: 255}) {
			t.Errorf("Expected only red pixels, got %v", c)
		}
	}
}

func TestSalientPaletteEmpty(t *testing.T) {
	img := createTestImage(4, 4, func(x, y int) color.RGBA { return color.RGBA{G: 100, A: 255} })
	sal := image.NewGray(image.Rect(0, 0, 4, 4))
	if got := SalientPalette(img, sal, 128, 3, PaletteMethodKMeans); got != nil {
		t.Errorf("Expected nil palette without salient pixels, got %v", got)
	}
	for i := range sal.Pix {
		sal.Pix[i] = 255
	}
	if got := SalientPalette(img, sal, 128, 0, PaletteMethodDominantColor); got != nil {
		t.Errorf("Expected nil palette for k=0, got %v", got)
	}
}

func TestPackPixels(t *testing.T) {
	pixels := []color.RGBA{{R: 1, A: 255}, {R: 2, A: 255}, {R: 3, A: 255}, {R: 4, A: 255}, {R: 5, A: 255}}
	img := packPixels(pixels)
	if img.Rect.Dx() != 3 || img.Rect.Dy() != 3 {
		t.Fatalf("Expected 3x3, got %v", img.Rect)
	}
	// The last row wraps around to the first pixels
	if img.RGBAAt(2, 2) != pixels[3] {
		t.Errorf("Expected %v at (2,2), got %v", pixels[3], img.RGBAAt(2, 2))
	}
}

func TestSavePalette(t *testing.T) {
	path := filepath.Join(t.TempDir(), "palette.png")
	if err := SavePalette(nil, 32, path); err == nil {
		t.Error("Expected error for empty palette")
	}
	palette := []Swatch{
		{Color: colorful.Color{R: 1}, Weight: 0.75},
		{Color: colorful.Color{B: 1}, Weight: 0.25},
	}
	if err := SavePalette(palette, 32, path); err != nil {
		t.Fatalf("SavePalette failed: %v", err)
	}
	img, err := ReadImage(path)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 32 {
		t.Fatalf("Expected 64x32, got %v", img.Bounds())
	}
	// The first tile covers three quarters of the width
	if r, _, b, _ := img.At(47, 10).RGBA(); r>>8 != 255 || b>>8 != 0 {
		t.Errorf("Expected red at x=47, got r=%d b=%d", r>>8, b>>8)
	}
	if r, _, b, _ := img.At(48, 10).RGBA(); r>>8 != 0 || b>>8 != 255 {
		t.Errorf("Expected blue at x=48, got r=%d b=%d", r>>8, b>>8)
	}
}
