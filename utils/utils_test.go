package utils

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func createTestImage(width, height int, pattern func(x, y int) color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, pattern(x, y))
		}
	}
	return img
}

func TestIsImageFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"photo.jpg", true},
		{"photo.JPEG", true},
		{"dir/scan.tiff", true},
		{"image.webp", true},
		{"notes.txt", false},
		{"noext", false},
	}
	for _, tt := range tests {
		if got := IsImageFile(tt.path); got != tt.want {
			t.Errorf("IsImageFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestSaveAndReadImage(t *testing.T) {
	img := createTestImage(7, 5, func(x, y int) color.RGBA {
		return color.RGBA{R: uint8(x * 30), G: uint8(y * 40), B: 9, A: 255}
	})
	path := filepath.Join(t.TempDir(), "out.png")
	if err := SaveImage(img, path); err != nil {
		t.Fatalf("SaveImage failed: %v", err)
	}
	got, err := ReadImage(path)
	if err != nil {
		t.Fatalf("ReadImage failed: %v", err)
	}
	if got.Bounds().Dx() != 7 || got.Bounds().Dy() != 5 {
		t.Fatalf("Expected 7x5, got %v", got.Bounds())
	}
	r, g, b, _ := got.At(3, 2).RGBA()
	if r>>8 != 90 || g>>8 != 80 || b>>8 != 9 {
		t.Errorf("Pixel (3,2) = %d,%d,%d", r>>8, g>>8, b>>8)
	}

	if _, err := ReadImage(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("Expected error for missing file")
	}
	bad := filepath.Join(t.TempDir(), "bad.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadImage(bad); err == nil {
		t.Error("Expected decode error")
	}
}

func TestPrepare(t *testing.T) {
	tests := []struct {
		w, h, maxDim int
		wantW, wantH int
	}{
		{800, 400, 400, 400, 200},
		{300, 900, 450, 150, 450},
		{120, 80, 400, 120, 80},
		{120, 80, 0, 120, 80},
		{1000, 3, 100, 100, 1},
	}
	for _, tt := range tests {
		img := image.NewNRGBA(image.Rect(10, 10, 10+tt.w, 10+tt.h))
		got := Prepare(img, tt.maxDim)
		if got.Rect.Dx() != tt.wantW || got.Rect.Dy() != tt.wantH {
			t.Errorf("Prepare(%dx%d, %d) = %v, want %dx%d", tt.w, tt.h, tt.maxDim, got.Rect, tt.wantW, tt.wantH)
		}
		if got.Rect.Min != (image.Point{}) {
			t.Errorf("Expected origin at 0,0, got %v", got.Rect.Min)
		}
	}
}

func TestPrepareKeepsPixels(t *testing.T) {
	src := createTestImage(4, 3, func(x, y int) color.RGBA {
		return color.RGBA{R: uint8(x * 60), G: uint8(y * 100), B: 200, A: 255}
	})
	got := Prepare(src, 10)
	for y := range 3 {
		for x := range 4 {
			if got.RGBAAt(x, y) != src.RGBAAt(x, y) {
				t.Errorf("(%d,%d): %v != %v", x, y, got.RGBAAt(x, y), src.RGBAAt(x, y))
			}
		}
	}
}

func TestSmooth(t *testing.T) {
	sal := image.NewGray(image.Rect(0, 0, 21, 21))
	sal.SetGray(10, 10, color.Gray{Y: 255})
	if Smooth(sal, 0) != sal {
		t.Error("Expected sigma 0 to return the input")
	}
	got := Smooth(sal, 2)
	if got.Rect != sal.Rect {
		t.Fatalf("Expected bounds %v, got %v", sal.Rect, got.Rect)
	}
	if v := got.GrayAt(10, 10).Y; v != 255 {
		t.Errorf("Expected peak 255 after re-stretch, got %d", v)
	}
	if v := got.GrayAt(0, 0).Y; v != 0 {
		t.Errorf("Expected corner 0, got %d", v)
	}
	if v := got.GrayAt(11, 10).Y; v == 0 || v == 255 {
		t.Errorf("Expected blurred neighbour between 0 and 255, got %d", v)
	}

	flat := image.NewGray(image.Rect(0, 0, 5, 5))
	for _, v := range Smooth(flat, 3).Pix {
		if v != 0 {
			t.Fatalf("Expected flat map to stay 0, got %d", v)
		}
	}
}

func TestRestore(t *testing.T) {
	sal := image.NewGray(image.Rect(0, 0, 10, 5))
	for i := range sal.Pix {
		sal.Pix[i] = 200
	}
	if Restore(sal, image.Pt(10, 5)) != sal {
		t.Error("Expected same size to return the input")
	}
	got := Restore(sal, image.Pt(40, 20))
	if got.Rect.Dx() != 40 || got.Rect.Dy() != 20 {
		t.Fatalf("Expected 40x20, got %v", got.Rect)
	}
	if v := got.GrayAt(20, 10).Y; v < 199 || v > 201 {
		t.Errorf("Expected about 200, got %d", v)
	}
}
