package bms

import (
	"image"
	"image/color"
)

// squareFeatureMap creates a w×h map of zeros with a side×side block of 255 at (x0, y0)
func squareFeatureMap(w, h, x0, y0, side int) FeatureMap {
	fm := FeatureMap{Name: "sq", W: w, H: h, Pix: make([]uint8, w*h)}
	for y := y0; y < y0+side; y++ {
		for x := x0; x < x0+side; x++ {
			fm.Pix[y*w+x] = 255
		}
	}
	return fm
}

// boolMapFromRows builds a boolean map from rows of '#' (true) and '.' (false)
func boolMapFromRows(rows ...string) BooleanMap {
	h := len(rows)
	w := len(rows[0])
	bm := BooleanMap{Channel: "test", W: w, H: h, Pix: make([]bool, w*h)}
	for y, row := range rows {
		for x, c := range row {
			bm.Pix[y*w+x] = c == '#'
		}
	}
	return bm
}

// createTestImage creates an RGBA image with the color returned by pattern at each pixel
func createTestImage(width, height int, pattern func(x, y int) color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, pattern(x, y))
		}
	}
	return img
}

func countTrue(mask []bool) int {
	n := 0
	for _, v := range mask {
		if v {
			n++
		}
	}
	return n
}
