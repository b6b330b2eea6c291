package utils

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"math"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

type PaletteMethod int

const (
	PaletteMethodDominantColor PaletteMethod = iota
	PaletteMethodKMeans
)

func (m PaletteMethod) String() string {
	switch m {
	case PaletteMethodKMeans:
		return "kmeans"
	default:
		return "dominantcolor"
	}
}

func ParsePaletteMethod(s string) (PaletteMethod, error) {
	switch s {
	case "dominantcolor", "":
		return PaletteMethodDominantColor, nil
	case "kmeans":
		return PaletteMethodKMeans, nil
	}
	return 0, fmt.Errorf("unknown palette method %q", s)
}

// Swatch is a palette color and the share of salient pixels it stands for.
type Swatch struct {
	Color  colorful.Color
	Weight float64
}

// SalientPixels returns the colors of img where sal is at least threshold. sal must
// cover the same size as img.
func SalientPixels(img image.Image, sal *image.Gray, threshold uint8) []color.RGBA {
	b := img.Bounds()
	sb := sal.Bounds()
	w, h := min(b.Dx(), sb.Dx()), min(b.Dy(), sb.Dy())
	var out []color.RGBA
	for y := range h {
		for x := range w {
			if sal.GrayAt(sb.Min.X+x, sb.Min.Y+y).Y < threshold {
				continue
			}
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			out = append(out, color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(bl >> 8), A: 255})
		}
	}
	return out
}

// SalientPalette summarizes the colors of the salient region of img in at most k swatches,
// heaviest first. It returns nil when no pixel reaches threshold.
func SalientPalette(img image.Image, sal *image.Gray, threshold uint8, k int, method PaletteMethod) []Swatch {
	if k <= 0 {
		return nil
	}
	pixels := SalientPixels(img, sal, threshold)
	if len(pixels) == 0 {
		return nil
	}
	var out []Swatch
	switch method {
	case PaletteMethodKMeans:
		out = kmeansPalette(pixels, k)
		if len(out) == 0 {
			log.Println("palette warning: kmeans returned empty palette, falling back to dominantcolor")
			out = dominantPalette(pixels, k)
		}
	default:
		out = dominantPalette(pixels, k)
	}
	slices.SortFunc(out, func(a, b Swatch) int {
		switch {
		case a.Weight > b.Weight:
			return -1
		case a.Weight < b.Weight:
			return 1
		}
		return 0
	})
	return out
}

// packPixels lays pixels out in a square image, repeating them to fill the last row.
func packPixels(pixels []color.RGBA) *image.RGBA {
	side := int(math.Ceil(math.Sqrt(float64(len(pixels)))))
	img := image.NewRGBA(image.Rect(0, 0, side, side))
	for i := range side * side {
		c := pixels[i%len(pixels)]
		img.SetRGBA(i%side, i/side, c)
	}
	return img
}

func dominantPalette(pixels []color.RGBA, k int) []Swatch {
	candidates := dominantcolor.FindWeight(packPixels(pixels), k)
	out := make([]Swatch, 0, len(candidates))
	for _, c := range candidates {
		col, _ := colorful.MakeColor(c.RGBA)
		out = append(out, Swatch{Color: col.Clamped(), Weight: c.Weight})
	}
	return out
}

func kmeansPalette(pixels []color.RGBA, k int) []Swatch {
	// Subsample to keep kmeans tractable on large regions.
	const maxSamples = 12000
	step := 1
	if len(pixels) > maxSamples {
		step = len(pixels)/maxSamples + 1
	}
	dataset := make(clusters.Observations, 0, min(len(pixels), maxSamples))
	for i := 0; i < len(pixels); i += step {
		col, _ := colorful.MakeColor(pixels[i])
		l, a, b := col.Lab()
		dataset = append(dataset, clusters.Coordinates{l, a, b})
	}
	k = min(k, len(dataset))
	km := kmeans.New()
	cc, err := km.Partition(dataset, k)
	if err != nil || len(cc) == 0 {
		return nil
	}
	out := make([]Swatch, 0, len(cc))
	for _, c := range cc {
		if len(c.Observations) == 0 || len(c.Center) < 3 {
			continue
		}
		out = append(out, Swatch{
			Color:  colorful.Lab(c.Center[0], c.Center[1], c.Center[2]).Clamped(),
			Weight: float64(len(c.Observations)) / float64(len(dataset)),
		})
	}
	return out
}

// SavePalette renders swatches as tiles whose widths follow their weights.
func SavePalette(palette []Swatch, tileSize int, filename string) error {
	if len(palette) == 0 {
		return fmt.Errorf("empty palette")
	}
	if tileSize <= 0 {
		tileSize = 64
	}
	total := 0.0
	for _, s := range palette {
		total += max(s.Weight, 0)
	}
	w := tileSize * len(palette)
	h := tileSize
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	x0 := 0
	for i, s := range palette {
		x1 := x0 + tileSize
		if total > 0 {
			x1 = x0 + int(math.Round(max(s.Weight, 0)/total*float64(w)))
		}
		if i == len(palette)-1 {
			x1 = w
		}
		r, g, b := s.Color.RGB255()
		for y := range h {
			for x := x0; x < min(x1, w); x++ {
				img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
			}
		}
		x0 = x1
	}
	return SaveImage(img, filename)
}
