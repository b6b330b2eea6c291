package bms

import (
	"iter"
	"math"
)

func (fm FeatureMap) minMax() (uint8, uint8) {
	lo, hi := uint8(255), uint8(0)
	for _, v := range fm.Pix {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

// Thresholds lists the sweep over [min, max) of fm in increments of step:
// ceil((max-min)/step) values, none for a constant map.
func Thresholds(fm FeatureMap, step float64) []float64 {
	if len(fm.Pix) == 0 || !(step > 0) {
		return nil
	}
	lo, hi := fm.minMax()
	if hi <= lo {
		return nil
	}
	span := float64(hi) - float64(lo)
	n := int(math.Ceil(span / step))
	out := make([]float64, 0, n)
	for i := range n {
		t := float64(lo) + float64(i)*step
		if t >= float64(hi) {
			break
		}
		out = append(out, t)
	}
	return out
}

// Threshold returns the boolean map of fm at t: a pixel is set when its value is strictly
// greater than t.
func Threshold(fm FeatureMap, t float64) BooleanMap {
	bm := BooleanMap{
		Channel:   fm.Name,
		Threshold: t,
		W:         fm.W,
		H:         fm.H,
		Pix:       make([]bool, len(fm.Pix)),
	}
	for i, v := range fm.Pix {
		bm.Pix[i] = float64(v) > t
	}
	return bm
}

// BooleanMaps yields the boolean maps of the threshold sweep lazily. The sequence can be
// ranged over any number of times and always yields the same maps.
func BooleanMaps(fm FeatureMap, step float64) iter.Seq[BooleanMap] {
	return func(yield func(BooleanMap) bool) {
		for _, t := range Thresholds(fm, step) {
			if !yield(Threshold(fm, t)) {
				return
			}
		}
	}
}
