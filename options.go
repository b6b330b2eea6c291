package bms

import (
	"errors"
	"fmt"
	"image"
	"math"
)

var (
	ErrEmptyImage            = errors.New("bms: image has no pixels")
	ErrNoColorSpace          = errors.New("bms: no color space selected")
	ErrInvalidStep           = errors.New("bms: threshold step must be positive")
	ErrInvalidDilation       = errors.New("bms: dilation radius must not be negative")
	ErrInvalidRegularization = errors.New("bms: whitening regularization must not be negative")
	ErrDimensionMismatch     = errors.New("bms: raster dimensions differ")
)

type Options struct {
	// Radius of the square structuring element applied to both attention masks.
	// 0 disables dilation. Ideal start: 7 for a 400px long side.
	DilationRadius int
	// Scale each attention mask to unit L2 norm before summing. When false the summed
	// masks are min-max stretched into [0,1] instead.
	Normalize bool
	// Jitter border flood-fill seeds inward (p=0.01, 5-24px).
	HandleBorder bool
	// Color spaces the feature maps are taken from.
	ColorSpace ColorSpace
	// Decorrelate the channels of each color space before thresholding.
	Whitening bool
	// Added to the covariance diagonal before inversion. 0 is allowed but unstable
	// on flat images.
	Regularization float64
	// Threshold sweep step in 8-bit feature units.
	// Ideal start: 8. Lower => more boolean maps, slower, smoother saliency.
	Step float64
	// Seed for border jitter. Same seed => same seeds => same result.
	Seed uint64
	// Parallel channel workers. <= 0 uses GOMAXPROCS.
	Workers int
	// Print a summary line per run.
	Verbose bool
}

func DefaultOptions() Options {
	return Options{
		DilationRadius: 7,
		Normalize:      true,
		HandleBorder:   false,
		ColorSpace:     Lab,
		Whitening:      true,
		Regularization: 50,
		Step:           8,
		Seed:           1,
	}
}

// OptionsFromSize scales the dilation radius with the long side of the image.
func OptionsFromSize(size image.Point) Options {
	opt := DefaultOptions()
	if size.X <= 0 || size.Y <= 0 {
		return opt
	}
	long := max(size.X, size.Y)
	opt.DilationRadius = max(1, int(math.Round(7*float64(long)/400)))
	return opt
}

// Validate reports the first option that would make a run meaningless.
func (o Options) Validate() error {
	if o.ColorSpace&(RGB|Lab|Luv) == 0 {
		return ErrNoColorSpace
	}
	if o.Regularization < 0 || math.IsNaN(o.Regularization) {
		return fmt.Errorf("%w: %v", ErrInvalidRegularization, o.Regularization)
	}
	return o.validateSweep()
}

func (o Options) validateSweep() error {
	if !(o.Step > 0) || math.IsInf(o.Step, 1) {
		return fmt.Errorf("%w: %v", ErrInvalidStep, o.Step)
	}
	if o.DilationRadius < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDilation, o.DilationRadius)
	}
	return nil
}
