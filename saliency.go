package bms

import (
	"context"
	"fmt"
	"image"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Saliency holds the feature maps of one image and the accumulated attention.
type Saliency struct {
	opt  Options
	sink ArtifactSink
	maps []FeatureMap
	acc  *Accumulator
}

// New validates opt and extracts the feature maps of img. sink may be nil.
func New(img image.Image, opt Options, sink ArtifactSink) (*Saliency, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	maps, err := ExtractFeatureMaps(img, opt, sink)
	if err != nil {
		return nil, fmt.Errorf("extracting feature maps: %w", err)
	}
	b := img.Bounds()
	return &Saliency{
		opt:  opt,
		sink: sink,
		maps: maps,
		acc:  NewAccumulator(b.Dx(), b.Dy()),
	}, nil
}

// Compute runs the threshold sweep over every feature map and replaces the accumulated
// attention. It returns ctx.Err() if cancelled between two boolean maps.
func (s *Saliency) Compute(ctx context.Context) error {
	acc, err := Sweep(ctx, s.maps, s.opt, s.sink)
	if err != nil {
		return err
	}
	s.acc = acc
	return nil
}

// SaliencyMap is the accumulated attention normalized to [0,255].
func (s *Saliency) SaliencyMap() *image.Gray {
	return s.acc.SaliencyMap()
}

// Raw returns a copy of the unnormalized accumulator.
func (s *Saliency) Raw() []float64 {
	return s.acc.Raw()
}

func (s *Saliency) AttentionMapCount() int {
	return s.acc.Count()
}

func (s *Saliency) FeatureMaps() []FeatureMap {
	return s.maps
}

// workItem is one (channel, threshold) unit of the sweep.
type workItem struct {
	channel   int
	index     int
	threshold float64
}

// rng is the jitter source of the item, derived from the run seed only, so the result
// does not depend on scheduling.
func (it workItem) rng(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(it.channel)<<32|uint64(it.index)))
}

func (it workItem) attention(fm FeatureMap, opt Options, sink ArtifactSink) AttentionMap {
	bm := Threshold(fm, it.threshold)
	var rng *rand.Rand
	if opt.HandleBorder {
		rng = it.rng(opt.Seed)
	}
	mp := AnalyzeBorder(bm, opt.HandleBorder, rng)

	var put func(stage string, img image.Image)
	if sink != nil {
		put = func(stage string, img image.Image) {
			sink.Put(artifactName(fm.Name, it.threshold, stage), img)
		}
		put("", bm.Gray())
		put("activation", boolGray(mp.W, mp.H, mp.Surrounded()))
		put("attention-1", boolGray(mp.W, mp.H, mp.Inside))
		put("attention-2", boolGray(mp.W, mp.H, mp.Outside))
	}
	return buildAttentionMap(mp, opt.DilationRadius, opt.Normalize, put)
}

// plan lists the work items of every feature map, grouped by channel.
func plan(maps []FeatureMap, step float64) [][]workItem {
	items := make([][]workItem, len(maps))
	for ch, fm := range maps {
		for i, t := range Thresholds(fm, step) {
			items[ch] = append(items[ch], workItem{channel: ch, index: i, threshold: t})
		}
	}
	return items
}

// Sweep thresholds every feature map, turns each boolean map into an attention map and
// sums them. Channels run in parallel on up to opt.Workers goroutines, each into its own
// accumulator; partial sums are merged in channel order so the result is identical for
// any worker count. Color space and whitening options are ignored.
func Sweep(ctx context.Context, maps []FeatureMap, opt Options, sink ArtifactSink) (*Accumulator, error) {
	if err := opt.validateSweep(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(maps) == 0 {
		return nil, fmt.Errorf("%w: no feature maps", ErrEmptyImage)
	}
	w, h := maps[0].W, maps[0].H
	for _, fm := range maps {
		if fm.W != w || fm.H != h || len(fm.Pix) != w*h {
			return nil, fmt.Errorf("%w: feature map %s is %dx%d, want %dx%d",
				ErrDimensionMismatch, fm.Name, fm.W, fm.H, w, h)
		}
	}
	if w < 1 || h < 1 {
		return nil, ErrEmptyImage
	}

	items := plan(maps, opt.Step)
	partials := make([]*Accumulator, len(maps))
	workers := opt.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for ch := range maps {
		g.Go(func() error {
			acc := NewAccumulator(w, h)
			for _, it := range items[ch] {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := acc.Add(it.attention(maps[ch], opt, sink)); err != nil {
					return err
				}
			}
			partials[ch] = acc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := NewAccumulator(w, h)
	for _, p := range partials {
		if err := total.Merge(p); err != nil {
			return nil, err
		}
	}
	if opt.Verbose {
		fmt.Printf("   bms sweep %dx%d: %d channels, %d attention maps (step=%g dilation=%d)\n",
			w, h, len(maps), total.Count(), opt.Step, opt.DilationRadius)
	}
	return total, nil
}
