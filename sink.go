package bms

import (
	"fmt"
	"image"
	"math"
)

// ArtifactSink receives intermediate rasters for inspection. Implementations own their
// failures: Put has no error to return and must not block the caller for long.
// Put may be called from several goroutines at once.
type ArtifactSink interface {
	Put(name string, img image.Image)
}

// thresholdLabel is the rounded threshold used in artifact names.
func thresholdLabel(t float64) string {
	return fmt.Sprintf("%03.0f", math.Round(t))
}

func artifactName(channel string, t float64, stage string) string {
	name := channel + "-" + thresholdLabel(t)
	if stage != "" {
		name += "-" + stage
	}
	return name
}

// MaxArtifacts bounds the number of artifacts one run with o hands to a sink: every
// feature map, plus per boolean map the map itself, its activation, both attention masks
// and the dilated and normalized masks when enabled.
func (o Options) MaxArtifacts() int {
	if o.validateSweep() != nil {
		return 0
	}
	maps := 0
	for _, cs := range colorSpaces {
		if o.ColorSpace&cs != 0 {
			maps += 3
		}
	}
	stages := 4
	if o.DilationRadius > 0 {
		stages += 2
	}
	if o.Normalize {
		stages += 2
	}
	thresholds := int(min(math.Ceil(255/o.Step), 1<<24))
	return maps * (1 + thresholds*stages)
}
