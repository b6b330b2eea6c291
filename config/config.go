// Package config loads the YAML configuration of the bms command and maps it onto
// bms.Options.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/setanarut/bms"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	Saliency struct {
		// DilationRadius grows attention masks; 0 disables dilation
		DilationRadius int `yaml:"dilationRadius"`

		// Normalize selects per-mask L2 normalization instead of min-max stretching
		Normalize bool `yaml:"normalize"`

		// HandleBorder enables random inward jitter of border seeds
		HandleBorder bool `yaml:"handleBorder"`

		// ColorSpaces is a "|"-separated list of rgb, lab, luv
		ColorSpaces string `yaml:"colorSpaces"`

		Whitening      bool    `yaml:"whitening"`
		Regularization float64 `yaml:"regularization"`
		Step           float64 `yaml:"step"`
		Seed           uint64  `yaml:"seed"`
		Workers        int     `yaml:"workers"`
	} `yaml:"saliency"`

	Preprocess struct {
		// MaxDimension shrinks inputs so their long side is at most this many pixels
		MaxDimension int `yaml:"maxDimension"`

		// BlurSigma smooths the final saliency map; 0 disables smoothing
		BlurSigma float64 `yaml:"blurSigma"`
	} `yaml:"preprocess"`

	Output struct {
		// Dir receives one <name>_bms.png per input
		Dir string `yaml:"dir"`

		// ArtifactDir receives intermediate maps when set
		ArtifactDir string `yaml:"artifactDir"`

		// PaletteColors > 0 writes a palette of the salient region
		PaletteColors int    `yaml:"paletteColors"`
		PaletteMethod string `yaml:"paletteMethod"`

		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}
	opt := bms.DefaultOptions()

	cfg.Saliency.DilationRadius = opt.DilationRadius
	cfg.Saliency.Normalize = opt.Normalize
	cfg.Saliency.HandleBorder = opt.HandleBorder
	cfg.Saliency.ColorSpaces = opt.ColorSpace.String()
	cfg.Saliency.Whitening = opt.Whitening
	cfg.Saliency.Regularization = opt.Regularization
	cfg.Saliency.Step = opt.Step
	cfg.Saliency.Seed = opt.Seed
	cfg.Saliency.Workers = opt.Workers

	cfg.Preprocess.MaxDimension = 400
	cfg.Preprocess.BlurSigma = 0

	cfg.Output.Dir = "saliency"
	cfg.Output.PaletteMethod = "dominantcolor"
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// Options converts the saliency section into validated bms.Options
func (c *Config) Options() (bms.Options, error) {
	cs, err := bms.ParseColorSpace(c.Saliency.ColorSpaces)
	if err != nil {
		return bms.Options{}, fmt.Errorf("saliency.colorSpaces: %w", err)
	}
	opt := bms.Options{
		DilationRadius: c.Saliency.DilationRadius,
		Normalize:      c.Saliency.Normalize,
		HandleBorder:   c.Saliency.HandleBorder,
		ColorSpace:     cs,
		Whitening:      c.Saliency.Whitening,
		Regularization: c.Saliency.Regularization,
		Step:           c.Saliency.Step,
		Seed:           c.Saliency.Seed,
		Workers:        c.Saliency.Workers,
		Verbose:        c.Output.Verbose,
	}
	if err := opt.Validate(); err != nil {
		return bms.Options{}, err
	}
	return opt, nil
}
