package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/setanarut/bms"
)

func TestDefaultConfigOptions(t *testing.T) {
	opt, err := DefaultConfig().Options()
	if err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}
	want := bms.DefaultOptions()
	want.Verbose = true
	if opt != want {
		t.Errorf("Options() = %+v, want %+v", opt, want)
	}
}

func TestLoadMissingConfig(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
}

func TestSaveLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "bms.yaml")
	cfg := DefaultConfig()
	cfg.Saliency.ColorSpaces = "rgb|luv"
	cfg.Saliency.Step = 4
	cfg.Saliency.HandleBorder = true
	cfg.Output.ArtifactDir = "debug"
	cfg.Output.PaletteColors = 5
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("Round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}
	opt, err := loaded.Options()
	if err != nil {
		t.Fatal(err)
	}
	if opt.ColorSpace != bms.RGB|bms.Luv || opt.Step != 4 || !opt.HandleBorder {
		t.Errorf("Unexpected options %+v", opt)
	}
}

func TestPartialConfigKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bms.yaml")
	if err := os.WriteFile(path, []byte("saliency:\n  step: 16\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Saliency.Step != 16 {
		t.Errorf("Expected step 16, got %v", cfg.Saliency.Step)
	}
	if cfg.Saliency.DilationRadius != 7 || cfg.Preprocess.MaxDimension != 400 {
		t.Errorf("Expected defaults for unset fields, got %+v", cfg)
	}
}

func TestInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bms.yaml")
	if err := os.WriteFile(path, []byte("saliency: [not, a, map\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected parse error")
	}

	cfg := DefaultConfig()
	cfg.Saliency.ColorSpaces = "hsv"
	if _, err := cfg.Options(); err == nil {
		t.Error("Expected error for unknown color space")
	}
	cfg.Saliency.ColorSpaces = ""
	if _, err := cfg.Options(); !errors.Is(err, bms.ErrNoColorSpace) {
		t.Errorf("Expected ErrNoColorSpace, got %v", err)
	}
	cfg = DefaultConfig()
	cfg.Saliency.Step = -1
	if _, err := cfg.Options(); !errors.Is(err, bms.ErrInvalidStep) {
		t.Errorf("Expected ErrInvalidStep, got %v", err)
	}
}
