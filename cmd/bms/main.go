package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/setanarut/bms"
	"github.com/setanarut/bms/config"
	"github.com/setanarut/bms/utils"
)

// maxArtifactQueue caps the artifact write queue; runs that plan more artifacts than this
// may drop some of them.
const maxArtifactQueue = 1 << 14

func main() {
	input := flag.String("input", "", "Image file or directory of images")
	configPath := flag.String("config", "bms.yaml", "YAML configuration file (defaults if missing)")
	outputDir := flag.String("output", "", "Output directory (overrides config)")
	artifactDir := flag.String("artifacts", "", "Directory for intermediate maps (overrides config); best effort, maps beyond the write queue are dropped with a warning")
	workers := flag.Int("workers", -1, "Parallel channel workers, 0 = all cores (overrides config)")
	seed := flag.Int64("seed", -1, "Border jitter seed (overrides config)")
	paletteColors := flag.Int("palette", -1, "Colors in the salient-region palette, 0 = none (overrides config)")
	writeConfig := flag.Bool("write-config", false, "Write the effective configuration to -config and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *artifactDir != "" {
		cfg.Output.ArtifactDir = *artifactDir
	}
	if *workers >= 0 {
		cfg.Saliency.Workers = *workers
	}
	if *seed >= 0 {
		cfg.Saliency.Seed = uint64(*seed)
	}
	if *paletteColors >= 0 {
		cfg.Output.PaletteColors = *paletteColors
	}
	if *writeConfig {
		if err := config.SaveConfig(cfg, *configPath); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Configuration written to %s\n", *configPath)
		return
	}
	if *input == "" {
		flag.Usage()
		os.Exit(1)
	}

	opt, err := cfg.Options()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	method, err := utils.ParsePaletteMethod(cfg.Output.PaletteMethod)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	files, err := collectInputs(*input)
	if err != nil {
		log.Fatalf("Failed to read input: %v", err)
	}
	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	failed := 0
	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		start := time.Now()
		if err := processFile(ctx, path, cfg, opt, method); err != nil {
			log.Printf("Warning: %s: %v", path, err)
			failed++
			continue
		}
		if cfg.Output.Verbose {
			fmt.Printf("%s done in %.2fs\n", path, time.Since(start).Seconds())
		}
	}
	fmt.Printf("Processed %d of %d images\n", len(files)-failed, len(files))
	if failed > 0 {
		os.Exit(1)
	}
}

func collectInputs(input string) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{input}, nil
	}
	entries, err := os.ReadDir(input)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && utils.IsImageFile(e.Name()) {
			files = append(files, filepath.Join(input, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func processFile(ctx context.Context, path string, cfg *config.Config, opt bms.Options, method utils.PaletteMethod) error {
	img, err := utils.ReadImage(path)
	if err != nil {
		return err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	prepared := utils.Prepare(img, cfg.Preprocess.MaxDimension)

	var sink bms.ArtifactSink
	if cfg.Output.ArtifactDir != "" {
		dirSink := utils.NewDirSink(cfg.Output.ArtifactDir, name, min(opt.MaxArtifacts(), maxArtifactQueue))
		defer func() {
			dirSink.Close()
			if n := dirSink.Dropped(); n > 0 {
				log.Printf("Warning: %s: %d artifacts dropped", name, n)
			}
		}()
		sink = dirSink
	}

	s, err := bms.New(prepared, opt, sink)
	if err != nil {
		return err
	}
	if err := s.Compute(ctx); err != nil {
		return fmt.Errorf("computing saliency: %w", err)
	}

	sal := utils.Smooth(s.SaliencyMap(), cfg.Preprocess.BlurSigma)
	sal = utils.Restore(sal, img.Bounds().Size())
	out := filepath.Join(cfg.Output.Dir, name+"_bms.png")
	if err := utils.SaveImage(sal, out); err != nil {
		return fmt.Errorf("saving saliency map: %w", err)
	}

	if cfg.Output.PaletteColors > 0 {
		writePalette(img, sal, name, cfg, method)
	}
	return nil
}

func writePalette(img image.Image, sal *image.Gray, name string, cfg *config.Config, method utils.PaletteMethod) {
	palette := utils.SalientPalette(img, sal, 128, cfg.Output.PaletteColors, method)
	if len(palette) == 0 {
		log.Printf("Warning: %s: no salient pixels for a palette", name)
		return
	}
	hex := make([]string, len(palette))
	for i, s := range palette {
		hex[i] = fmt.Sprintf("%s (%.0f%%)", s.Color.Hex(), s.Weight*100)
	}
	fmt.Printf("%s salient colors (%s): %s\n", name, method, strings.Join(hex, ", "))
	out := filepath.Join(cfg.Output.Dir, name+"_palette.png")
	if err := utils.SavePalette(palette, 64, out); err != nil {
		log.Printf("Warning: failed to save palette %s: %v", out, err)
	}
}
