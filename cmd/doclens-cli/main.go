package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/doclens/doclens/datapoint"
	"github.com/doclens/doclens/dataset"
	"github.com/doclens/doclens/infer"
	"github.com/doclens/doclens/tokenclass"
)

type cliOptions struct {
	configPath    string
	annotations   string
	split         string
	maxDatapoints int
	loadImage     bool
	outputPath    string
	outputDir     string
	check         bool
	stdout        bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		log.Fatalf("doclens-cli: %v", err)
	}
	if err := run(opts); err != nil {
		log.Fatalf("doclens-cli: %v", err)
	}
}

func parseFlags() (cliOptions, error) {
	var opts cliOptions
	flag.StringVar(&opts.configPath, "config", "", "Path to config.json (default: ./config.json)")
	flag.StringVar(&opts.annotations, "annotations", "", "Dataset work directory containing the split annotation folders")
	flag.StringVar(&opts.split, "split", string(dataset.SplitVal), "Dataset split to map (train, val or test)")
	flag.IntVar(&opts.maxDatapoints, "max-datapoints", 0, "Stop after this many datapoints (0 = all)")
	flag.BoolVar(&opts.loadImage, "load-image", false, "Load the image payload for each datapoint")
	flag.StringVar(&opts.outputPath, "output", "", "JSONL file to write mapped images (default uses --output-dir/images_*.jsonl)")
	flag.StringVar(&opts.outputDir, "output-dir", "out", "Directory where result files are written when --output is omitted")
	flag.BoolVar(&opts.check, "check", false, "Report whether the configured inference runtime is available and exit")
	flag.BoolVar(&opts.stdout, "stdout", false, "Print a per-image summary to STDOUT")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --annotations DIR [options]\n\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	opts.configPath = strings.TrimSpace(opts.configPath)
	opts.annotations = strings.TrimSpace(opts.annotations)
	opts.outputPath = strings.TrimSpace(opts.outputPath)
	opts.outputDir = strings.TrimSpace(opts.outputDir)

	if !opts.check && opts.annotations == "" {
		flag.Usage()
		return opts, errors.New("missing required --annotations directory")
	}
	return opts, nil
}

func run(opts cliOptions) error {
	cfg, err := tokenclass.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := log.New(os.Stderr, "", log.LstdFlags)

	if opts.check {
		return runCheck(cfg, logger)
	}

	builder, err := dataset.NewIIITar13KBuilder(opts.annotations, logger)
	if err != nil {
		return err
	}

	outputPath, err := resolveOutputPath(opts.outputPath, opts.outputDir)
	if err != nil {
		return err
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create output %s: %w", outputPath, err)
	}
	defer out.Close()
	w := bufio.NewWriter(out)
	enc := json.NewEncoder(w)

	buildOpts := dataset.BuildOptions{
		Split:         dataset.Split(opts.split),
		MaxDatapoints: opts.maxDatapoints,
		LoadImage:     opts.loadImage,
	}
	count := 0
	err = builder.Build(context.Background(), buildOpts, func(im *datapoint.Image) error {
		if err := enc.Encode(im); err != nil {
			return fmt.Errorf("write %s: %w", im.FileName, err)
		}
		if opts.stdout {
			fmt.Printf("%s\t%gx%g\t%d annotations\n", im.FileName, im.Width, im.Height, len(im.Annotations))
		}
		count++
		return nil
	})
	if err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	logger.Printf("wrote %d images to %s", count, outputPath)
	return nil
}

func runCheck(cfg tokenclass.Config, logger *log.Logger) error {
	if infer.Available(cfg.Model.Encoder) {
		logger.Printf("inference runtime available (model %s)", cfg.Model.Encoder.ModelPath)
		return nil
	}
	return fmt.Errorf("inference runtime unavailable: model %q, tokenizer %q",
		cfg.Model.Encoder.ModelPath, cfg.Model.Encoder.TokenizerPath)
}

func resolveOutputPath(explicit, dir string) (string, error) {
	if explicit != "" {
		if parent := filepath.Dir(explicit); parent != "." && parent != "" {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return "", fmt.Errorf("create output dir: %w", err)
			}
		}
		return explicit, nil
	}
	if dir == "" {
		dir = "out"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	name := fmt.Sprintf("images_%s.jsonl", time.Now().Format("20060102_150405"))
	return filepath.Join(dir, name), nil
}
