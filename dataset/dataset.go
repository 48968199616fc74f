// Package dataset streams annotated images out of on-disk document datasets.
package dataset

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/doclens/doclens/datapoint"
	"github.com/doclens/doclens/mapper"
)

// Split names a dataset partition.
type Split string

const (
	SplitTrain Split = "train"
	SplitVal   Split = "val"
	SplitTest  Split = "test"
)

// Info describes a dataset for display and bookkeeping.
type Info struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	License     string            `json:"license"`
	URL         string            `json:"url"`
	Splits      map[Split]string  `json:"splits"`
	Categories  map[string]string `json:"categories"`
}

// BuildOptions select what a Build pass produces.
type BuildOptions struct {
	Split         Split
	MaxDatapoints int
	LoadImage     bool
	FakeScore     bool
}

// Builder walks a split's annotation files and maps each one into an
// annotated image.
type Builder struct {
	workdir         string
	annotationFiles map[Split]string
	categories      map[string]string
	nameMapping     map[string]string
	logger          *log.Logger
}

// NewBuilder constructs a builder rooted at workdir. annotationFiles maps a
// split to its annotation subdirectory.
func NewBuilder(workdir string, annotationFiles map[Split]string, categories, nameMapping map[string]string, logger *log.Logger) (*Builder, error) {
	if workdir == "" {
		return nil, fmt.Errorf("dataset: workdir is required")
	}
	if len(annotationFiles) == 0 {
		return nil, fmt.Errorf("dataset: no annotation directories configured")
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("dataset: no categories configured")
	}
	return &Builder{
		workdir:         workdir,
		annotationFiles: annotationFiles,
		categories:      categories,
		nameMapping:     nameMapping,
		logger:          logger,
	}, nil
}

// Build walks the split's annotation files in deterministic order, maps each
// record and calls fn with the resulting image. Datapoints filtered by the
// mapper are skipped silently. Build stops early once opts.MaxDatapoints
// images were produced or ctx is done.
func (b *Builder) Build(ctx context.Context, opts BuildOptions, fn func(*datapoint.Image) error) error {
	split := opts.Split
	if split == "" {
		split = SplitVal
	}
	dir, ok := b.annotationFiles[split]
	if !ok {
		return fmt.Errorf("dataset: unknown split %q", split)
	}
	root := filepath.Join(b.workdir, dir)
	paths, err := listAnnotationFiles(root)
	if err != nil {
		return err
	}
	m := mapper.New(b.categories, mapper.Options{
		LoadImage:        opts.LoadImage,
		FilterEmptyImage: true,
		FakeScore:        opts.FakeScore,
	}, b.nameMapping)

	produced := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if opts.MaxDatapoints > 0 && produced >= opts.MaxDatapoints {
			break
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read annotation %s: %w", path, err)
		}
		rec, err := mapper.RecordFromXML(data)
		if err != nil {
			return fmt.Errorf("annotation %s: %w", path, err)
		}
		if rec.FileName == "" {
			rec.FileName = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		im, err := m.Map(rec)
		if err != nil {
			return fmt.Errorf("annotation %s: %w", path, err)
		}
		if im == nil {
			b.logf("skipping %s: empty image", path)
			continue
		}
		im.Location = path
		if err := fn(im); err != nil {
			return err
		}
		produced++
	}
	b.logf("built %d datapoints from split %q", produced, split)
	return nil
}

func listAnnotationFiles(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("list annotations in %s: %w", root, err)
	}
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".xml") {
			continue
		}
		paths = append(paths, filepath.Join(root, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func (b *Builder) logf(format string, args ...any) {
	if b.logger != nil {
		b.logger.Printf(format, args...)
	}
}
