// Package mapper converts dataset annotation records into the internal
// annotated-image representation.
package mapper

import (
	"errors"
	"fmt"
	"math/rand"
	"os"

	"github.com/doclens/doclens/datapoint"
)

// Options control how records are turned into images.
type Options struct {
	// LoadImage reads the underlying image file into Image.Data.
	LoadImage bool
	// FilterEmptyImage drops datapoints whose image payload cannot be
	// loaded instead of failing the whole run. Only consulted when
	// LoadImage is set.
	FilterEmptyImage bool
	// FakeScore attaches a pseudo-random confidence score to every
	// annotation, for pipelines that expect detector-style output.
	FakeScore bool
}

// ImageLoader reads the raw image payload for a record. Tests replace it
// with a stand-in so mapping stays free of filesystem side effects.
type ImageLoader func(path string) ([]byte, error)

// Mapper converts Records into datapoint Images. Construct with New.
type Mapper struct {
	categoriesNameAsKey map[string]string
	nameMapping         map[string]string
	opts                Options
	loadImage           ImageLoader
	rng                 *rand.Rand
}

// New builds a mapper. categoriesNameAsKey maps a canonical category name to
// its dataset key; annotations whose mapped name is absent are skipped.
// nameMapping rewrites raw annotation names to canonical ones and may be nil.
func New(categoriesNameAsKey map[string]string, opts Options, nameMapping map[string]string) *Mapper {
	return &Mapper{
		categoriesNameAsKey: categoriesNameAsKey,
		nameMapping:         nameMapping,
		opts:                opts,
		loadImage:           func(path string) ([]byte, error) { return os.ReadFile(path) },
		rng:                 rand.New(rand.NewSource(rand.Int63())),
	}
}

// SetImageLoader replaces the image loader. Passing nil restores the
// default file loader.
func (m *Mapper) SetImageLoader(loader ImageLoader) {
	if loader == nil {
		loader = func(path string) ([]byte, error) { return os.ReadFile(path) }
	}
	m.loadImage = loader
}

// Map converts a record into an annotated image. A (nil, nil) return means
// the datapoint was filtered out per Options.FilterEmptyImage.
func (m *Mapper) Map(rec Record) (*datapoint.Image, error) {
	im, err := datapoint.NewImage(rec.FileName, rec.Width, rec.Height)
	if err != nil {
		return nil, err
	}
	if m.opts.LoadImage {
		data, err := m.loadImage(rec.FileName)
		if err == nil && len(data) == 0 {
			err = errors.New("empty image payload")
		}
		if err != nil {
			if m.opts.FilterEmptyImage {
				return nil, nil
			}
			return nil, fmt.Errorf("load image %s: %w", rec.FileName, err)
		}
		im.Data = data
	}
	for _, obj := range rec.Objects {
		name := NormalizeCategoryName(obj.Name)
		if mapped, ok := m.nameMapping[name]; ok {
			name = mapped
		}
		categoryID, ok := m.categoriesNameAsKey[name]
		if !ok {
			continue
		}
		box, err := datapoint.NewBoundingBox(obj.XMin, obj.YMin, obj.XMax, obj.YMax)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", rec.FileName, err)
		}
		ann := datapoint.Annotation{
			CategoryName: name,
			CategoryID:   categoryID,
			Box:          box,
		}
		if m.opts.FakeScore {
			ann.Score = m.rng.Float32()
		}
		if err := im.AddAnnotation(ann); err != nil {
			return nil, fmt.Errorf("record %s: %w", rec.FileName, err)
		}
	}
	return im, nil
}
