package tokenclass

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/doclens/doclens/labelmap"
)

// Model is the external inference collaborator: encodings in, raw class
// predictions out. Implementations fill ClassID, Score, Token and Box; the
// classifier derives the rest.
type Model interface {
	PredictClasses(ctx context.Context, enc Encodings) ([]Result, error)
	Close() error
}

// Classifier validates encodings, delegates inference to the model and maps
// the predicted class ids onto the label vocabulary.
type Classifier struct {
	model      Model
	categories labelmap.Table
	logger     *log.Logger
}

// NewClassifier builds the label table from the configured category lists and
// wires the inference model.
func NewClassifier(model Model, semanticCategories, bioTags []string, logger *log.Logger) (*Classifier, error) {
	if model == nil {
		return nil, errors.New("tokenclass: model is required")
	}
	table, err := labelmap.Build(bioTags, semanticCategories)
	if err != nil {
		return nil, err
	}
	return &Classifier{model: model, categories: table, logger: logger}, nil
}

// Categories exposes the index→label table in use.
func (c *Classifier) Categories() labelmap.Table { return c.categories }

// Close releases the underlying model.
func (c *Classifier) Close() error { return c.model.Close() }

// Predict runs token classification over one sequence. It mutates the
// results returned by the model in place and returns the same slice, fully
// decorated.
func (c *Classifier) Predict(ctx context.Context, enc Encodings) ([]Result, error) {
	if err := enc.Validate(); err != nil {
		return nil, err
	}
	results, err := c.model.PredictClasses(ctx, enc)
	if err != nil {
		return nil, fmt.Errorf("predict %s: %w", enc.ImageID, err)
	}
	if err := c.Decorate(results); err != nil {
		return nil, err
	}
	c.logf("classified %d tokens for %s", len(results), enc.ImageID)
	return results, nil
}

// Decorate fills ClassName, SemanticName and BioTag from each result's
// ClassID. It mutates results in place; applying it twice is a no-op.
func (c *Classifier) Decorate(results []Result) error {
	for i := range results {
		name, err := c.categories.Name(results[i].ClassID)
		if err != nil {
			return err
		}
		results[i].ClassName = name
		results[i].SemanticName = labelmap.SemanticName(name)
		results[i].BioTag = labelmap.BioTag(name)
	}
	return nil
}

func (c *Classifier) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}
