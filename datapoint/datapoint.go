// Package datapoint defines the core annotated-image data model shared by
// dataset mappers, the token classifier and the review UI.
package datapoint

import (
	"errors"
	"fmt"
)

// BoundingBox is an axis-aligned box anchored at its upper-left corner.
type BoundingBox struct {
	ULX    float64 `json:"ulx"`
	ULY    float64 `json:"uly"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewBoundingBox builds a box from corner coordinates (xmin, ymin, xmax, ymax).
func NewBoundingBox(xmin, ymin, xmax, ymax float64) (BoundingBox, error) {
	box := BoundingBox{
		ULX:    xmin,
		ULY:    ymin,
		Width:  xmax - xmin,
		Height: ymax - ymin,
	}
	if err := box.Validate(); err != nil {
		return BoundingBox{}, err
	}
	return box, nil
}

// Validate rejects degenerate or negative geometry.
func (b BoundingBox) Validate() error {
	if b.ULX < 0 || b.ULY < 0 {
		return fmt.Errorf("bounding box origin must be non-negative, got (%g, %g)", b.ULX, b.ULY)
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("bounding box sides must be positive, got %gx%g", b.Width, b.Height)
	}
	return nil
}

// XMax returns the lower-right x coordinate.
func (b BoundingBox) XMax() float64 { return b.ULX + b.Width }

// YMax returns the lower-right y coordinate.
func (b BoundingBox) YMax() float64 { return b.ULY + b.Height }

// Area returns the box area.
func (b BoundingBox) Area() float64 { return b.Width * b.Height }

// Annotation is a labeled region of an image.
type Annotation struct {
	CategoryName string      `json:"categoryName"`
	CategoryID   string      `json:"categoryId,omitempty"`
	Score        float32     `json:"score,omitempty"`
	Box          BoundingBox `json:"box"`
}

// Image is a document page together with its labeled regions. Annotations
// keep the order in which they were added.
type Image struct {
	FileName    string       `json:"fileName"`
	Location    string       `json:"location,omitempty"`
	Width       float64      `json:"width"`
	Height      float64      `json:"height"`
	Annotations []Annotation `json:"annotations"`

	// Data holds the raw image payload when the producer was asked to load it.
	Data []byte `json:"-"`
}

// NewImage constructs an image with validated dimensions.
func NewImage(fileName string, width, height float64) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("image %s: dimensions must be positive, got %gx%g", fileName, width, height)
	}
	return &Image{FileName: fileName, Width: width, Height: height}, nil
}

// AddAnnotation validates and appends an annotation.
func (im *Image) AddAnnotation(ann Annotation) error {
	if ann.CategoryName == "" {
		return errors.New("annotation requires a category name")
	}
	if err := ann.Box.Validate(); err != nil {
		return fmt.Errorf("annotation %q: %w", ann.CategoryName, err)
	}
	im.Annotations = append(im.Annotations, ann)
	return nil
}
