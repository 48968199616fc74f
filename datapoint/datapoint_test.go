package datapoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBoundingBoxFromCorners(t *testing.T) {
	box, err := NewBoundingBox(10, 20, 40, 60)
	require.NoError(t, err)
	assert.Equal(t, BoundingBox{ULX: 10, ULY: 20, Width: 30, Height: 40}, box)
	assert.Equal(t, float64(40), box.XMax())
	assert.Equal(t, float64(60), box.YMax())
	assert.Equal(t, float64(1200), box.Area())
}

func TestNewBoundingBoxRejectsDegenerate(t *testing.T) {
	_, err := NewBoundingBox(10, 20, 10, 60)
	require.Error(t, err)
	_, err = NewBoundingBox(-1, 0, 10, 10)
	require.Error(t, err)
}

func TestImageValidation(t *testing.T) {
	_, err := NewImage("page.png", 0, 300)
	require.Error(t, err)

	im, err := NewImage("page.png", 200, 300)
	require.NoError(t, err)

	err = im.AddAnnotation(Annotation{Box: BoundingBox{ULX: 1, ULY: 1, Width: 2, Height: 2}})
	require.Error(t, err, "category name is required")

	require.NoError(t, im.AddAnnotation(Annotation{
		CategoryName: CategoryTable,
		Box:          BoundingBox{ULX: 1, ULY: 1, Width: 2, Height: 2},
	}))
	assert.Len(t, im.Annotations, 1)
}
