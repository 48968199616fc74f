package mapper

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doclens/doclens/datapoint"
)

const annualReportRecord = `{
  "filename": "ar_2017_page_4.png",
  "width": 200,
  "height": 300,
  "objects": [
    {"name": "table", "xmin": 10.0, "ymin": 20.0, "xmax": 40.0, "ymax": 60.0}
  ]
}`

func annualReportCategories() map[string]string {
	return map[string]string{
		datapoint.CategoryTable:     "1",
		datapoint.CategoryLogo:      "2",
		datapoint.CategoryFigure:    "3",
		datapoint.CategorySignature: "4",
	}
}

func annualReportNameMapping() map[string]string {
	return map[string]string{
		datapoint.CategoryNaturalImage: datapoint.CategoryFigure,
		datapoint.CategoryFigure:       datapoint.CategoryFigure,
		datapoint.CategoryLogo:         datapoint.CategoryLogo,
		datapoint.CategorySignature:    datapoint.CategorySignature,
		datapoint.CategoryTable:        datapoint.CategoryTable,
	}
}

func decodeRecord(t *testing.T, raw string) Record {
	t.Helper()
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	return rec
}

func TestMapAnnualReportRecord(t *testing.T) {
	m := New(annualReportCategories(), Options{}, annualReportNameMapping())
	// Mapping must not touch the filesystem.
	m.SetImageLoader(func(string) ([]byte, error) {
		t.Fatal("image loader must not be called")
		return nil, nil
	})

	dp, err := m.Map(decodeRecord(t, annualReportRecord))
	require.NoError(t, err)
	require.NotNil(t, dp)

	anns := dp.Annotations
	require.Len(t, anns, 1)
	assert.Equal(t, float64(200), dp.Width)
	assert.Equal(t, float64(300), dp.Height)
	assert.Equal(t, datapoint.CategoryTable, anns[0].CategoryName)
	assert.InEpsilon(t, 10.0, anns[0].Box.ULX, 1e-15)
	assert.InEpsilon(t, 20.0, anns[0].Box.ULY, 1e-15)
	assert.InEpsilon(t, 30.0, anns[0].Box.Width, 1e-15)
	assert.InEpsilon(t, 40.0, anns[0].Box.Height, 1e-15)
}

func TestMapAppliesNameMapping(t *testing.T) {
	rec := decodeRecord(t, annualReportRecord)
	rec.Objects[0].Name = "Natural_Image"

	m := New(annualReportCategories(), Options{}, annualReportNameMapping())
	dp, err := m.Map(rec)
	require.NoError(t, err)
	require.Len(t, dp.Annotations, 1)
	assert.Equal(t, datapoint.CategoryFigure, dp.Annotations[0].CategoryName)
	assert.Equal(t, "3", dp.Annotations[0].CategoryID)
}

func TestMapSkipsUnknownCategories(t *testing.T) {
	rec := decodeRecord(t, annualReportRecord)
	rec.Objects[0].Name = "watermark"

	m := New(annualReportCategories(), Options{}, annualReportNameMapping())
	dp, err := m.Map(rec)
	require.NoError(t, err)
	assert.Empty(t, dp.Annotations)
}

func TestMapFakeScore(t *testing.T) {
	m := New(annualReportCategories(), Options{FakeScore: true}, annualReportNameMapping())
	dp, err := m.Map(decodeRecord(t, annualReportRecord))
	require.NoError(t, err)
	require.Len(t, dp.Annotations, 1)
	score := dp.Annotations[0].Score
	assert.GreaterOrEqual(t, score, float32(0))
	assert.Less(t, score, float32(1))
}

func TestMapFilterEmptyImage(t *testing.T) {
	m := New(annualReportCategories(), Options{LoadImage: true, FilterEmptyImage: true}, annualReportNameMapping())
	m.SetImageLoader(func(string) ([]byte, error) {
		return nil, errors.New("image missing")
	})

	dp, err := m.Map(decodeRecord(t, annualReportRecord))
	require.NoError(t, err)
	assert.Nil(t, dp)
}

func TestMapLoadImageFailureIsFatalWithoutFilter(t *testing.T) {
	m := New(annualReportCategories(), Options{LoadImage: true}, annualReportNameMapping())
	m.SetImageLoader(func(string) ([]byte, error) {
		return nil, errors.New("image missing")
	})

	_, err := m.Map(decodeRecord(t, annualReportRecord))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load image")
}

func TestMapRejectsDegenerateBoxes(t *testing.T) {
	rec := decodeRecord(t, annualReportRecord)
	rec.Objects[0].XMax = rec.Objects[0].XMin

	m := New(annualReportCategories(), Options{}, annualReportNameMapping())
	_, err := m.Map(rec)
	require.Error(t, err)
}
