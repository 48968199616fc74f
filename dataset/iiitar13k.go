package dataset

import (
	"log"

	"github.com/doclens/doclens/datapoint"
)

// IIITar13KInfo describes the IIIT-AR-13K dataset of annotated annual-report
// pages (tables, figures, logos, signatures).
func IIITar13KInfo() Info {
	return Info{
		Name: "iiitar13k",
		Description: "IIIT-AR-13K: 13K manually annotated annual report pages with " +
			"graphical objects in five categories (table, figure, natural image, logo, signature).",
		License: "NN",
		URL:     "http://cvit.iiit.ac.in/usodi/iiitar13k.php",
		Splits: map[Split]string{
			SplitTrain: "training_xml",
			SplitVal:   "validation_xml",
			SplitTest:  "test_xml",
		},
		Categories: iiitar13kCategories(),
	}
}

func iiitar13kCategories() map[string]string {
	return map[string]string{
		datapoint.CategoryTable:     "1",
		datapoint.CategoryLogo:      "2",
		datapoint.CategoryFigure:    "3",
		datapoint.CategorySignature: "4",
	}
}

// IIITar13KNameMapping folds the raw annotation labels onto the canonical
// category names.
func IIITar13KNameMapping() map[string]string {
	return map[string]string{
		datapoint.CategoryNaturalImage: datapoint.CategoryFigure,
		datapoint.CategoryFigure:       datapoint.CategoryFigure,
		datapoint.CategoryLogo:         datapoint.CategoryLogo,
		datapoint.CategorySignature:    datapoint.CategorySignature,
		datapoint.CategoryTable:        datapoint.CategoryTable,
	}
}

// NewIIITar13KBuilder wires the dataset's split layout and category mapping
// into a Builder rooted at workdir.
func NewIIITar13KBuilder(workdir string, logger *log.Logger) (*Builder, error) {
	info := IIITar13KInfo()
	return NewBuilder(workdir, info.Splits, info.Categories, IIITar13KNameMapping(), logger)
}
