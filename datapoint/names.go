package datapoint

// Canonical category names used by the built-in document datasets.
const (
	CategoryTable        = "table"
	CategoryFigure       = "figure"
	CategoryLogo         = "logo"
	CategorySignature    = "signature"
	CategoryNaturalImage = "natural_image"
)
