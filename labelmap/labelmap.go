// Package labelmap builds the index→label vocabulary used by pretrained
// token-classification heads and derives the semantic and BIO parts of a
// predicted class name.
package labelmap

import (
	"fmt"
	"strings"
)

const (
	// OutsideLabel marks tokens that belong to no entity span.
	OutsideLabel = "O"
	// SemanticOther is the reserved semantic value meaning "not a category".
	SemanticOther = "OTHER"
	// outsidePosition is where the pretrained FUNSD-style vocabulary places
	// the outside label. It is a fixed convention of the target model, not
	// derived from the input lists.
	outsidePosition = 9

	separator = "-"
)

// Table maps a dense non-negative class index to its composite label name.
// Built once, immutable afterwards.
type Table struct {
	names []string
}

// Build forms the cross product {bio}-{semantic}, drops pairs whose semantic
// is SemanticOther, drops labels carrying the outside prefix, and inserts
// OutsideLabel at the vocabulary's fixed outside position. Inputs whose
// filtered product is too short to reach that position are rejected instead
// of silently misplacing the outside label.
func Build(bioTags, semanticCategories []string) (Table, error) {
	if len(bioTags) == 0 {
		return Table{}, fmt.Errorf("labelmap: no BIO tags supplied")
	}
	if len(semanticCategories) == 0 {
		return Table{}, fmt.Errorf("labelmap: no semantic categories supplied")
	}
	names := make([]string, 0, len(bioTags)*len(semanticCategories)+1)
	for _, bio := range bioTags {
		for _, semantic := range semanticCategories {
			if semantic == SemanticOther {
				continue
			}
			name := bio + separator + semantic
			if strings.HasPrefix(name, OutsideLabel) {
				continue
			}
			names = append(names, name)
		}
	}
	if len(names) < outsidePosition {
		return Table{}, fmt.Errorf(
			"labelmap: filtered label product has %d entries, need at least %d to place %q",
			len(names), outsidePosition, OutsideLabel)
	}
	names = append(names, "")
	copy(names[outsidePosition+1:], names[outsidePosition:])
	names[outsidePosition] = OutsideLabel
	return Table{names: names}, nil
}

// Name resolves a predicted class id. An unknown id means the configured
// label lists do not match the model head and is reported as such.
func (t Table) Name(id int) (string, error) {
	if id < 0 || id >= len(t.names) {
		return "", fmt.Errorf("labelmap: class id %d outside table of %d labels (model/vocabulary mismatch)", id, len(t.names))
	}
	return t.names[id], nil
}

// Len returns the vocabulary size.
func (t Table) Len() int { return len(t.names) }

// Names returns a copy of the ordered label list.
func (t Table) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// SemanticName extracts the part of a class name before the separator. Class
// names without a separator (the outside label) yield SemanticOther.
func SemanticName(className string) string {
	if i := strings.Index(className, separator); i >= 0 {
		return className[:i]
	}
	return SemanticOther
}

// BioTag extracts the part of a class name after the separator. The source
// vocabulary gates this on a lowercase "i" in the class name; anything else
// yields OutsideLabel.
func BioTag(className string) string {
	if !strings.Contains(className, "i") {
		return OutsideLabel
	}
	if i := strings.Index(className, separator); i >= 0 {
		return className[i+1:]
	}
	return OutsideLabel
}
