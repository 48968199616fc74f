// Package tokenclass classifies document tokens with a pretrained
// sequence-labeling model and decorates the raw class predictions with the
// domain label scheme.
package tokenclass

import (
	"fmt"
	"strings"
)

// Result is the per-token output of the classifier. ClassID comes from the
// model; ClassName, SemanticName and BioTag are derived during decoration.
type Result struct {
	Token        string  `json:"token"`
	ClassID      int     `json:"classId"`
	ClassName    string  `json:"className"`
	SemanticName string  `json:"semanticName"`
	BioTag       string  `json:"bioTag"`
	Score        float32 `json:"score"`
	// Box is the token's xyxy bounding box on the page.
	Box []int64 `json:"box,omitempty"`
}

// Encodings is one tokenized sequence plus its page geometry, as produced by
// an upstream tokenizer. All five sequence fields are required.
type Encodings struct {
	ImageID       string    `json:"imageId"`
	InputIDs      []int64   `json:"inputIds"`
	AttentionMask []int64   `json:"attentionMask"`
	TokenTypeIDs  []int64   `json:"tokenTypeIds"`
	Boxes         [][]int64 `json:"boxes"`
	Tokens        []string  `json:"tokens"`
}

// Validate fails fast when a required field is missing or the sequence
// lengths disagree, before any inference is attempted.
func (e Encodings) Validate() error {
	var missing []string
	if len(e.InputIDs) == 0 {
		missing = append(missing, "input_ids")
	}
	if len(e.AttentionMask) == 0 {
		missing = append(missing, "attention_mask")
	}
	if len(e.TokenTypeIDs) == 0 {
		missing = append(missing, "token_type_ids")
	}
	if len(e.Boxes) == 0 {
		missing = append(missing, "boxes")
	}
	if len(e.Tokens) == 0 {
		missing = append(missing, "tokens")
	}
	if len(missing) > 0 {
		return fmt.Errorf("encodings missing required fields: %s", strings.Join(missing, ", "))
	}
	n := len(e.InputIDs)
	if len(e.AttentionMask) != n || len(e.TokenTypeIDs) != n || len(e.Boxes) != n || len(e.Tokens) != n {
		return fmt.Errorf("encodings lengths disagree: %d ids, %d mask, %d types, %d boxes, %d tokens",
			n, len(e.AttentionMask), len(e.TokenTypeIDs), len(e.Boxes), len(e.Tokens))
	}
	return nil
}
