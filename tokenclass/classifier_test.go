package tokenclass

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doclens/doclens/labelmap"
)

var (
	funsdSemantics = []string{"ANSWER", "HEADER", "QUESTION", "OTHER"}
	funsdBioTags   = []string{"B", "E", "I", "O", "S"}
)

type stubModel struct {
	classIDs []int
	err      error
	closed   bool
}

func (s *stubModel) PredictClasses(_ context.Context, enc Encodings) ([]Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	results := make([]Result, len(s.classIDs))
	for i, id := range s.classIDs {
		results[i] = Result{ClassID: id, Score: 0.9, Token: enc.Tokens[i]}
	}
	return results, nil
}

func (s *stubModel) Close() error {
	s.closed = true
	return nil
}

func validEncodings(n int) Encodings {
	enc := Encodings{ImageID: "page_1"}
	for i := 0; i < n; i++ {
		enc.InputIDs = append(enc.InputIDs, int64(100+i))
		enc.AttentionMask = append(enc.AttentionMask, 1)
		enc.TokenTypeIDs = append(enc.TokenTypeIDs, 0)
		enc.Boxes = append(enc.Boxes, []int64{0, 0, 10, 10})
		enc.Tokens = append(enc.Tokens, "tok")
	}
	return enc
}

func TestPredictDecoratesResults(t *testing.T) {
	model := &stubModel{classIDs: []int{0, 9, 1}}
	c, err := NewClassifier(model, funsdSemantics, funsdBioTags, nil)
	require.NoError(t, err)

	results, err := c.Predict(context.Background(), validEncodings(3))
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "B-ANSWER", results[0].ClassName)
	assert.Equal(t, "B", results[0].SemanticName)
	assert.Equal(t, labelmap.OutsideLabel, results[0].BioTag)

	assert.Equal(t, labelmap.OutsideLabel, results[1].ClassName)
	assert.Equal(t, labelmap.SemanticOther, results[1].SemanticName)
	assert.Equal(t, labelmap.OutsideLabel, results[1].BioTag)

	assert.Equal(t, "B-HEADER", results[2].ClassName)
}

func TestDecorateIsIdempotent(t *testing.T) {
	c, err := NewClassifier(&stubModel{}, funsdSemantics, funsdBioTags, nil)
	require.NoError(t, err)

	results := []Result{{ClassID: 6}, {ClassID: 9}}
	require.NoError(t, c.Decorate(results))
	first := append([]Result(nil), results...)
	require.NoError(t, c.Decorate(results))
	assert.Equal(t, first, results)
}

func TestDecorateMutatesInPlace(t *testing.T) {
	model := &stubModel{classIDs: []int{4}}
	c, err := NewClassifier(model, funsdSemantics, funsdBioTags, nil)
	require.NoError(t, err)

	results := []Result{{ClassID: 4}}
	require.NoError(t, c.Decorate(results))
	assert.Equal(t, "E-HEADER", results[0].ClassName)
}

func TestDecorateRejectsUnknownClassID(t *testing.T) {
	c, err := NewClassifier(&stubModel{}, funsdSemantics, funsdBioTags, nil)
	require.NoError(t, err)

	err = c.Decorate([]Result{{ClassID: 99}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch")
}

func TestPredictValidatesEncodings(t *testing.T) {
	c, err := NewClassifier(&stubModel{}, funsdSemantics, funsdBioTags, nil)
	require.NoError(t, err)

	enc := validEncodings(2)
	enc.Boxes = nil
	_, err = c.Predict(context.Background(), enc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boxes")

	enc = validEncodings(2)
	enc.Tokens = enc.Tokens[:1]
	_, err = c.Predict(context.Background(), enc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disagree")
}

func TestPredictPropagatesModelError(t *testing.T) {
	wantErr := errors.New("session exploded")
	c, err := NewClassifier(&stubModel{err: wantErr}, funsdSemantics, funsdBioTags, nil)
	require.NoError(t, err)

	_, err = c.Predict(context.Background(), validEncodings(1))
	require.ErrorIs(t, err, wantErr)
}

func TestNewClassifierRejectsBadVocabulary(t *testing.T) {
	_, err := NewClassifier(&stubModel{}, []string{"HEADER", "OTHER"}, []string{"B", "I"}, nil)
	require.Error(t, err)

	_, err = NewClassifier(nil, funsdSemantics, funsdBioTags, nil)
	require.Error(t, err)
}

func TestCloseClosesModel(t *testing.T) {
	model := &stubModel{}
	c, err := NewClassifier(model, funsdSemantics, funsdBioTags, nil)
	require.NoError(t, err)
	require.NoError(t, c.Close())
	assert.True(t, model.closed)
}

func TestEncodingsValidateListsAllMissing(t *testing.T) {
	err := Encodings{}.Validate()
	require.Error(t, err)
	for _, field := range []string{"input_ids", "attention_mask", "token_type_ids", "boxes", "tokens"} {
		assert.Contains(t, err.Error(), field)
	}
}
