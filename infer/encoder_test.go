package infer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeLogits(t *testing.T) {
	// Two tokens, three classes.
	logits := []float32{
		0.1, 2.0, 0.1,
		3.0, 0.5, 0.5,
	}
	ids, scores, err := decodeLogits(logits, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, ids)
	require.Len(t, scores, 2)
	for _, s := range scores {
		assert.Greater(t, s, float32(0))
		assert.LessOrEqual(t, s, float32(1))
	}
	// The dominant logit keeps most of the mass.
	assert.Greater(t, scores[1], float32(0.7))
}

func TestDecodeLogitsShapeMismatch(t *testing.T) {
	_, _, err := decodeLogits([]float32{1, 2, 3}, 2, 3)
	require.Error(t, err)
}

func TestInitRequiresArtifacts(t *testing.T) {
	var enc Encoder
	err := enc.Init(Config{TokenizerPath: "tok.json", NumClasses: 13})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model path")

	err = enc.Init(Config{ModelPath: "model.onnx", NumClasses: 13})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tokenizer path")

	err = enc.Init(Config{ModelPath: "model.onnx", TokenizerPath: "tok.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "classes")
}

func TestPredictRequiresInit(t *testing.T) {
	var enc Encoder
	_, _, err := enc.Predict([]int64{1}, []int64{1}, []int64{0}, [][]int64{{0, 0, 1, 1}})
	require.Error(t, err)
}

func TestAvailable(t *testing.T) {
	assert.False(t, Available(Config{}))
	assert.False(t, Available(Config{ModelPath: "nope.onnx", TokenizerPath: "nope.json"}))

	dir := t.TempDir()
	model := filepath.Join(dir, "model.onnx")
	tok := filepath.Join(dir, "tokenizer.json")
	writeFile(t, model)
	writeFile(t, tok)
	assert.True(t, Available(Config{ModelPath: model, TokenizerPath: tok}))
	assert.False(t, Available(Config{ModelPath: model, TokenizerPath: tok, OrtDLL: filepath.Join(dir, "missing.so")}))
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("stub"), 0o644))
}
