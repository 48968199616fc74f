package tokenclass

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	assert.Equal(t, []string{"ANSWER", "HEADER", "QUESTION", "OTHER"}, cfg.CategoriesSemantics)
	assert.Equal(t, []string{"B", "E", "I", "O", "S"}, cfg.CategoriesBio)
	assert.Equal(t, 512, cfg.Model.Encoder.MaxSeqLen)
	// 3 semantics × 4 BIO tags + the outside label.
	assert.Equal(t, 13, cfg.Model.Encoder.NumClasses)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "config.json")
	cfg := Config{
		CategoriesSemantics: []string{"TITLE", "BODY", "OTHER"},
		CategoriesBio:       []string{"B", "E", "I", "O", "S"},
	}
	cfg.Model.Encoder.ModelPath = "models/layout.onnx"
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.CategoriesSemantics, loaded.CategoriesSemantics)
	assert.Equal(t, "models/layout.onnx", loaded.Model.Encoder.ModelPath)
	assert.Equal(t, 9, loaded.Model.Encoder.NumClasses)
}

func TestLoadConfigRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o644))
	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestConfigClone(t *testing.T) {
	cfg := Config{CategoriesSemantics: []string{"A", "OTHER"}}
	clone := cfg.Clone()
	clone.CategoriesSemantics[0] = "B"
	assert.Equal(t, "A", cfg.CategoriesSemantics[0])
}
