package tokenclass

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/doclens/doclens/labelmap"
)

const defaultConfigFile = "config.json"

// Config aggregates runtime settings persisted to config.json.
type Config struct {
	// CategoriesSemantics and CategoriesBio define the label vocabulary of
	// the classification head. SemanticOther entries are reserved.
	CategoriesSemantics []string       `json:"categoriesSemantics"`
	CategoriesBio       []string       `json:"categoriesBio"`
	Model               OrtModelConfig `json:"model"`
}

// Clone creates a deep copy of the configuration so callers can mutate safely.
func (c Config) Clone() Config {
	buf, _ := json.Marshal(c)
	var out Config
	_ = json.Unmarshal(buf, &out)
	return out
}

// ApplyDefaults populates zero values with the FUNSD-style vocabulary the
// pretrained head was trained on.
func (c *Config) ApplyDefaults() {
	if len(c.CategoriesSemantics) == 0 {
		c.CategoriesSemantics = []string{"ANSWER", "HEADER", "QUESTION", "OTHER"}
	}
	if len(c.CategoriesBio) == 0 {
		c.CategoriesBio = []string{"B", "E", "I", "O", "S"}
	}
	if c.Model.Encoder.MaxSeqLen == 0 {
		c.Model.Encoder.MaxSeqLen = 512
	}
	if c.Model.Encoder.NumClasses == 0 {
		// Filtered cross product plus the outside label.
		n := 0
		for _, semantic := range c.CategoriesSemantics {
			if semantic != labelmap.SemanticOther {
				n++
			}
		}
		bio := 0
		for _, tag := range c.CategoriesBio {
			if tag != labelmap.OutsideLabel {
				bio++
			}
		}
		c.Model.Encoder.NumClasses = n*bio + 1
	}
}

// LoadConfig loads configuration from the given path or the default
// config.json. A missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = defaultConfigFile
	}
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.ApplyDefaults()
	if cfg.Model.CacheDir != "" {
		if err := os.MkdirAll(cfg.Model.CacheDir, 0o755); err != nil {
			return cfg, fmt.Errorf("create cache dir: %w", err)
		}
	}
	return cfg, nil
}

// SaveConfig persists configuration to disk.
func SaveConfig(path string, cfg Config) error {
	if path == "" {
		path = defaultConfigFile
	}
	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	cfg.ApplyDefaults()
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
