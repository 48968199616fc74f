package infer

import "os"

// Available reports whether the runtime artifacts the encoder needs are
// present. Callers check this once at startup and pass the result down
// instead of probing again later.
func Available(cfg Config) bool {
	if cfg.ModelPath == "" || cfg.TokenizerPath == "" {
		return false
	}
	paths := []string{cfg.ModelPath, cfg.TokenizerPath}
	if cfg.OrtDLL != "" {
		paths = append(paths, cfg.OrtDLL)
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}
