package tokenclass

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/doclens/doclens/infer"
)

// OrtModelConfig wraps the encoder configuration plus prediction caching.
type OrtModelConfig struct {
	Encoder  infer.Config `json:"encoder"`
	CacheDir string       `json:"cacheDir"`
	ModelID  string       `json:"modelId"`
}

// OrtModel is a thin wrapper over infer.Encoder with caching of per-sequence
// predictions.
type OrtModel struct {
	enc      *infer.Encoder
	cfg      OrtModelConfig
	memCache map[string][]Result
	mu       sync.RWMutex
}

var _ Model = (*OrtModel)(nil)

// NewOrtModel initializes the encoder and prepares cache directories.
func NewOrtModel(cfg OrtModelConfig) (*OrtModel, error) {
	if cfg.ModelID == "" && cfg.Encoder.ModelPath != "" {
		cfg.ModelID = filepath.Base(cfg.Encoder.ModelPath)
	}
	if cfg.CacheDir != "" {
		if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	encoder := &infer.Encoder{}
	if err := encoder.Init(cfg.Encoder); err != nil {
		return nil, err
	}
	return &OrtModel{
		enc:      encoder,
		cfg:      cfg,
		memCache: make(map[string][]Result),
	}, nil
}

// Close releases ORT resources.
func (o *OrtModel) Close() error {
	if o == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.enc != nil {
		o.enc.Close()
		o.enc = nil
	}
	o.memCache = nil
	return nil
}

// ModelID returns the identifier used for cache keys.
func (o *OrtModel) ModelID() string { return o.cfg.ModelID }

// PredictClasses runs the classification head over one sequence, consulting
// the memory and disk caches first. Returned results carry only the raw
// prediction fields.
func (o *OrtModel) PredictClasses(_ context.Context, enc Encodings) ([]Result, error) {
	if o == nil || o.enc == nil {
		return nil, fmt.Errorf("tokenclass: model is not initialized")
	}
	key := o.cacheKey(enc.InputIDs)
	if results := o.getFromCache(key); results != nil {
		return attachTokens(results, enc), nil
	}
	if results, err := o.loadFromDisk(key); err == nil {
		o.storeInMemory(key, results)
		return attachTokens(cloneResults(results), enc), nil
	}
	ids, scores, err := o.enc.Predict(enc.InputIDs, enc.AttentionMask, enc.TokenTypeIDs, enc.Boxes)
	if err != nil {
		return nil, err
	}
	results := make([]Result, len(ids))
	for i, id := range ids {
		results[i] = Result{ClassID: id, Score: scores[i]}
	}
	o.storeInMemory(key, results)
	_ = o.saveToDisk(key, results)
	return attachTokens(cloneResults(results), enc), nil
}

// attachTokens copies the token strings and boxes from the encodings onto
// the raw predictions. Cached entries only persist class ids and scores.
func attachTokens(results []Result, enc Encodings) []Result {
	for i := range results {
		if i < len(enc.Tokens) {
			results[i].Token = enc.Tokens[i]
		}
		if i < len(enc.Boxes) {
			results[i].Box = enc.Boxes[i]
		}
	}
	return results
}

func (o *OrtModel) cacheKey(inputIDs []int64) string {
	h := sha1.New()
	_, _ = h.Write([]byte(o.cfg.ModelID))
	_, _ = h.Write([]byte("|"))
	buf := make([]byte, 8)
	for _, id := range inputIDs {
		binary.LittleEndian.PutUint64(buf, uint64(id))
		_, _ = h.Write(buf)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (o *OrtModel) getFromCache(key string) []Result {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if results, ok := o.memCache[key]; ok {
		return cloneResults(results)
	}
	return nil
}

func (o *OrtModel) storeInMemory(key string, results []Result) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.memCache != nil {
		o.memCache[key] = cloneResults(results)
	}
}

func (o *OrtModel) loadFromDisk(key string) ([]Result, error) {
	if o.cfg.CacheDir == "" {
		return nil, os.ErrNotExist
	}
	path := filepath.Join(o.cfg.CacheDir, key+".bin")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("cache file too small: %s", path)
	}
	length := int(binary.LittleEndian.Uint32(data[:4]))
	data = data[4:]
	if len(data) != length*8 {
		return nil, fmt.Errorf("cache length mismatch: %s", path)
	}
	results := make([]Result, length)
	for i := 0; i < length; i++ {
		off := i * 8
		results[i].ClassID = int(int32(binary.LittleEndian.Uint32(data[off : off+4])))
		results[i].Score = math.Float32frombits(binary.LittleEndian.Uint32(data[off+4 : off+8]))
	}
	return results, nil
}

func (o *OrtModel) saveToDisk(key string, results []Result) error {
	if o.cfg.CacheDir == "" {
		return nil
	}
	path := filepath.Join(o.cfg.CacheDir, key+".bin")
	tmp := path + ".tmp"
	buf := make([]byte, 4+len(results)*8)
	binary.LittleEndian.PutUint32(buf[:4], uint32(len(results)))
	off := 4
	for _, r := range results {
		binary.LittleEndian.PutUint32(buf[off:off+4], uint32(int32(r.ClassID)))
		binary.LittleEndian.PutUint32(buf[off+4:off+8], math.Float32bits(r.Score))
		off += 8
	}
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func cloneResults(results []Result) []Result {
	out := make([]Result, len(results))
	copy(out, results)
	return out
}
