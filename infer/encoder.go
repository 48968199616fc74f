// Package infer wraps an ONNX Runtime session and a HuggingFace tokenizer
// behind the small surface the token classifier needs.
package infer

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

// Config locates the runtime, model and tokenizer artifacts.
type Config struct {
	// OrtDLL is the path to the onnxruntime shared library. Empty means the
	// platform default lookup.
	OrtDLL        string `json:"ortDll"`
	ModelPath     string `json:"modelPath"`
	TokenizerPath string `json:"tokenizerPath"`
	MaxSeqLen     int    `json:"maxSeqLen"`
	// NumClasses is the size of the classification head.
	NumClasses int `json:"numClasses"`
}

// Model graph names for LayoutLM-style token classification exports.
var (
	inputNames = []string{"input_ids", "bbox", "attention_mask", "token_type_ids"}
	outputName = "logits"
)

// Special-token boxes per the LayoutLM input convention.
var (
	clsBox = []int64{0, 0, 0, 0}
	sepBox = []int64{1000, 1000, 1000, 1000}
)

// Encoded is a single tokenized sequence ready for inference.
type Encoded struct {
	InputIDs      []int64
	AttentionMask []int64
	TokenTypeIDs  []int64
	Boxes         [][]int64
	Tokens        []string
}

// Encoder owns the ONNX session and tokenizer. Init before use, Close when
// done.
type Encoder struct {
	mu      sync.Mutex
	cfg     Config
	session *ort.DynamicAdvancedSession
	tk      *tokenizer.Tokenizer
}

// Init loads the tokenizer and creates the inference session.
func (e *Encoder) Init(cfg Config) error {
	if cfg.ModelPath == "" {
		return errors.New("infer: model path is required")
	}
	if cfg.TokenizerPath == "" {
		return errors.New("infer: tokenizer path is required")
	}
	if cfg.MaxSeqLen <= 0 {
		cfg.MaxSeqLen = 512
	}
	if cfg.NumClasses <= 0 {
		return errors.New("infer: number of classes is required")
	}
	tk, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return fmt.Errorf("load tokenizer %s: %w", cfg.TokenizerPath, err)
	}
	if cfg.OrtDLL != "" {
		ort.SetSharedLibraryPath(cfg.OrtDLL)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}
	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, inputNames, []string{outputName}, nil)
	if err != nil {
		return fmt.Errorf("open model %s: %w", cfg.ModelPath, err)
	}
	e.cfg = cfg
	e.tk = tk
	e.session = session
	return nil
}

// Close releases the session. The shared environment stays up for other
// encoders in the process.
func (e *Encoder) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != nil {
		_ = e.session.Destroy()
		e.session = nil
	}
	e.tk = nil
}

// Config returns the configuration the encoder was initialized with.
func (e *Encoder) Config() Config { return e.cfg }

// EncodeWords wordpiece-encodes pre-tokenized document words, repeating each
// word's bounding box for its sub-tokens and framing the sequence with the
// classifier's special tokens. wordBoxes holds one xyxy box per word.
func (e *Encoder) EncodeWords(words []string, wordBoxes [][]int64) (Encoded, error) {
	if e.tk == nil {
		return Encoded{}, errors.New("infer: encoder is not initialized")
	}
	if len(words) != len(wordBoxes) {
		return Encoded{}, fmt.Errorf("infer: %d words but %d boxes", len(words), len(wordBoxes))
	}
	clsID, ok := e.tk.TokenToId("[CLS]")
	if !ok {
		return Encoded{}, errors.New("infer: tokenizer has no [CLS] token")
	}
	sepID, ok := e.tk.TokenToId("[SEP]")
	if !ok {
		return Encoded{}, errors.New("infer: tokenizer has no [SEP] token")
	}

	out := Encoded{
		InputIDs: []int64{int64(clsID)},
		Boxes:    [][]int64{clsBox},
		Tokens:   []string{"[CLS]"},
	}
	// Reserve room for the trailing [SEP].
	budget := e.cfg.MaxSeqLen - 1
	for i, word := range words {
		if len(wordBoxes[i]) != 4 {
			return Encoded{}, fmt.Errorf("infer: word %d box has %d coordinates, want 4", i, len(wordBoxes[i]))
		}
		enc, err := e.tk.EncodeSingle(word, false)
		if err != nil {
			return Encoded{}, fmt.Errorf("encode word %q: %w", word, err)
		}
		for j, id := range enc.Ids {
			if len(out.InputIDs) >= budget {
				break
			}
			out.InputIDs = append(out.InputIDs, int64(id))
			out.Boxes = append(out.Boxes, wordBoxes[i])
			out.Tokens = append(out.Tokens, enc.Tokens[j])
		}
	}
	out.InputIDs = append(out.InputIDs, int64(sepID))
	out.Boxes = append(out.Boxes, sepBox)
	out.Tokens = append(out.Tokens, "[SEP]")

	n := len(out.InputIDs)
	out.AttentionMask = make([]int64, n)
	out.TokenTypeIDs = make([]int64, n)
	for i := range out.AttentionMask {
		out.AttentionMask[i] = 1
	}
	return out, nil
}

// Predict runs the classification head over one sequence and returns the
// argmax class id and its softmax probability per token.
func (e *Encoder) Predict(inputIDs, attentionMask, tokenTypeIDs []int64, boxes [][]int64) ([]int, []float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil, nil, errors.New("infer: encoder is not initialized")
	}
	n := len(inputIDs)
	if n == 0 {
		return nil, nil, errors.New("infer: empty input sequence")
	}
	if len(attentionMask) != n || len(tokenTypeIDs) != n || len(boxes) != n {
		return nil, nil, fmt.Errorf("infer: input lengths disagree (%d ids, %d mask, %d types, %d boxes)",
			n, len(attentionMask), len(tokenTypeIDs), len(boxes))
	}
	flatBoxes := make([]int64, 0, n*4)
	for i, box := range boxes {
		if len(box) != 4 {
			return nil, nil, fmt.Errorf("infer: box %d has %d coordinates, want 4", i, len(box))
		}
		flatBoxes = append(flatBoxes, box...)
	}

	seq := ort.NewShape(1, int64(n))
	idsTensor, err := ort.NewTensor(seq, inputIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("input_ids tensor: %w", err)
	}
	defer idsTensor.Destroy()
	boxTensor, err := ort.NewTensor(ort.NewShape(1, int64(n), 4), flatBoxes)
	if err != nil {
		return nil, nil, fmt.Errorf("bbox tensor: %w", err)
	}
	defer boxTensor.Destroy()
	maskTensor, err := ort.NewTensor(seq, attentionMask)
	if err != nil {
		return nil, nil, fmt.Errorf("attention_mask tensor: %w", err)
	}
	defer maskTensor.Destroy()
	typeTensor, err := ort.NewTensor(seq, tokenTypeIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("token_type_ids tensor: %w", err)
	}
	defer typeTensor.Destroy()
	logitsTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(n), int64(e.cfg.NumClasses)))
	if err != nil {
		return nil, nil, fmt.Errorf("logits tensor: %w", err)
	}
	defer logitsTensor.Destroy()

	err = e.session.Run(
		[]ort.Value{idsTensor, boxTensor, maskTensor, typeTensor},
		[]ort.Value{logitsTensor},
	)
	if err != nil {
		return nil, nil, fmt.Errorf("run inference: %w", err)
	}
	return decodeLogits(logitsTensor.GetData(), n, e.cfg.NumClasses)
}

// decodeLogits reduces a (tokens × classes) logit matrix to per-token argmax
// ids and softmax probabilities.
func decodeLogits(logits []float32, tokens, classes int) ([]int, []float32, error) {
	if len(logits) != tokens*classes {
		return nil, nil, fmt.Errorf("infer: got %d logits, want %d", len(logits), tokens*classes)
	}
	ids := make([]int, tokens)
	scores := make([]float32, tokens)
	for t := 0; t < tokens; t++ {
		row := logits[t*classes : (t+1)*classes]
		best := 0
		for c := 1; c < classes; c++ {
			if row[c] > row[best] {
				best = c
			}
		}
		var denom float64
		for _, v := range row {
			denom += math.Exp(float64(v - row[best]))
		}
		ids[t] = best
		scores[t] = float32(1 / denom)
	}
	return ids, scores, nil
}
