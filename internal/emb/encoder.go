// Package emb turns text into sentence embeddings with an ONNX encoder model
// and a Hugging Face tokenizer.json.
package emb

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

const (
	inputIDs      = "input_ids"
	attentionMask = "attention_mask"
	tokenTypeIDs  = "token_type_ids"
)

// Config locates the runtime library, model and tokenizer.
type Config struct {
	OrtDLL        string
	ModelPath     string
	TokenizerPath string
	MaxSeqLen     int
}

// Encoder produces L2-normalized, mean-pooled sentence embeddings.
// Encode calls are serialized; the session is not shared between encoders.
type Encoder struct {
	mu         sync.Mutex
	tk         *tokenizer.Tokenizer
	session    *ort.DynamicAdvancedSession
	inputNames []string
	maxSeqLen  int
}

var envMu sync.Mutex

// Init loads the tokenizer and creates an inference session.
func (e *Encoder) Init(cfg Config) error {
	if cfg.ModelPath == "" {
		return errors.New("model path is required")
	}
	if cfg.TokenizerPath == "" {
		return errors.New("tokenizer path is required")
	}
	if err := initEnvironment(cfg.OrtDLL); err != nil {
		return err
	}
	tk, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return fmt.Errorf("load tokenizer: %w", err)
	}
	inputs, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return fmt.Errorf("inspect model: %w", err)
	}
	if len(outputs) == 0 {
		return errors.New("model has no outputs")
	}
	inputNames := make([]string, 0, len(inputs))
	for _, in := range inputs {
		switch in.Name {
		case inputIDs, attentionMask, tokenTypeIDs:
			inputNames = append(inputNames, in.Name)
		default:
			return fmt.Errorf("unsupported model input %q", in.Name)
		}
	}
	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, inputNames, []string{outputs[0].Name}, nil)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	maxSeqLen := cfg.MaxSeqLen
	if maxSeqLen <= 0 {
		maxSeqLen = 512
	}
	e.tk = tk
	e.session = session
	e.inputNames = inputNames
	e.maxSeqLen = maxSeqLen
	return nil
}

func initEnvironment(libPath string) error {
	envMu.Lock()
	defer envMu.Unlock()
	if ort.IsInitialized() {
		return nil
	}
	if libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("init onnxruntime: %w", err)
	}
	return nil
}

// Close destroys the inference session. The shared runtime environment stays
// initialized for the life of the process.
func (e *Encoder) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != nil {
		_ = e.session.Destroy()
		e.session = nil
	}
}

// Encode embeds a single text.
func (e *Encoder) Encode(text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil || e.tk == nil {
		return nil, errors.New("encoder is not initialized")
	}
	enc, err := e.tk.EncodeSingle(text, true)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	ids := truncate(enc.Ids, e.maxSeqLen)
	mask := truncate(enc.AttentionMask, e.maxSeqLen)
	types := truncate(enc.TypeIds, e.maxSeqLen)
	if len(ids) == 0 {
		return nil, errors.New("tokenizer produced no tokens")
	}
	if len(mask) != len(ids) {
		mask = onesLike(ids)
	}
	if len(types) != len(ids) {
		types = make([]int, len(ids))
	}

	shape := ort.NewShape(1, int64(len(ids)))
	inputs := make([]ort.Value, 0, len(e.inputNames))
	defer func() {
		for _, in := range inputs {
			_ = in.Destroy()
		}
	}()
	for _, name := range e.inputNames {
		var data []int
		switch name {
		case inputIDs:
			data = ids
		case attentionMask:
			data = mask
		case tokenTypeIDs:
			data = types
		}
		t, err := ort.NewTensor(shape, toInt64(data))
		if err != nil {
			return nil, fmt.Errorf("create %s tensor: %w", name, err)
		}
		inputs = append(inputs, t)
	}

	outputs := []ort.Value{nil}
	if err := e.session.Run(inputs, outputs); err != nil {
		return nil, fmt.Errorf("run session: %w", err)
	}
	defer outputs[0].Destroy()
	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output type %T", outputs[0])
	}
	vec, err := pool(out.GetShape(), out.GetData(), mask)
	if err != nil {
		return nil, err
	}
	l2Normalize(vec)
	return vec, nil
}

// pool accepts either a pooled [1, hidden] output or a token level
// [1, seq, hidden] output, which is mean pooled over the attention mask.
func pool(shape ort.Shape, data []float32, mask []int) ([]float32, error) {
	switch len(shape) {
	case 2:
		hidden := int(shape[1])
		if len(data) < hidden {
			return nil, fmt.Errorf("output too short: %d < %d", len(data), hidden)
		}
		return append([]float32(nil), data[:hidden]...), nil
	case 3:
		seq, hidden := int(shape[1]), int(shape[2])
		if len(data) < seq*hidden {
			return nil, fmt.Errorf("output too short: %d < %d", len(data), seq*hidden)
		}
		out := make([]float32, hidden)
		var count float32
		for t := 0; t < seq && t < len(mask); t++ {
			if mask[t] == 0 {
				continue
			}
			row := data[t*hidden : (t+1)*hidden]
			for i, v := range row {
				out[i] += v
			}
			count++
		}
		if count > 0 {
			for i := range out {
				out[i] /= count
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported output shape %v", shape)
	}
}

func l2Normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
}

func truncate(values []int, limit int) []int {
	if len(values) <= limit {
		return values
	}
	// Keep the trailing special token so the sequence stays well formed.
	out := append([]int(nil), values[:limit]...)
	out[limit-1] = values[len(values)-1]
	return out
}

func onesLike(values []int) []int {
	out := make([]int, len(values))
	for i := range out {
		out[i] = 1
	}
	return out
}

func toInt64(values []int) []int64 {
	out := make([]int64, len(values))
	for i, v := range values {
		out[i] = int64(v)
	}
	return out
}
