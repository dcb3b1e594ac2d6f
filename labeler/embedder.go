package labeler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"yashubustudio/issuelabeler/internal/emb"
)

// Embedder turns text into vectors for the VectorClassifier.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Close() error
	ModelID() string
}

// textEncoder is satisfied by emb.Encoder.
type textEncoder interface {
	Encode(text string) ([]float32, error)
	Close()
}

// OrtEmbedder runs an ONNX sentence encoder and caches its output per model.
type OrtEmbedder struct {
	mu      sync.Mutex
	enc     textEncoder
	modelID string
	cache   *embeddingCache
	logger  *slog.Logger
}

// NewOrtEmbedder loads the model and tokenizer described by cfg.
func NewOrtEmbedder(cfg EmbedderConfig, logger *slog.Logger) (*OrtEmbedder, error) {
	encoder := &emb.Encoder{}
	err := encoder.Init(emb.Config{
		OrtDLL:        cfg.OrtDLL,
		ModelPath:     cfg.ModelPath,
		TokenizerPath: cfg.TokenizerPath,
		MaxSeqLen:     cfg.MaxSeqLen,
	})
	if err != nil {
		return nil, fmt.Errorf("init encoder: %w", err)
	}
	o, err := newOrtEmbedder(encoder, cfg, logger)
	if err != nil {
		encoder.Close()
		return nil, err
	}
	return o, nil
}

func newOrtEmbedder(enc textEncoder, cfg EmbedderConfig, logger *slog.Logger) (*OrtEmbedder, error) {
	modelID := cfg.ModelID
	if modelID == "" && cfg.ModelPath != "" {
		modelID = filepath.Base(cfg.ModelPath)
	}
	cache, err := newEmbeddingCache(cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	return &OrtEmbedder{
		enc:     enc,
		modelID: modelID,
		cache:   cache,
		logger:  orDiscard(logger),
	}, nil
}

// ModelID names the encoder; it also scopes cache entries.
func (o *OrtEmbedder) ModelID() string {
	return o.modelID
}

// EmbedText normalizes text and returns its embedding, consulting the cache
// before running the model.
func (o *OrtEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	normalized := NormalizeText(text)
	key := cacheKey(o.modelID, normalized)

	vec, err := o.cache.get(key)
	if err == nil {
		return vec, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		o.logger.Warn("ignoring broken cache entry", "key", key, "err", err)
	}

	o.mu.Lock()
	enc := o.enc
	if enc == nil {
		o.mu.Unlock()
		return nil, errors.New("embedder is closed")
	}
	vec, err = enc.Encode(normalized)
	o.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	if err := o.cache.put(key, vec); err != nil {
		o.logger.Warn("write embedding cache", "key", key, "err", err)
	}
	return cloneVector(vec), nil
}

// EmbedTexts embeds each text in order.
func (o *OrtEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec, err := o.EmbedText(ctx, text)
		if err != nil {
			return nil, err
		}
		out = append(out, vec)
	}
	return out, nil
}

// Close releases the model session. Later calls fail unless served from cache.
func (o *OrtEmbedder) Close() error {
	if o == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.enc != nil {
		o.enc.Close()
		o.enc = nil
	}
	o.cache.reset()
	return nil
}
