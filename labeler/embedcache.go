package labeler

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// embeddingCache keeps vectors in memory and, when dir is set, mirrors them
// to disk as a uint32 length followed by little-endian float32 values.
type embeddingCache struct {
	mu  sync.RWMutex
	mem map[string][]float32
	dir string
}

func newEmbeddingCache(dir string) (*embeddingCache, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	return &embeddingCache{mem: make(map[string][]float32), dir: dir}, nil
}

// cacheKey scopes text to a model so vectors from different encoders never mix.
func cacheKey(modelID, text string) string {
	sum := sha1.Sum([]byte(modelID + "|" + text))
	return hex.EncodeToString(sum[:])
}

// get returns a copy of the cached vector. A disk hit is promoted to memory.
func (c *embeddingCache) get(key string) ([]float32, error) {
	c.mu.RLock()
	vec, ok := c.mem[key]
	c.mu.RUnlock()
	if ok {
		return cloneVector(vec), nil
	}
	if c.dir == "" {
		return nil, os.ErrNotExist
	}
	vec, err := readVectorFile(c.path(key))
	if err != nil {
		return nil, err
	}
	c.remember(key, vec)
	return vec, nil
}

// put stores vec in memory and on disk. A disk failure still leaves the
// memory entry in place.
func (c *embeddingCache) put(key string, vec []float32) error {
	c.remember(key, vec)
	if c.dir == "" {
		return nil
	}
	return writeVectorFile(c.path(key), vec)
}

func (c *embeddingCache) remember(key string, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mem != nil {
		c.mem[key] = cloneVector(vec)
	}
}

func (c *embeddingCache) reset() {
	c.mu.Lock()
	c.mem = nil
	c.mu.Unlock()
}

func (c *embeddingCache) path(key string) string {
	return filepath.Join(c.dir, key+".bin")
}

func readVectorFile(path string) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r := bytes.NewReader(data)
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("read cache header %s: %w", path, err)
	}
	if r.Len() != int(n)*4 {
		return nil, fmt.Errorf("cache length mismatch: %s", path)
	}
	vec := make([]float32, n)
	if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
		return nil, fmt.Errorf("read cache body %s: %w", path, err)
	}
	return vec, nil
}

func writeVectorFile(path string, vec []float32) error {
	var buf bytes.Buffer
	buf.Grow(4 + 4*len(vec))
	if err := errors.Join(
		binary.Write(&buf, binary.LittleEndian, uint32(len(vec))),
		binary.Write(&buf, binary.LittleEndian, vec),
	); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
