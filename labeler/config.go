package labeler

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

const defaultConfigFile = "config.json"

// LoadConfig loads configuration from the given path or the default config.json.
// A missing file yields the defaults. Files ending in .yaml or .yml are decoded
// as YAML, everything else as JSON.
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
	if isYAML(path) {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.ApplyDefaults()
	if cfg.Embedder.CacheDir != "" {
		if err := os.MkdirAll(cfg.Embedder.CacheDir, 0o755); err != nil {
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
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
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

// ResolveLabels returns the inline labels followed by those read from
// LabelsPath, if set.
func (c Config) ResolveLabels() ([]Label, error) {
	labels := append([]Label(nil), c.Labels...)
	if strings.TrimSpace(c.LabelsPath) != "" {
		fromFile, err := ParseLabelFile(c.LabelsPath)
		if err != nil {
			return nil, err
		}
		labels = append(labels, fromFile...)
	}
	if len(labels) == 0 {
		return nil, errors.New("no labels configured")
	}
	return labels, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}
