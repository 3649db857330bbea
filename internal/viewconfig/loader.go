package viewconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML file on top of Default() and validates it.
// Returns the raw bytes so callers can log or persist the exact source.
// KnownFields(true): 오타/미사용 필드는 즉시 실패
func Load(path string) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read views config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, data, err
	}

	return cfg, data, nil
}

// Parse decodes YAML bytes over the defaults, normalizes and validates them
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	// credibility in YAML replaces the built-in table instead of merging into it
	cfg.Weighting.Credibility = nil

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	// 빈 파일/주석만 있는 파일은 기본값 그대로
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode views config: %w", err)
	}

	if cfg.Weighting.Credibility == nil {
		cfg.Weighting.Credibility = DefaultCredibility()
	}
	cfg.Normalize()

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault loads path, or returns validated defaults when path is empty
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		cfg := Default()
		if err := Validate(&cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}

	cfg, _, err := Load(path)
	return cfg, err
}

// Normalize lower-cases and trims credibility keys
func (c *Config) Normalize() {
	if len(c.Weighting.Credibility) == 0 {
		return
	}
	norm := make(map[string]float64, len(c.Weighting.Credibility))
	for k, v := range c.Weighting.Credibility {
		norm[NormalizeSource(k)] = v
	}
	c.Weighting.Credibility = norm
}

// NormalizeSource is the canonical form used for credibility lookups
func NormalizeSource(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Hash generates SHA256 hash from Config (canonical JSON)
// encoding/json sorts map keys, so the credibility table hashes deterministically
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
