// Package config provides configuration loading and structs for the tanya server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Dialogue  DialogueConfig  `yaml:"dialogue"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	PII       PIIConfig       `yaml:"pii"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	RequestTimeoutSecs int    `yaml:"request_timeout_secs"`
}

// RequestTimeout returns the per-request deadline applied by the router.
func (s *ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSecs) * time.Second
}

// CorpusConfig points at the directory of plain-text documents.
type CorpusConfig struct {
	Directory  string   `yaml:"directory"`
	Extensions []string `yaml:"extensions"`
	Watch      bool     `yaml:"watch"`
}

// ChunkingConfig sets the word window used to split documents.
type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// IndexConfig selects the vector index implementation.
type IndexConfig struct {
	Type string `yaml:"type"`
}

// EmbeddingConfig selects and configures the embedding service.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	Dimensions  int    `yaml:"dimensions"`
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	CacheSize   int    `yaml:"cache_size"`
	BatchSize   int    `yaml:"batch_size"`
}

// Timeout returns the deadline for a single embedding call.
func (e *EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSecs) * time.Second
}

// LLMConfig selects and configures the language model service.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	APIVersion  string  `yaml:"api_version"`
	TimeoutSecs int     `yaml:"timeout_secs"`
	Temperature float32 `yaml:"temperature"`
}

// Timeout returns the deadline for a single language model call.
func (l *LLMConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSecs) * time.Second
}

// RetrievalConfig holds query-time retrieval settings.
// MaxK is a pointer so that an explicit 0 (no upper bound) differs from unset.
type RetrievalConfig struct {
	DefaultK      int  `yaml:"default_k"`
	MaxK          *int `yaml:"max_k"`
	SnippetLength int  `yaml:"snippet_length"`
}

// MaxKOrDefault returns the upper bound on k; 0 means no bound. Defaults to 6 when unset.
func (r *RetrievalConfig) MaxKOrDefault() int {
	if r.MaxK != nil {
		return *r.MaxK
	}
	return defaultMaxK
}

// DialogueConfig holds conversation settings.
type DialogueConfig struct {
	HistoryTurns        int              `yaml:"history_turns"`
	MaxHistory          int              `yaml:"max_history"`
	ContextualRetrieval bool             `yaml:"contextual_retrieval"`
	Confidence          ConfidenceConfig `yaml:"confidence"`
}

// ConfidenceConfig maps a reply's outcome to its confidence score. Zero is a valid
// score, so unset entries are nil rather than 0.
type ConfidenceConfig struct {
	GroundingThreshold *float64 `yaml:"grounding_threshold"`
	Grounded           *float64 `yaml:"grounded"`
	Weak               *float64 `yaml:"weak"`
	Clarification      *float64 `yaml:"clarification"`
}

// ConfidenceTable is a resolved ConfidenceConfig.
type ConfidenceTable struct {
	GroundingThreshold float64
	Grounded           float64
	Weak               float64
	Clarification      float64
}

// Table resolves the configured scores, filling unset entries with defaults.
func (c *ConfidenceConfig) Table() ConfidenceTable {
	return ConfidenceTable{
		GroundingThreshold: floatOr(c.GroundingThreshold, defaultGroundingThreshold),
		Grounded:           floatOr(c.Grounded, defaultGroundedConfidence),
		Weak:               floatOr(c.Weak, defaultWeakConfidence),
		Clarification:      floatOr(c.Clarification, defaultClarificationConfidence),
	}
}

func floatOr(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}

// Ptr returns a pointer to v, for optional settings set from code.
func Ptr[T any](v T) *T {
	return &v
}

// SessionsConfig selects the session history backend.
type SessionsConfig struct {
	Backend      string `yaml:"backend"`
	DatabasePath string `yaml:"database_path"`
}

// PIIConfig toggles the masking transforms applied to user text.
type PIIConfig struct {
	Aadhaar *bool `yaml:"aadhaar"`
}

// AadhaarOrDefault reports whether Aadhaar masking is on; defaults to true when unset.
func (p *PIIConfig) AadhaarOrDefault() bool {
	if p.Aadhaar != nil {
		return *p.Aadhaar
	}
	return true
}

// Load reads and parses the config file at path, expands paths, applies env overrides and defaults.
// A missing file is not an error: defaults and environment are used.
func Load(path string) (*Config, error) {
	var cfg Config
	configDir := "."
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		configDir = filepath.Dir(path)
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	ApplyEnv(&cfg, os.Getenv)
	ApplyDefaults(&cfg)

	cfg.Corpus.Directory = expandPath(cfg.Corpus.Directory, configDir)
	cfg.Sessions.DatabasePath = expandPath(cfg.Sessions.DatabasePath, configDir)

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Relative paths are relative to configDir;
// "~/" paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
		return path
	}
	abs, err := filepath.Abs(filepath.Join(configDir, path))
	if err != nil {
		return filepath.Join(configDir, path)
	}
	return abs
}
