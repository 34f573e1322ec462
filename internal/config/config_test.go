package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/tanya/internal/models"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
chunking:
  size: 120
  overlap: 20
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Chunking.Size != 120 || cfg.Chunking.Overlap != 20 {
		t.Errorf("unexpected chunking: %+v", cfg.Chunking)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_missingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Chunking.Size != 300 {
		t.Errorf("chunk size = %d, want 300", cfg.Chunking.Size)
	}
	if !filepath.IsAbs(cfg.Corpus.Directory) {
		t.Errorf("corpus directory should be absolute, got %s", cfg.Corpus.Directory)
	}
}

func TestLoad_relativePathsResolveAgainstConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
corpus:
  directory: "./docs"
sessions:
  backend: sqlite
  database_path: "state/history.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "docs"); cfg.Corpus.Directory != want {
		t.Errorf("corpus directory = %s, want %s", cfg.Corpus.Directory, want)
	}
	if want := filepath.Join(dir, "state", "history.db"); cfg.Sessions.DatabasePath != want {
		t.Errorf("database_path = %s, want %s", cfg.Sessions.DatabasePath, want)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Retrieval.DefaultK != 3 || cfg.Retrieval.MaxKOrDefault() != 6 {
		t.Errorf("retrieval defaults: %+v", cfg.Retrieval)
	}
	if cfg.Chunking.Overlap != 0 {
		t.Errorf("overlap must not be defaulted, got %d", cfg.Chunking.Overlap)
	}
	want := ConfidenceTable{GroundingThreshold: 0.5, Grounded: 1.0, Weak: 0.5, Clarification: 0.3}
	if got := cfg.Dialogue.Confidence.Table(); got != want {
		t.Errorf("confidence table: %+v", got)
	}
	if len(cfg.Corpus.Extensions) != 1 || cfg.Corpus.Extensions[0] != ".txt" {
		t.Errorf("corpus extensions: got %v", cfg.Corpus.Extensions)
	}
	if !cfg.PII.AadhaarOrDefault() {
		t.Error("aadhaar masking should default to on")
	}
}

func TestApplyDefaults_keepsExplicitZeros(t *testing.T) {
	cfg := &Config{
		Retrieval: RetrievalConfig{MaxK: Ptr(0)},
		Dialogue: DialogueConfig{Confidence: ConfidenceConfig{
			GroundingThreshold: Ptr(0.0),
			Weak:               Ptr(0.0),
			Clarification:      Ptr(0.0),
		}},
	}
	ApplyDefaults(cfg)
	if got := cfg.Retrieval.MaxKOrDefault(); got != 0 {
		t.Errorf("max_k = %d, want 0", got)
	}
	want := ConfidenceTable{GroundingThreshold: 0, Grounded: 1.0, Weak: 0, Clarification: 0}
	if got := cfg.Dialogue.Confidence.Table(); got != want {
		t.Errorf("confidence table = %+v, want %+v", got, want)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_explicitZerosFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
retrieval:
  max_k: 0
dialogue:
  confidence:
    weak: 0
    grounding_threshold: 0
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.Retrieval.MaxKOrDefault(); got != 0 {
		t.Errorf("max_k = %d, want 0", got)
	}
	table := cfg.Dialogue.Confidence.Table()
	if table.Weak != 0 || table.GroundingThreshold != 0 {
		t.Errorf("explicit zeros were overwritten: %+v", table)
	}
	if table.Grounded != 1.0 || table.Clarification != 0.3 {
		t.Errorf("unset entries should default: %+v", table)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"DATA_DIR":        "/srv/claims",
		"CHUNK_SIZE":      "200",
		"CHUNK_OVERLAP":   "not-a-number",
		"EMBEDDING_MODEL": "text-embedding-3-large",
	}
	cfg := &Config{Chunking: ChunkingConfig{Overlap: 40}}
	ApplyEnv(cfg, func(k string) string { return env[k] })
	if cfg.Corpus.Directory != "/srv/claims" {
		t.Errorf("directory = %s", cfg.Corpus.Directory)
	}
	if cfg.Chunking.Size != 200 {
		t.Errorf("size = %d", cfg.Chunking.Size)
	}
	if cfg.Chunking.Overlap != 40 {
		t.Errorf("unparseable overlap should keep file value, got %d", cfg.Chunking.Overlap)
	}
	if cfg.Embedding.Model != "text-embedding-3-large" {
		t.Errorf("model = %s", cfg.Embedding.Model)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(*Config) {}, false},
		{"overlap equal to size", func(c *Config) { c.Chunking.Size, c.Chunking.Overlap = 50, 50 }, true},
		{"overlap larger than size", func(c *Config) { c.Chunking.Size, c.Chunking.Overlap = 50, 80 }, true},
		{"negative overlap", func(c *Config) { c.Chunking.Overlap = -1 }, true},
		{"unknown embedding provider", func(c *Config) { c.Embedding.Provider = "onnx" }, true},
		{"azure without endpoint", func(c *Config) { c.LLM.Provider = "azure" }, true},
		{"default k above max", func(c *Config) { c.Retrieval.DefaultK = 9 }, true},
		{"confidence out of range", func(c *Config) { c.Dialogue.Confidence.Weak = Ptr(1.5) }, true},
		{"negative max k", func(c *Config) { c.Retrieval.MaxK = Ptr(-1) }, true},
		{"max k zero disables the cap", func(c *Config) { c.Retrieval.MaxK, c.Retrieval.DefaultK = Ptr(0), 50 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			ApplyDefaults(cfg)
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var ce *models.ConfigError
				if !errors.As(err, &ce) {
					t.Errorf("expected a ConfigError, got %T", err)
				}
			}
		})
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:   ServerConfig{Host: "localhost", Port: 9090},
		Chunking: ChunkingConfig{Size: 64, Overlap: 8},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 || loaded.Chunking.Overlap != 8 {
		t.Errorf("loaded: port=%d overlap=%d", loaded.Server.Port, loaded.Chunking.Overlap)
	}
}
