package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/tanya/internal/cli"
	"github.com/hyperjump/tanya/internal/config"
	"github.com/hyperjump/tanya/internal/models"
	"github.com/hyperjump/tanya/internal/watcher"
	"go.uber.org/zap"
)

func TestArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after query are moved first",
			args:     []string{"room rent limit", "-k", "5"},
			expected: []string{"-k", "5", "room rent limit"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-k", "5", "room rent limit"},
			expected: []string{"-k", "5", "room rent limit"},
		},
		{
			name:     "bool flag does not consume the next arg",
			args:     []string{"--clear", "u1"},
			expected: []string{"--clear", "u1"},
		},
		{
			name:     "equals form",
			args:     []string{"u1", "--limit=4"},
			expected: []string{"--limit=4", "u1"},
		},
		{
			name:     "multiple positionals then flags",
			args:     []string{"one", "two", "-output", "json"},
			expected: []string{"-output", "json", "one", "two"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := argsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("argsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		args     []string
		expected string
	}{
		{[]string{"policy"}, "policy"},
		{[]string{"room", "rent"}, "room rent"},
		{[]string{"room rent"}, "room rent"},
		{[]string{}, ""},
		{[]string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		if got := buildQuery(tt.args); got != tt.expected {
			t.Errorf("buildQuery(%v) = %q, want %q", tt.args, got, tt.expected)
		}
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  port: 8081
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if !cfg.Debug || cfg.Server.Port != 8081 {
		t.Errorf("cwd config not applied: debug=%v port=%d", cfg.Debug, cfg.Server.Port)
	}
}

func TestLoadConfig_rejectsInvalidConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
chunking:
  size: 50
  overlap: 50
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	_, _, err := loadConfig(configPath)
	var ce *models.ConfigError
	if !errors.As(err, &ce) || ce.Field != "chunking.overlap" {
		t.Fatalf("expected a chunking.overlap ConfigError, got %v", err)
	}
}

func newLocalComponents(t *testing.T) *Components {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "policy_101.txt"),
		[]byte("Policy 101: Sum insured 5,00,000. Room rent capped at 1% of sum insured."), 0600); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{Corpus: config.CorpusConfig{Directory: dir}}
	config.ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	c, err := initializeComponents(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Close)
	if _, err := c.Indexer.Build(context.Background()); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestInitializeComponents(t *testing.T) {
	c := newLocalComponents(t)
	if !c.Holder.Ready() || c.Indexer.Status().ChunksIndexed != 1 {
		t.Fatalf("index not built: %+v", c.Indexer.Status())
	}
	if c.Model.Name() != "extractive" || c.Embedder.Model() != "hash-bow" {
		t.Errorf("providers = %s, %s", c.Model.Name(), c.Embedder.Model())
	}
	res, err := c.Engine.Retrieve(context.Background(), "room rent", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Citations) != 1 || res.Citations[0].Doc != "policy_101.txt" {
		t.Errorf("citations = %+v", res.Citations)
	}
}

func TestStartWatcher_RebuildsOnChange(t *testing.T) {
	c := newLocalComponents(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w, err := startWatcher(ctx, c.Indexer, zap.NewNop(), watcher.WithDebounce(50*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if w.Directory() != c.Indexer.Directory() {
		t.Errorf("watching %s, corpus is %s", w.Directory(), c.Indexer.Directory())
	}

	if err := os.WriteFile(filepath.Join(c.Indexer.Directory(), "claims_faq.txt"),
		[]byte("Claims must be filed within thirty days of discharge."), 0600); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(3 * time.Second)
	for c.Indexer.Status().DocumentsIndexed != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("corpus change not indexed: %+v", c.Indexer.Status())
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestStartWatcher_MissingDirectory(t *testing.T) {
	cfg := &config.Config{Corpus: config.CorpusConfig{Directory: filepath.Join(t.TempDir(), "absent")}}
	config.ApplyDefaults(cfg)
	c, err := initializeComponents(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if _, err := startWatcher(context.Background(), c.Indexer, zap.NewNop()); err == nil {
		t.Error("expected an error for a missing corpus directory")
	}
}

func TestChatLoop(t *testing.T) {
	c := newLocalComponents(t)
	in := strings.NewReader("room rent for policy 101\n\n   \nexit\nnever sent\n")
	var out bytes.Buffer
	if err := chatLoop(context.Background(), c.Agent.Chat, in, &out, "loop", 1, cli.OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Room rent capped at 1%") {
		t.Errorf("missing answer in output:\n%s", out.String())
	}
	hist, err := c.Agent.History(context.Background(), "loop", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist.History) != 2 {
		t.Errorf("history has %d turns, want 2", len(hist.History))
	}
}

func TestChatLoop_errorsDoNotStopTheLoop(t *testing.T) {
	calls := 0
	send := func(ctx context.Context, req models.ChatRequest) (*models.ChatReply, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("upstream down")
		}
		return &models.ChatReply{Reply: "ok " + req.Message, SessionID: req.SessionID}, nil
	}
	var out bytes.Buffer
	err := chatLoop(context.Background(), send, strings.NewReader("first\nsecond\n"), &out, "s", 0, cli.OutputText)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 2 || !strings.Contains(out.String(), "error: upstream down") || !strings.Contains(out.String(), "ok second") {
		t.Errorf("calls=%d output:\n%s", calls, out.String())
	}
}
