package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("TEST_VAR", "hello")
	defer os.Unsetenv("TEST_VAR")

	tests := []struct {
		input    string
		expected string
	}{
		{"${TEST_VAR}", "hello"},
		{"${TEST_VAR:default}", "hello"},
		{"${UNSET_VAR:fallback}", "fallback"},
		{"${UNSET_VAR}", ""},
		{"no vars here", "no vars here"},
		{"prefix-${TEST_VAR}-suffix", "prefix-hello-suffix"},
	}

	for _, tt := range tests {
		got := expandEnvVars(tt.input)
		if got != tt.expected {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestLoadFile(t *testing.T) {
	// Create a temp YAML file
	tmpFile, err := os.CreateTemp("", "test-config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpFile.Name())

	content := `
server:
  host: "0.0.0.0"
  port: 9999
`
	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatal(err)
	}
	tmpFile.Close()

	var cfg Config
	if err := LoadFile(tmpFile.Name(), &cfg); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected host 0.0.0.0, got %s", cfg.Server.Host)
	}
}

func TestLoadFile_WithEnvVars(t *testing.T) {
	os.Setenv("TEST_PORT", "7777")
	defer os.Unsetenv("TEST_PORT")

	tmpFile, err := os.CreateTemp("", "test-config-env-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpFile.Name())

	content := `
server:
  host: "${TEST_HOST:127.0.0.1}"
  port: ${TEST_PORT}
`
	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatal(err)
	}
	tmpFile.Close()

	var cfg Config
	if err := LoadFile(tmpFile.Name(), &cfg); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("expected host 127.0.0.1 (default), got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("expected port 7777, got %d", cfg.Server.Port)
	}
}

func writeConfigFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TEST_OPENROUTER_KEY", "sk-test")

	writeConfigFile(t, dir, "thoth.yaml", `
quota:
  backend: redis
  capacity: 3
transcript:
  max_chars: 500
`)
	writeConfigFile(t, dir, "providers.yaml", `
providers:
  openrouter:
    type: openai
    base_url: https://openrouter.ai/api/v1
    api_key: ${TEST_OPENROUTER_KEY}
    model: google/gemini-2.5-flash
`)

	l := NewLoader(dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := l.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cfg := l.Config()
	if cfg.Quota.Backend != QuotaBackendRedis || cfg.Quota.Capacity != 3 {
		t.Errorf("unexpected quota config: %+v", cfg.Quota)
	}
	if cfg.Quota.Window != 24*time.Hour {
		t.Errorf("expected default window to survive, got %v", cfg.Quota.Window)
	}
	if cfg.Transcript.MaxChars != 500 {
		t.Errorf("expected max_chars 500, got %d", cfg.Transcript.MaxChars)
	}
	if cfg.Transcript.InitTimeout != 15*time.Second {
		t.Errorf("expected default init timeout, got %v", cfg.Transcript.InitTimeout)
	}

	p, ok := l.Providers().Providers["openrouter"]
	if !ok {
		t.Fatal("expected openrouter provider")
	}
	if p.APIKey != "sk-test" {
		t.Errorf("expected expanded api key, got %q", p.APIKey)
	}

	if got := l.Prompts().For("en").UserPrefix; got != "Please summarize this video transcript:\n\n" {
		t.Errorf("expected built-in english prefix, got %q", got)
	}
}

func TestLoader_LoadMissingMainFile(t *testing.T) {
	l := NewLoader(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := l.Load(); err == nil {
		t.Fatal("expected error when thoth.yaml is missing")
	}
}

func TestLoader_PromptOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "thoth.yaml", "server:\n  port: 8081\n")
	writeConfigFile(t, dir, "providers.yaml", "providers: {}\n")
	writeConfigFile(t, dir, "prompts.yaml", `
languages:
  en:
    system: "Be brief."
`)

	l := NewLoader(dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := l.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	en := l.Prompts().For("en")
	if en.System != "Be brief." {
		t.Errorf("expected overridden system prompt, got %q", en.System)
	}
	if en.UserPrefix == "" {
		t.Error("expected missing user prefix to fall back to the built-in one")
	}
	if ko := l.Prompts().For("ko"); ko.System == "" {
		t.Error("expected korean prompt to survive a partial override")
	}
}

func TestPromptsFor_NilAndUnknown(t *testing.T) {
	var p *PromptsConfig
	if p.For("en").System == "" {
		t.Error("nil PromptsConfig should return built-in prompt")
	}
	if got, want := DefaultPrompts().For("de"), DefaultPrompts().For("ko"); got != want {
		t.Error("unknown language should fall back to korean prompt")
	}
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5433, Name: "thoth", User: "app", Password: "p@ss"}
	want := "postgres://app:p%40ss@db:5433/thoth?sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

func TestLoader_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name      string
		main      string
		providers string
	}{
		{"unknown backend", "quota:\n  backend: etcd\n", "providers: {}\n"},
		{"zero capacity", "quota:\n  capacity: 0\n", "providers: {}\n"},
		{"threshold out of range", "screening:\n  flag_threshold: 1.5\n", "providers: {}\n"},
		{"unknown provider type", "server:\n  port: 8080\n", "providers:\n  x:\n    type: grpc\n    base_url: http://x\n    model: m\n"},
		{"provider without model", "server:\n  port: 8080\n", "providers:\n  x:\n    type: openai\n    base_url: http://x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfigFile(t, dir, "thoth.yaml", tt.main)
			writeConfigFile(t, dir, "providers.yaml", tt.providers)

			l := NewLoader(dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
			if err := l.Load(); err == nil {
				t.Fatal("expected validation error")
			}
			if l.Config() != nil {
				t.Error("a failed load must not install a configuration")
			}
		})
	}
}

func TestProvidersValidate_ReportsAll(t *testing.T) {
	p := &ProvidersConfig{Providers: map[string]ProviderConfig{
		"a": {Type: "soap"},
		"b": {Type: ProviderTypeAnthropic, BaseURL: "https://api.anthropic.com/v1", Model: "claude"},
	}}
	err := p.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"unknown type", "base_url is required", "model is required"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
	if strings.Contains(err.Error(), "provider b") {
		t.Errorf("valid provider reported: %v", err)
	}
}

func TestLoader_WatchReloads(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "thoth.yaml", "quota:\n  capacity: 5\n")
	writeConfigFile(t, dir, "providers.yaml", "providers: {}\n")

	l := NewLoader(dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := l.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	reloaded := make(chan struct{}, 8)
	l.OnReload(func() { reloaded <- struct{}{} })

	done := make(chan struct{})
	defer close(done)
	if err := l.Watch(done); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	writeConfigFile(t, dir, "thoth.yaml", "quota:\n  capacity: 7\n")

	deadline := time.After(3 * time.Second)
	for {
		select {
		case <-reloaded:
			if l.Config().Quota.Capacity == 7 {
				return
			}
		case <-deadline:
			t.Fatalf("config not reloaded, capacity = %d", l.Config().Quota.Capacity)
		}
	}
}
