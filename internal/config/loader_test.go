package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
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

func TestLoadFile_WithEnvVars(t *testing.T) {
	os.Setenv("TEST_UPSTREAM_KEY", "sk-test")
	defer os.Unsetenv("TEST_UPSTREAM_KEY")

	path := filepath.Join(t.TempDir(), "relay.yaml")
	content := `
server:
  host: "${TEST_HOST:127.0.0.1}"
  port: 9999
upstream:
  api_key: "${TEST_UPSTREAM_KEY}"
limits:
  max_content_length: 1000
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	if err := LoadFile(path, cfg); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("expected host 127.0.0.1 (default), got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.Server.Port)
	}
	if cfg.Upstream.APIKey != "sk-test" {
		t.Errorf("expected api key from env, got %q", cfg.Upstream.APIKey)
	}
	if cfg.Limits.MaxContentLength != 1000 {
		t.Errorf("expected max_content_length 1000, got %d", cfg.Limits.MaxContentLength)
	}
	// Untouched sections keep their defaults
	if cfg.Upstream.Model != "google/gemini-2.5-flash" {
		t.Errorf("expected default model, got %q", cfg.Upstream.Model)
	}
}

func TestLoader_Load_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvJWTSecret, "test-secret")

	l := NewLoader(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := l.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cfg := l.Config()
	if cfg.Auth.JWTSecret != "test-secret" {
		t.Errorf("expected jwt secret from env, got %q", cfg.Auth.JWTSecret)
	}
	if cfg.Limits.MaxContentLength != 50000 {
		t.Errorf("expected default max content length 50000, got %d", cfg.Limits.MaxContentLength)
	}
}

func TestLoader_Load_InvalidAuth(t *testing.T) {
	t.Setenv(EnvJWTSecret, "")

	dir := t.TempDir()
	content := "auth:\n  mode: remote\n  provider_url: \"\"\n"
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvProviderURL, "")

	l := NewLoader(dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
	err := l.Load()
	if err == nil {
		t.Fatal("expected error for remote mode without provider_url")
	}
	if !strings.Contains(err.Error(), "provider_url") {
		t.Errorf("expected provider_url in error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"jwt secret", func(c *Config) { c.Auth.JWTSecret = "s" }, false},
		{"jwt public key", func(c *Config) { c.Auth.PublicKeyPEM = "pem" }, false},
		{"remote", func(c *Config) { c.Auth.Mode = AuthModeRemote; c.Auth.ProviderURL = "https://idp" }, false},
		{"unknown mode", func(c *Config) { c.Auth.Mode = "oauth"; c.Auth.JWTSecret = "s" }, true},
		{"no model", func(c *Config) { c.Auth.JWTSecret = "s"; c.Upstream.Model = "" }, true},
		{"bad secrets mode", func(c *Config) { c.Auth.JWTSecret = "s"; c.Filter.Secrets.Mode = "mask" }, true},
		{"zero max content", func(c *Config) { c.Auth.JWTSecret = "s"; c.Limits.MaxContentLength = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvJWTSecret, "")
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
