// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, defaults, validation and duration parsing

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:9090"
  dedupe_window: "2m"

database:
  path: "./test.db"

settings:
  path: "./settings.toml"
  watch: true

assistant:
  api_key: "sk-test"
  model: "gpt-4o-mini"
  base_url: "http://localhost:11434/v1"
  prompt_file: "./prompt.txt"
  timeout: "10s"
  requests_per_minute: 12
  max_tokens: 256

conversations:
  seed: false
  unread_policy: "reset_on_append"
  preview_length: 40

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Verify server config
	if cfg.Server.HTTPAddr != "0.0.0.0:9090" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:9090")
	}
	if cfg.Server.DedupeWindow != 2*time.Minute {
		t.Errorf("Server.DedupeWindow = %v, want %v", cfg.Server.DedupeWindow, 2*time.Minute)
	}

	if cfg.Database.Path != "./test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./test.db")
	}
	if cfg.Settings.Path != "./settings.toml" || !cfg.Settings.Watch {
		t.Errorf("Settings = %+v, want path ./settings.toml with watch", cfg.Settings)
	}

	// Verify assistant config
	a := cfg.Assistant
	if a.APIKey != "sk-test" {
		t.Errorf("Assistant.APIKey = %q, want %q", a.APIKey, "sk-test")
	}
	if a.Model != "gpt-4o-mini" {
		t.Errorf("Assistant.Model = %q, want %q", a.Model, "gpt-4o-mini")
	}
	if a.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("Assistant.BaseURL = %q", a.BaseURL)
	}
	if a.PromptFile != "./prompt.txt" {
		t.Errorf("Assistant.PromptFile = %q", a.PromptFile)
	}
	if a.Timeout != 10*time.Second {
		t.Errorf("Assistant.Timeout = %v, want %v", a.Timeout, 10*time.Second)
	}
	if a.RequestsPerMinute != 12 {
		t.Errorf("Assistant.RequestsPerMinute = %d, want 12", a.RequestsPerMinute)
	}
	if a.MaxTokens != 256 {
		t.Errorf("Assistant.MaxTokens = %d, want 256", a.MaxTokens)
	}

	// Verify conversations config
	if cfg.Conversations.Seed {
		t.Error("Conversations.Seed should be false")
	}
	if cfg.Conversations.UnreadPolicy != "reset_on_append" {
		t.Errorf("Conversations.UnreadPolicy = %q", cfg.Conversations.UnreadPolicy)
	}
	if cfg.Conversations.PreviewLength != 40 {
		t.Errorf("Conversations.PreviewLength = %d, want 40", cfg.Conversations.PreviewLength)
	}

	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want debug/json", cfg.Logging)
	}
}

func TestLoad_MissingKeysKeepDefaults(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "./only.db"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	def := Default()
	if cfg.Database.Path != "./only.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./only.db")
	}
	if cfg.Server.HTTPAddr != def.Server.HTTPAddr {
		t.Errorf("Server.HTTPAddr = %q, want default %q", cfg.Server.HTTPAddr, def.Server.HTTPAddr)
	}
	if cfg.Assistant.Model != "gpt-4" {
		t.Errorf("Assistant.Model = %q, want gpt-4", cfg.Assistant.Model)
	}
	if cfg.Assistant.Timeout != 30*time.Second {
		t.Errorf("Assistant.Timeout = %v, want 30s", cfg.Assistant.Timeout)
	}
	if !cfg.Conversations.Seed {
		t.Error("Conversations.Seed should default to true")
	}
	if cfg.Server.DedupeWindow != 5*time.Minute {
		t.Errorf("Server.DedupeWindow = %v, want 5m", cfg.Server.DedupeWindow)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-from-env")
	t.Setenv("TEST_DATA_DIR", "/var/lib/cheatsignal")

	configPath := writeConfig(t, `
database:
  path: "${TEST_DATA_DIR}/cheatsignal.db"

assistant:
  api_key: "${TEST_OPENAI_KEY}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Assistant.APIKey != "sk-from-env" {
		t.Errorf("Assistant.APIKey = %q, want %q", cfg.Assistant.APIKey, "sk-from-env")
	}
	if cfg.Database.Path != "/var/lib/cheatsignal/cheatsignal.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
}

func TestLoad_UnsetEnvVarBecomesEmpty(t *testing.T) {
	os.Unsetenv("DEFINITELY_NOT_SET_CHEATSIGNAL")

	configPath := writeConfig(t, `
assistant:
  api_key: "${DEFINITELY_NOT_SET_CHEATSIGNAL}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Assistant.APIKey != "" {
		t.Errorf("Assistant.APIKey = %q, want empty", cfg.Assistant.APIKey)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "bad timeout",
			content: "assistant:\n  timeout: \"soon\"\n",
			wantErr: "parsing timeout",
		},
		{
			name:    "zero timeout",
			content: "assistant:\n  timeout: \"0s\"\n",
			wantErr: "must be positive",
		},
		{
			name:    "bad dedupe window",
			content: "server:\n  dedupe_window: \"5 minutes\"\n",
			wantErr: "parsing dedupe_window",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Load() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
	if !strings.Contains(err.Error(), "reading config file") {
		t.Errorf("Load() error = %v, want reading config file", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"))
	if err == nil {
		t.Fatal("Load() expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "parsing config file") {
		t.Errorf("Load() error = %v, want parsing config file", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{
			name:    "missing http addr",
			mutate:  func(c *Config) { c.Server.HTTPAddr = "" },
			wantErr: "server.http_addr",
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database.path",
		},
		{
			name:    "missing settings path",
			mutate:  func(c *Config) { c.Settings.Path = "" },
			wantErr: "settings.path",
		},
		{
			name:    "unknown unread policy",
			mutate:  func(c *Config) { c.Conversations.UnreadPolicy = "sometimes" },
			wantErr: "unread_policy",
		},
		{
			name:    "negative preview length",
			mutate:  func(c *Config) { c.Conversations.PreviewLength = -1 },
			wantErr: "preview_length",
		},
		{
			name:    "negative rate",
			mutate:  func(c *Config) { c.Assistant.RequestsPerMinute = -5 },
			wantErr: "requests_per_minute",
		},
		{
			name:    "negative max tokens",
			mutate:  func(c *Config) { c.Assistant.MaxTokens = -1 },
			wantErr: "max_tokens",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestExampleLoads(t *testing.T) {
	t.Setenv("HOME", "/home/alice")
	t.Setenv("OPENAI_API_KEY", "sk-example")

	cfg, err := Load(writeConfig(t, Example))
	if err != nil {
		t.Fatalf("Load(Example) error = %v", err)
	}
	if cfg.Database.Path != "/home/alice/.local/share/cheatsignal/cheatsignal.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.Assistant.APIKey != "sk-example" {
		t.Errorf("Assistant.APIKey = %q", cfg.Assistant.APIKey)
	}
	if cfg.Assistant.RequestsPerMinute != 20 {
		t.Errorf("Assistant.RequestsPerMinute = %d, want 20", cfg.Assistant.RequestsPerMinute)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Run("env override", func(t *testing.T) {
		t.Setenv("CHEATSIGNAL_CONFIG", "/etc/cheatsignal.yaml")
		if got := DefaultPath(); got != "/etc/cheatsignal.yaml" {
			t.Errorf("DefaultPath() = %q", got)
		}
	})

	t.Run("xdg", func(t *testing.T) {
		t.Setenv("CHEATSIGNAL_CONFIG", "")
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
		if got := DefaultPath(); got != "/tmp/xdg/cheatsignal/config.yaml" {
			t.Errorf("DefaultPath() = %q", got)
		}
	})

	t.Run("home", func(t *testing.T) {
		t.Setenv("CHEATSIGNAL_CONFIG", "")
		t.Setenv("XDG_CONFIG_HOME", "")
		t.Setenv("HOME", "/home/bob")
		if got := DefaultPath(); got != "/home/bob/.config/cheatsignal/config.yaml" {
			t.Errorf("DefaultPath() = %q", got)
		}
	})
}

func TestDefaultDataDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/data")
	if got := DefaultDataDir(); got != "/tmp/data/cheatsignal" {
		t.Errorf("DefaultDataDir() = %q", got)
	}
}
