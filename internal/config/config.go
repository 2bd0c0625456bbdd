// ABOUTME: Configuration loading and parsing for cheatsignal
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/2389/cheatsignal/internal/conversation"
)

// Config represents the complete cheatsignal configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Settings      SettingsConfig      `yaml:"settings"`
	Assistant     AssistantConfig     `yaml:"assistant"`
	Conversations ConversationsConfig `yaml:"conversations"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`

	// How long a repeated request_id returns the first send result
	DedupeWindow    time.Duration `yaml:"-"`
	DedupeWindowRaw string        `yaml:"dedupe_window"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SettingsConfig locates the preferences file
type SettingsConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"` // reload on external edits
}

// AssistantConfig holds the AI gateway configuration
type AssistantConfig struct {
	APIKey            string `yaml:"api_key"`
	Model             string `yaml:"model"`
	BaseURL           string `yaml:"base_url"`
	PromptFile        string `yaml:"prompt_file"`
	MaxTokens         int    `yaml:"max_tokens"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`

	Timeout    time.Duration `yaml:"-"`
	TimeoutRaw string        `yaml:"timeout"`
}

// ConversationsConfig controls the conversation store
type ConversationsConfig struct {
	Seed          bool   `yaml:"seed"`
	UnreadPolicy  string `yaml:"unread_policy"`
	PreviewLength int    `yaml:"preview_length"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	dataDir := DefaultDataDir()
	return &Config{
		Server: ServerConfig{
			HTTPAddr:     "127.0.0.1:8484",
			DedupeWindow: 5 * time.Minute,
		},
		Database: DatabaseConfig{Path: filepath.Join(dataDir, "cheatsignal.db")},
		Settings: SettingsConfig{Path: filepath.Join(dataDir, "settings.toml")},
		Assistant: AssistantConfig{
			Model:   "gpt-4",
			Timeout: 30 * time.Second,
		},
		Conversations: ConversationsConfig{
			Seed:          true,
			UnreadPolicy:  "inbound",
			PreviewLength: conversation.DefaultPreviewLength,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
// Keys absent from the file keep their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Settings.Path == "" {
		return fmt.Errorf("settings.path is required")
	}
	if _, err := conversation.ParseUnreadPolicy(c.Conversations.UnreadPolicy); err != nil {
		return fmt.Errorf("conversations.unread_policy: %w", err)
	}
	if c.Conversations.PreviewLength < 0 {
		return fmt.Errorf("conversations.preview_length must not be negative")
	}
	if c.Assistant.RequestsPerMinute < 0 {
		return fmt.Errorf("assistant.requests_per_minute must not be negative")
	}
	if c.Assistant.MaxTokens < 0 {
		return fmt.Errorf("assistant.max_tokens must not be negative")
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Server.DedupeWindowRaw != "" {
		cfg.Server.DedupeWindow, err = time.ParseDuration(cfg.Server.DedupeWindowRaw)
		if err != nil {
			return fmt.Errorf("parsing dedupe_window %q: %w", cfg.Server.DedupeWindowRaw, err)
		}
	}

	if cfg.Assistant.TimeoutRaw != "" {
		cfg.Assistant.Timeout, err = time.ParseDuration(cfg.Assistant.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing timeout %q: %w", cfg.Assistant.TimeoutRaw, err)
		}
		if cfg.Assistant.Timeout <= 0 {
			return fmt.Errorf("assistant.timeout must be positive, got %q", cfg.Assistant.TimeoutRaw)
		}
	}

	return nil
}

// DefaultPath returns the config file location.
// Priority: CHEATSIGNAL_CONFIG env var > XDG_CONFIG_HOME/cheatsignal/config.yaml > ~/.config/cheatsignal/config.yaml
func DefaultPath() string {
	if envPath := os.Getenv("CHEATSIGNAL_CONFIG"); envPath != "" {
		return envPath
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cheatsignal", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "cheatsignal", "config.yaml")
}

// DefaultDataDir returns where the database and settings live by default.
// Priority: XDG_DATA_HOME/cheatsignal > ~/.local/share/cheatsignal
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "cheatsignal")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "cheatsignal")
}

// Example is the annotated config written by `cheatsignal init`.
const Example = `# cheatsignal configuration

server:
  http_addr: "127.0.0.1:8484"
  # A repeated request_id within this window replays the first result
  dedupe_window: "5m"

database:
  path: "${HOME}/.local/share/cheatsignal/cheatsignal.db"

settings:
  path: "${HOME}/.local/share/cheatsignal/settings.toml"
  watch: true

assistant:
  api_key: "${OPENAI_API_KEY}"
  model: "gpt-4"
  # base_url: "https://api.openai.com/v1"
  # prompt_file: "/path/to/ai_prompt.txt"
  timeout: "30s"
  requests_per_minute: 20
  max_tokens: 0

conversations:
  seed: true
  # inbound: inbound messages count while not viewed, sending clears
  # reset_on_append: every new message clears the count
  unread_policy: "inbound"
  preview_length: 120

logging:
  level: "info"
  format: "text"
`
