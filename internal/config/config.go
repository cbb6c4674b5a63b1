package config

import "time"

// Config is the root configuration for Beacon.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Summarize SummarizeConfig `yaml:"summarize"`
	Notifier  NotifierConfig  `yaml:"notifier"`
	Editor    EditorConfig    `yaml:"editor"`
	Tunnel    TunnelConfig    `yaml:"tunnel"`
}

type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type SummarizeConfig struct {
	// Enabled gates the enrichment pipeline independently of whether a
	// backend is actually reachable.
	Enabled bool `yaml:"enabled"`
	// Provider selects the backend: "claude-cli" or "anthropic".
	Provider string `yaml:"provider"`
	// MinLength is the message length above which summarization runs.
	MinLength int `yaml:"min_length"`
	// ClaudePath is the claude binary for the claude-cli provider.
	ClaudePath string `yaml:"claude_path"`
	// Model overrides the provider's default model.
	Model string `yaml:"model"`
	// APIKey authenticates the anthropic provider. Usually supplied via
	// ANTHROPIC_API_KEY rather than the config file.
	APIKey string `yaml:"api_key"`
	// Timeout bounds one summarization call.
	Timeout time.Duration `yaml:"timeout"`
}

type NotifierConfig struct {
	Enabled bool `yaml:"enabled"`
}

type EditorConfig struct {
	// CodeCmd opens a project directory in the user's editor, both for
	// the focus-window endpoint and for notification click actions.
	CodeCmd string `yaml:"code_cmd"`
}

type TunnelConfig struct {
	Enabled   bool   `yaml:"enabled"`
	AuthToken string `yaml:"authtoken"`
	Domain    string `yaml:"domain"`
}

// Defaults returns a Config with sensible default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "127.0.0.1",
			Port:     23000,
			LogLevel: "info",
		},
		Store: StoreConfig{
			Path: "~/.config/beacon/notifications.json",
		},
		Summarize: SummarizeConfig{
			Enabled:    true,
			Provider:   "claude-cli",
			MinLength:  80,
			ClaudePath: "claude",
			Timeout:    30 * time.Second,
		},
		Notifier: NotifierConfig{
			Enabled: true,
		},
		Editor: EditorConfig{
			CodeCmd: "code-insiders",
		},
	}
}
