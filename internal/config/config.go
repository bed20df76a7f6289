// Package config loads the agent7 client configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the client configuration.
type Config struct {
	// Server is the base URL of the Agent7 server.
	Server string `yaml:"server"`
	// PushPath is the WebSocket path of the push channel. The endpoint must
	// speak plain WebSocket with {"event","data"} JSON text frames; a
	// Socket.IO server needs a bridge in front of it.
	PushPath string `yaml:"push_path"`
	// StatusIntervalMS is the status poll period in milliseconds.
	StatusIntervalMS int `yaml:"status_interval_ms"`
	// StatsIntervalMS is the stats poll period in milliseconds.
	StatsIntervalMS int `yaml:"stats_interval_ms"`
	// ReconnectDelayMS is the fixed wait before redialing the push channel.
	ReconnectDelayMS int `yaml:"reconnect_delay_ms"`
	// RequestTimeoutMS bounds every HTTP request.
	RequestTimeoutMS int `yaml:"request_timeout_ms"`
	// FileListLimit is the maximum number of files rendered.
	FileListLimit int `yaml:"file_list_limit"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// LogFile receives logs while the TUI owns the terminal.
	LogFile string `yaml:"log_file"`
	// DataDir holds the local recent-projects database.
	DataDir string `yaml:"data_dir"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	dir := defaultDir()
	return &Config{
		Server:           "http://127.0.0.1:5000",
		PushPath:         "/ws",
		StatusIntervalMS: 5000,
		StatsIntervalMS:  10000,
		ReconnectDelayMS: 2000,
		RequestTimeoutMS: 10000,
		FileListLimit:    50,
		LogLevel:         "info",
		LogFile:          filepath.Join(dir, "agent7.log"),
		DataDir:          dir,
	}
}

func defaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".agent7"
	}
	return filepath.Join(home, ".agent7")
}

// DefaultPath returns ~/.agent7/config.yaml.
func DefaultPath() string {
	return filepath.Join(defaultDir(), "config.yaml")
}

// LoadConfig loads configuration from a YAML file. A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadConfigFromHome loads configuration from ~/.agent7/config.yaml.
func LoadConfigFromHome() (*Config, error) {
	return LoadConfig(DefaultPath())
}

// SaveConfig saves configuration to a YAML file, creating parent directories if needed.
func SaveConfig(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server must be an http(s) URL, got %q", c.Server)
	}
	if c.PushPath == "" || c.PushPath[0] != '/' {
		return fmt.Errorf("push_path must start with '/', got %q", c.PushPath)
	}
	if c.StatusIntervalMS < 100 {
		return fmt.Errorf("status_interval_ms must be at least 100")
	}
	if c.StatsIntervalMS < 100 {
		return fmt.Errorf("stats_interval_ms must be at least 100")
	}
	if c.ReconnectDelayMS < 0 {
		return fmt.Errorf("reconnect_delay_ms cannot be negative")
	}
	if c.RequestTimeoutMS < 1 {
		return fmt.Errorf("request_timeout_ms must be at least 1")
	}
	if c.FileListLimit < 1 {
		return fmt.Errorf("file_list_limit must be at least 1")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be: debug, info, warn, or error", c.LogLevel)
	}

	return nil
}

// StatusInterval returns the status poll period.
func (c *Config) StatusInterval() time.Duration {
	return time.Duration(c.StatusIntervalMS) * time.Millisecond
}

// StatsInterval returns the stats poll period.
func (c *Config) StatsInterval() time.Duration {
	return time.Duration(c.StatsIntervalMS) * time.Millisecond
}

// ReconnectDelay returns the push channel redial delay.
func (c *Config) ReconnectDelay() time.Duration {
	return time.Duration(c.ReconnectDelayMS) * time.Millisecond
}

// RequestTimeout returns the HTTP request timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// PushURL derives the ws(s):// push channel URL from Server and PushPath.
func (c *Config) PushURL() (string, error) {
	u, err := url.Parse(c.Server)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = c.PushPath
	return u.String(), nil
}

// DBPath returns the path of the recent-projects database.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "agent7.db")
}
