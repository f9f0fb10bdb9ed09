package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/loykin/procdash/internal/logger"
)

// Defaults applied when the config file omits a value.
const (
	DefaultServerURL     = "http://localhost:8080"
	DefaultServerTimeout = 10 * time.Second
	DefaultInterval      = 5 * time.Second
	DefaultWebListen     = ":8081"
	DefaultMetricsListen = ":9090"
)

// FileConfig represents the top-level TOML structure.
type FileConfig struct {
	Server  ServerConfig  `toml:"server" mapstructure:"server"`
	Refresh RefreshConfig `toml:"refresh" mapstructure:"refresh"`
	Bulk    BulkConfig    `toml:"bulk" mapstructure:"bulk"`
	Log     logger.Config `toml:"log" mapstructure:"log"`
	Metrics MetricsConfig `toml:"metrics" mapstructure:"metrics"`
	History HistoryConfig `toml:"history" mapstructure:"history"`
	Web     WebConfig     `toml:"web" mapstructure:"web"`
}

// ServerConfig points at the supervisor daemon's command API.
type ServerConfig struct {
	URL      string        `toml:"url" mapstructure:"url"`
	Timeout  time.Duration `toml:"timeout" mapstructure:"timeout"`
	Token    string        `toml:"token" mapstructure:"token"`
	CACert   string        `toml:"ca_cert" mapstructure:"ca_cert"`
	Insecure bool          `toml:"insecure" mapstructure:"insecure"`
}

// RefreshConfig controls the reconciliation cadence.
type RefreshConfig struct {
	Interval time.Duration `toml:"interval" mapstructure:"interval"`
	Enabled  bool          `toml:"enabled" mapstructure:"enabled"`
}

// BulkConfig bounds bulk dispatch fan-out; 0 means unbounded.
type BulkConfig struct {
	MaxConcurrent int `toml:"max_concurrent" mapstructure:"max_concurrent"`
}

type MetricsConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Listen  string `toml:"listen" mapstructure:"listen"`
}

// HistoryConfig selects an optional event sink by DSN
// (sqlite path, postgres:// or clickhouse:// URL).
type HistoryConfig struct {
	DSN string `toml:"dsn" mapstructure:"dsn"`
}

// WebConfig configures the embedded web dashboard server.
type WebConfig struct {
	Listen   string `toml:"listen" mapstructure:"listen"`
	BasePath string `toml:"base_path" mapstructure:"base_path"`
	WebRoot  string `toml:"web_root" mapstructure:"web_root"`
}

// Default returns a FileConfig with every default applied.
func Default() FileConfig {
	var fc FileConfig
	fc.Refresh.Enabled = true
	fc.applyDefaults()
	return fc
}

func (fc *FileConfig) applyDefaults() {
	if fc.Server.URL == "" {
		fc.Server.URL = DefaultServerURL
	}
	if fc.Server.Timeout <= 0 {
		fc.Server.Timeout = DefaultServerTimeout
	}
	if fc.Refresh.Interval <= 0 {
		fc.Refresh.Interval = DefaultInterval
	}
	if fc.Bulk.MaxConcurrent < 0 {
		fc.Bulk.MaxConcurrent = 0
	}
	if fc.Web.Listen == "" {
		fc.Web.Listen = DefaultWebListen
	}
	if fc.Metrics.Listen == "" {
		fc.Metrics.Listen = DefaultMetricsListen
	}
}

// Load reads the TOML config at path and applies defaults for anything
// the file omits.
func Load(path string) (FileConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return FileConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var fc FileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return FileConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	// Auto-refresh is on unless the file turns it off explicitly.
	if !v.IsSet("refresh.enabled") {
		fc.Refresh.Enabled = true
	}
	fc.applyDefaults()
	return fc, nil
}
