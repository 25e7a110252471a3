// Package config loads umlc.toml.
package config

import (
	"log/slog"
	"strings"
	"time"
)

const DefaultFile = "umlc.toml"

type Config struct {
	Version       int           `toml:"version"`
	Inputs        Inputs        `toml:"inputs"`
	Exclude       Exclude       `toml:"exclude"`
	Watch         Watch         `toml:"watch"`
	Output        Output        `toml:"output"`
	History       History       `toml:"history"`
	Observability Observability `toml:"observability"`
	Log           Log           `toml:"log"`
}

type Inputs struct {
	Paths      []string `toml:"paths"`
	Extensions []string `toml:"extensions"`
}

// Exclude holds glob patterns; dirs match directory base names, files match
// file base names.
type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Watch struct {
	Debounce             time.Duration `toml:"debounce"`
	MaxRebuildsPerSecond float64       `toml:"max_rebuilds_per_second"`
	Burst                int           `toml:"burst"`
	ReloadConfig         bool          `toml:"reload_config"`
}

type Output struct {
	Dir     string   `toml:"dir"`
	Formats []string `toml:"formats"`
}

type History struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
	// Retention keeps the newest N runs; 0 keeps everything.
	Retention int `toml:"retention"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
	ServiceName  string `toml:"service_name"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultConfig is the configuration used when no file exists.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// SlogLevel maps Log.Level onto slog; unknown values mean info.
func (l Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// HasExtension reports whether path ends with one of the configured input
// extensions (case-insensitive).
func (in Inputs) HasExtension(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range in.Extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}
