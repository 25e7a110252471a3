package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: UMLC_[SECTION]_[KEY] (e.g., UMLC_OUTPUT_DIR).
func ApplyEnvOverrides(cfg *Config) {
	setEnvList(&cfg.Inputs.Paths, "UMLC_INPUTS_PATHS")
	setEnvList(&cfg.Output.Formats, "UMLC_OUTPUT_FORMATS")
	setEnvString(&cfg.Output.Dir, "UMLC_OUTPUT_DIR")

	setEnvDuration(&cfg.Watch.Debounce, "UMLC_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.MaxRebuildsPerSecond, "UMLC_WATCH_MAX_REBUILDS_PER_SECOND")

	setEnvBool(&cfg.History.Enabled, "UMLC_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "UMLC_HISTORY_PATH")

	setEnvString(&cfg.Observability.MetricsAddr, "UMLC_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "UMLC_OBSERVABILITY_OTLP_ENDPOINT")

	setEnvString(&cfg.Log.Level, "UMLC_LOG_LEVEL")
	setEnvString(&cfg.Log.Format, "UMLC_LOG_FORMAT")

	normalize(cfg)
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		var items []string
		for _, item := range strings.Split(val, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		if len(items) > 0 {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = items
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
