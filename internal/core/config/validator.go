package config

import (
	"fmt"

	"umlc/internal/core/errors"
	"umlc/internal/output"

	"github.com/gobwas/glob"
)

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return errors.Newf(errors.CodeValidationError, "unsupported config version %d", cfg.Version)
	}
	return nil
}

func validateInputs(cfg *Config) error {
	for i, p := range cfg.Inputs.Paths {
		if p == "" {
			return errors.Newf(errors.CodeValidationError, "inputs.paths[%d] is empty", i)
		}
	}
	for i, ext := range cfg.Inputs.Extensions {
		if ext == "" || ext == "." {
			return errors.Newf(errors.CodeValidationError, "inputs.extensions[%d] is empty", i)
		}
	}
	return nil
}

func validateExclude(cfg *Config) error {
	for _, group := range []struct {
		key      string
		patterns []string
	}{
		{"exclude.dirs", cfg.Exclude.Dirs},
		{"exclude.files", cfg.Exclude.Files},
	} {
		for i, pattern := range group.patterns {
			if _, err := glob.Compile(pattern); err != nil {
				return errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("%s[%d] %q is not a valid glob", group.key, i, pattern))
			}
		}
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return errors.New(errors.CodeValidationError, "watch.debounce must not be negative")
	}
	if cfg.Watch.MaxRebuildsPerSecond < 0 {
		return errors.New(errors.CodeValidationError, "watch.max_rebuilds_per_second must not be negative")
	}
	return nil
}

func validateOutput(cfg *Config) error {
	if cfg.Output.Dir == "" {
		return errors.New(errors.CodeValidationError, "output.dir is required")
	}
	seen := make(map[string]bool, len(cfg.Output.Formats))
	for i, format := range cfg.Output.Formats {
		if !output.IsSupported(format) {
			return errors.Newf(errors.CodeValidationError, "output.formats[%d] %q is not supported", i, format)
		}
		if seen[format] {
			return errors.Newf(errors.CodeValidationError, "output.formats lists %q twice", format)
		}
		seen[format] = true
	}
	return nil
}

func validateHistory(cfg *Config) error {
	if cfg.History.Enabled && cfg.History.Path == "" {
		return errors.New(errors.CodeValidationError, "history.path is required when history is enabled")
	}
	if cfg.History.Retention < 0 {
		return errors.New(errors.CodeValidationError, "history.retention must not be negative")
	}
	return nil
}

func validateLog(cfg *Config) error {
	switch cfg.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return errors.Newf(errors.CodeValidationError, "log.level %q must be one of debug, info, warn, error", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return errors.Newf(errors.CodeValidationError, "log.format %q must be text or json", cfg.Log.Format)
	}
	return nil
}

// Validate runs every section check and returns all failures.
func Validate(cfg *Config) []error {
	var errs []error
	for _, check := range []func(*Config) error{
		validateVersion,
		validateInputs,
		validateExclude,
		validateWatch,
		validateOutput,
		validateHistory,
		validateLog,
	} {
		if err := check(cfg); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
