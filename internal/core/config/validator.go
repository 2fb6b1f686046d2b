package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/gobwas/glob"
)

var knownPasses = map[string]bool{
	"merge-declarations": true,
	"hoist-variables":    true,
}

var knownFormats = map[string]bool{
	"json":  true,
	"sarif": true,
	"text":  true,
}

// Validate checks cfg and returns every problem found, joined.
func Validate(cfg *Config) error {
	var errs []error
	for _, check := range []func(*Config) error{
		validateVersion,
		validatePasses,
		validateInput,
		validateOutput,
		validateWatch,
		validateHistory,
		validateObservability,
	} {
		if err := check(cfg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validatePasses(cfg *Config) error {
	for i, name := range cfg.Passes.Enabled {
		name = strings.TrimSpace(name)
		if !knownPasses[name] {
			return fmt.Errorf("passes.enabled[%d]: unknown pass %q", i, name)
		}
	}
	return nil
}

func validateInput(cfg *Config) error {
	for i, p := range cfg.Input.Paths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("input.paths[%d] must not be empty", i)
		}
	}
	for _, group := range []struct {
		key      string
		patterns []string
	}{
		{"input.include", cfg.Input.Include},
		{"input.exclude_files", cfg.Input.ExcludeFiles},
	} {
		for i, pattern := range group.patterns {
			if _, err := glob.Compile(pattern); err != nil {
				return fmt.Errorf("%s[%d]: invalid glob %q: %w", group.key, i, pattern, err)
			}
		}
	}
	return nil
}

func validateOutput(cfg *Config) error {
	if strings.TrimSpace(cfg.Output.Dir) == "" {
		return fmt.Errorf("output.dir must not be empty")
	}
	for i, format := range cfg.Output.Formats {
		if !knownFormats[strings.ToLower(strings.TrimSpace(format))] {
			return fmt.Errorf("output.formats[%d] must be one of: json, sarif, text; got %q", i, format)
		}
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if cfg.Watch.Burst < 1 {
		return fmt.Errorf("watch.burst must be >= 1, got %d", cfg.Watch.Burst)
	}
	return nil
}

func validateHistory(cfg *Config) error {
	if cfg.History.Enabled && strings.TrimSpace(cfg.History.Path) == "" {
		return fmt.Errorf("history.path must not be empty when history.enabled=true")
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if !cfg.Observability.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(cfg.Observability.Address); err != nil {
		return fmt.Errorf("observability.address %q must be host:port: %w", cfg.Observability.Address, err)
	}
	return nil
}
