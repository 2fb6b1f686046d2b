package config

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xyproto/env/v2"
)

// lookupFunc reports the value of an environment variable and whether it
// is set.
type lookupFunc func(key string) (string, bool)

func lookupEnv(key string) (string, bool) {
	if !env.Has(key) {
		return "", false
	}
	return env.Str(key), true
}

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: LOADSCRIPT_[SECTION]_[KEY] (e.g., LOADSCRIPT_OBSERVABILITY_ADDRESS).
func ApplyEnvOverrides(cfg *Config) {
	applyOverrides(cfg, lookupEnv)
}

func applyOverrides(cfg *Config, lookup lookupFunc) {
	setList(lookup, &cfg.Passes.Enabled, "LOADSCRIPT_PASSES_ENABLED")

	setBool(lookup, &cfg.Policy.FailOnIssues, "LOADSCRIPT_POLICY_FAIL_ON_ISSUES")

	setList(lookup, &cfg.Input.Paths, "LOADSCRIPT_INPUT_PATHS")
	setList(lookup, &cfg.Input.Include, "LOADSCRIPT_INPUT_INCLUDE")

	setString(lookup, &cfg.Output.Dir, "LOADSCRIPT_OUTPUT_DIR")
	setList(lookup, &cfg.Output.Formats, "LOADSCRIPT_OUTPUT_FORMATS")

	setDuration(lookup, &cfg.Watch.Debounce, "LOADSCRIPT_WATCH_DEBOUNCE")
	setFloat(lookup, &cfg.Watch.Rate, "LOADSCRIPT_WATCH_RATE")
	setInt(lookup, &cfg.Watch.Burst, "LOADSCRIPT_WATCH_BURST")

	setBool(lookup, &cfg.History.Enabled, "LOADSCRIPT_HISTORY_ENABLED")
	setString(lookup, &cfg.History.Path, "LOADSCRIPT_HISTORY_PATH")

	setBool(lookup, &cfg.Observability.Enabled, "LOADSCRIPT_OBSERVABILITY_ENABLED")
	setString(lookup, &cfg.Observability.Address, "LOADSCRIPT_OBSERVABILITY_ADDRESS")
	setString(lookup, &cfg.Observability.OTLPEndpoint, "LOADSCRIPT_OBSERVABILITY_OTLP_ENDPOINT")
	setString(lookup, &cfg.Observability.ServiceName, "LOADSCRIPT_OBSERVABILITY_SERVICE_NAME")
}

func setString(lookup lookupFunc, target *string, key string) {
	if val, ok := lookup(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

// setList splits a comma separated value.
func setList(lookup lookupFunc, target *[]string, key string) {
	val, ok := lookup(key)
	if !ok {
		return
	}
	var items []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	slog.Debug("applying env override", "key", key, "value", val)
	*target = items
}

func setInt(lookup lookupFunc, target *int, key string) {
	if val, ok := lookup(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setFloat(lookup lookupFunc, target *float64, key string) {
	if val, ok := lookup(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setBool(lookup lookupFunc, target *bool, key string) {
	if val, ok := lookup(key); ok {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setDuration(lookup lookupFunc, target *time.Duration, key string) {
	if val, ok := lookup(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
