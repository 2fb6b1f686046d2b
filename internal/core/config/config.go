package config

import (
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const DefaultFile = "loadscript.toml"

type Config struct {
	Version       int           `toml:"version"`
	Passes        Passes        `toml:"passes"`
	Policy        Policy        `toml:"policy"`
	Input         Input         `toml:"input"`
	Output        Output        `toml:"output"`
	Watch         Watch         `toml:"watch"`
	History       History       `toml:"history"`
	Observability Observability `toml:"observability"`
}

type Passes struct {
	// Enabled lists pass names in run order.
	Enabled []string `toml:"enabled"`
}

type Policy struct {
	FailOnIssues bool `toml:"fail_on_issues"`
}

type Input struct {
	Paths        []string `toml:"paths"`
	Include      []string `toml:"include"` // glob patterns matched against the base name
	ExcludeDirs  []string `toml:"exclude_dirs"`
	ExcludeFiles []string `toml:"exclude_files"`
}

type Output struct {
	Dir     string   `toml:"dir"`
	Formats []string `toml:"formats"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
	Rate     float64       `toml:"rate"` // conversions per second
	Burst    int           `toml:"burst"`
}

type History struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Observability struct {
	Enabled      bool   `toml:"enabled"`
	Address      string `toml:"address"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
	ServiceName  string `toml:"service_name"`
}

// Load reads the TOML file at path, applies defaults and environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

// Parse is Load without the file read.
func Parse(data string) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	ApplyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if len(cfg.Passes.Enabled) == 0 {
		cfg.Passes.Enabled = []string{"merge-declarations", "hoist-variables", "merge-declarations"}
	}

	if len(cfg.Input.Paths) == 0 {
		cfg.Input.Paths = []string{"."}
	}
	if len(cfg.Input.Include) == 0 {
		cfg.Input.Include = []string{"*.json"}
	}
	if len(cfg.Input.ExcludeDirs) == 0 {
		cfg.Input.ExcludeDirs = []string{".git", "node_modules", "out"}
	}

	if strings.TrimSpace(cfg.Output.Dir) == "" {
		cfg.Output.Dir = "out"
	}
	if len(cfg.Output.Formats) == 0 {
		cfg.Output.Formats = []string{"json", "text"}
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.Rate <= 0 {
		cfg.Watch.Rate = 5
	}
	if cfg.Watch.Burst <= 0 {
		cfg.Watch.Burst = 10
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = "loadscript-history.db"
	}
	if cfg.History.BusyTimeout <= 0 {
		cfg.History.BusyTimeout = 5 * time.Second
	}

	if strings.TrimSpace(cfg.Observability.Address) == "" {
		cfg.Observability.Address = "127.0.0.1:9464"
	}
	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "loadscript"
	}
}
