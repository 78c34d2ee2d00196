// Package config loads the pageflow site configuration: a YAML file with
// environment variable expansion, plus optional .env loading.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/pageflow/internal/observability"
)

// Config is the full site configuration.
type Config struct {
	// SourceDir is the directory content and file-based data sources resolve
	// against.
	SourceDir string `yaml:"sourceDir"`

	// OutputDir receives the build manifest.
	OutputDir string `yaml:"outputDir"`

	// LogLevel is one of debug, info, warn, error, silent.
	LogLevel string `yaml:"logLevel"`

	// Data maps namespaces to data files resolved against SourceDir.
	Data map[string]string `yaml:"data"`

	// Ignore lists glob patterns for pages to tag as ignored.
	Ignore []string `yaml:"ignore"`

	// Metadata lists metadata directives applied in declaration order.
	Metadata []MetadataRule `yaml:"metadata"`

	// Layouts lists layout directives applied in declaration order.
	Layouts []LayoutRule `yaml:"layouts"`

	// Render controls the built-in markdown transform.
	Render RenderConfig `yaml:"render"`

	// Source optionally pulls content from a git repository before building.
	Source SourceConfig `yaml:"source"`

	// Store optionally persists run events to SQLite.
	Store StoreConfig `yaml:"store"`

	// Events optionally mirrors run events to NATS.
	Events EventsConfig `yaml:"events"`

	// Metrics optionally exposes Prometheus metrics over HTTP in daemon mode.
	Metrics MetricsConfig `yaml:"metrics"`

	// Watch configures watch and daemon modes.
	Watch WatchConfig `yaml:"watch"`
}

// MetadataRule merges Values into pages matching Pattern.
type MetadataRule struct {
	Pattern string         `yaml:"pattern"`
	Values  map[string]any `yaml:"values"`
}

// LayoutRule assigns Layout to pages matching Pattern.
type LayoutRule struct {
	Pattern string `yaml:"pattern"`
	Layout  string `yaml:"layout"`
}

// RenderConfig controls the built-in markdown transform.
type RenderConfig struct {
	Enabled bool   `yaml:"enabled"`
	Pattern string `yaml:"pattern"`
}

// SourceConfig points at a git repository holding the content tree.
type SourceConfig struct {
	Repo   string `yaml:"repo"`
	Branch string `yaml:"branch"`
}

// StoreConfig configures run event persistence.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// EventsConfig configures the NATS event mirror.
type EventsConfig struct {
	NATSURL string `yaml:"natsUrl"`
	Subject string `yaml:"subject"`
}

// MetricsConfig configures the metrics HTTP listener.
type MetricsConfig struct {
	// Addr is the listen address (":9090"). Empty disables the listener.
	Addr string `yaml:"addr"`
}

// WatchConfig configures watch/daemon rebuild behavior.
type WatchConfig struct {
	// Debounce is how long to wait after the last filesystem change before
	// rebuilding, in milliseconds. Zero means 500.
	DebounceMS int `yaml:"debounceMs"`

	// RebuildEvery is a gocron interval ("30m", "1h") for scheduled full
	// rebuilds in daemon mode. Empty disables scheduling.
	RebuildEvery string `yaml:"rebuildEvery"`
}

// Load reads and validates the configuration at path. A .env or .env.local
// next to the working directory is loaded first (existing process env wins),
// then ${VAR} references in the YAML are expanded.
func Load(path string) (*Config, error) {
	loadDotenv()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", path)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotenv loads .env then .env.local without overriding process env.
// Missing files are fine.
func loadDotenv() {
	for _, name := range []string{".env", ".env.local"} {
		if _, err := os.Stat(name); err == nil {
			_ = godotenv.Load(name)
		}
	}
}

func (c *Config) applyDefaults() {
	if c.SourceDir == "" {
		c.SourceDir = "."
	}
	if c.OutputDir == "" {
		c.OutputDir = "./site"
	}
	if c.Render.Pattern == "" {
		c.Render.Pattern = "**/*.md"
	}
	if c.Source.Repo != "" && c.Source.Branch == "" {
		c.Source.Branch = "main"
	}
	if c.Watch.DebounceMS <= 0 {
		c.Watch.DebounceMS = 500
	}
}

func (c *Config) validate() error {
	if _, err := observability.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for _, rule := range c.Metadata {
		if rule.Pattern == "" {
			return fmt.Errorf("invalid config: metadata rule without pattern")
		}
	}
	for _, rule := range c.Layouts {
		if rule.Pattern == "" || rule.Layout == "" {
			return fmt.Errorf("invalid config: layout rule requires pattern and layout")
		}
	}
	return nil
}
