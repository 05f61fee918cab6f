// Package config holds the engine settings, loaded from YAML with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"digital.vasic.snippetcheck/pkg/env"
	"digital.vasic.snippetcheck/pkg/logging"
	"digital.vasic.snippetcheck/pkg/normalize"
	"digital.vasic.snippetcheck/pkg/runner"
	"digital.vasic.snippetcheck/pkg/sandbox"

	"gopkg.in/yaml.v3"
)

// ErrConfiguration is wrapped by every validation failure.
var ErrConfiguration = errors.New("invalid configuration")

// Config is the complete engine configuration.
type Config struct {
	// Timeout bounds each test case and the loading of the
	// snippet.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// Dialect is the source dialect assumed when the caller does
	// not name one: typescript or javascript.
	Dialect string `yaml:"dialect" json:"dialect"`

	// StripOnly rejects TypeScript constructs that need code
	// generation, such as enums.
	StripOnly bool `yaml:"strip_only" json:"strip_only"`

	MaxCallStackSize int `yaml:"max_call_stack_size" json:"max_call_stack_size"`
	ConsoleLimit     int `yaml:"console_limit" json:"console_limit"`

	// MaxSourceBytes and MaxNestingDepth reject snippets before
	// they are parsed.
	MaxSourceBytes  int `yaml:"max_source_bytes" json:"max_source_bytes"`
	MaxNestingDepth int `yaml:"max_nesting_depth" json:"max_nesting_depth"`

	// MaxResultDepth and MaxResultElements bound a value returned
	// by the snippet.
	MaxResultDepth    int `yaml:"max_result_depth" json:"max_result_depth"`
	MaxResultElements int `yaml:"max_result_elements" json:"max_result_elements"`

	// Concurrency bounds RunBatch.
	Concurrency int `yaml:"concurrency" json:"concurrency"`

	Log     LogConfig     `yaml:"log" json:"log"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	Monitor MonitorConfig `yaml:"monitor" json:"monitor"`
}

// LogConfig selects the logger.
type LogConfig struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"`
	OutputPath string `yaml:"output_path" json:"output_path"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Namespace string `yaml:"namespace" json:"namespace"`
}

// MonitorConfig controls the live run monitor. An empty Addr
// disables it.
type MonitorConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Timeout:           runner.DefaultTimeout,
		Dialect:           string(normalize.TypeScript),
		StripOnly:         true,
		MaxCallStackSize:  sandbox.DefaultMaxCallStackSize,
		ConsoleLimit:      sandbox.DefaultConsoleLimit,
		MaxSourceBytes:    normalize.DefaultMaxSourceBytes,
		MaxNestingDepth:   normalize.DefaultMaxNestingDepth,
		MaxResultDepth:    sandbox.DefaultMaxResultDepth,
		MaxResultElements: sandbox.DefaultMaxResultElements,
		Concurrency:       4,
		Log: LogConfig{
			Level:  "info",
			Format: "zap",
		},
		Metrics: MetricsConfig{
			Namespace: "snippetcheck",
		},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the
// file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf(
			"%w: parse %s: %v", ErrConfiguration, path, err,
		)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg from SNIPPETCHECK_* variables resolved
// through l.
func (c *Config) ApplyEnv(l *env.DefaultLoader) error {
	var errs []error

	if d, ok, err := l.GetMillis("timeout_ms"); err != nil {
		errs = append(errs, err)
	} else if ok {
		c.Timeout = d
	}
	if v := l.Get("dialect"); v != "" {
		c.Dialect = v
	}
	if b, ok, err := l.GetBool("strip_only"); err != nil {
		errs = append(errs, err)
	} else if ok {
		c.StripOnly = b
	}
	for _, f := range []struct {
		key string
		dst *int
	}{
		{"max_call_stack_size", &c.MaxCallStackSize},
		{"console_limit", &c.ConsoleLimit},
		{"max_source_bytes", &c.MaxSourceBytes},
		{"max_nesting_depth", &c.MaxNestingDepth},
		{"max_result_depth", &c.MaxResultDepth},
		{"max_result_elements", &c.MaxResultElements},
		{"concurrency", &c.Concurrency},
	} {
		if n, ok, err := l.GetInt(f.key); err != nil {
			errs = append(errs, err)
		} else if ok {
			*f.dst = n
		}
	}
	if v := l.Get("log_level"); v != "" {
		c.Log.Level = v
	}
	if v := l.Get("log_format"); v != "" {
		c.Log.Format = v
	}
	if v := l.Get("log_output"); v != "" {
		c.Log.OutputPath = v
	}
	if b, ok, err := l.GetBool("metrics_enabled"); err != nil {
		errs = append(errs, err)
	} else if ok {
		c.Metrics.Enabled = b
	}
	if v := l.Get("monitor_addr"); v != "" {
		c.Monitor.Addr = v
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	var errs []error
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %v", c.Timeout))
	}
	if _, err := normalize.ParseDialect(c.Dialect); err != nil {
		errs = append(errs, err)
	}
	if c.MaxCallStackSize <= 0 {
		errs = append(errs, errors.New("max_call_stack_size must be positive"))
	}
	if c.ConsoleLimit <= 0 {
		errs = append(errs, errors.New("console_limit must be positive"))
	}
	if c.MaxSourceBytes <= 0 {
		errs = append(errs, errors.New("max_source_bytes must be positive"))
	}
	if c.MaxNestingDepth <= 0 {
		errs = append(errs, errors.New("max_nesting_depth must be positive"))
	}
	if c.MaxResultDepth <= 0 {
		errs = append(errs, errors.New("max_result_depth must be positive"))
	}
	if c.MaxResultElements <= 0 {
		errs = append(errs, errors.New("max_result_elements must be positive"))
	}
	if c.Concurrency <= 0 {
		errs = append(errs, errors.New("concurrency must be positive"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "", "zap", "json", "console", "none":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return nil
}

// ParsedDialect returns Dialect as a normalize.Dialect. It assumes
// Validate has passed and falls back to TypeScript otherwise.
func (c Config) ParsedDialect() normalize.Dialect {
	d, err := normalize.ParseDialect(c.Dialect)
	if err != nil {
		return normalize.TypeScript
	}
	return d
}

// LoggingOptions converts the log section for logging.New.
func (c Config) LoggingOptions() logging.Options {
	return logging.Options{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		OutputPath: c.Log.OutputPath,
	}
}
