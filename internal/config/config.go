// Package config resolves runtime settings from defaults, an optional YAML
// file, a .env file and the process environment, in that order of precedence
// (later sources win).
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	DataDir string `yaml:"data_dir"`
	Storage string `yaml:"storage"`

	Reply  ReplyConfig  `yaml:"reply"`
	Typing TypingConfig `yaml:"typing"`

	LogFormat string `yaml:"log_format"`
	LogLevel  string `yaml:"log_level"`

	Tracing TracingConfig `yaml:"tracing"`
}

// ReplyConfig tunes the simulated remote participants.
type ReplyConfig struct {
	Probability float64       `yaml:"probability"`
	MinDelay    time.Duration `yaml:"min_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
	Script      string        `yaml:"script"`
}

// TypingConfig tunes the local typing indicator.
type TypingConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// TracingConfig controls OpenTelemetry tracing of pub/sub traffic.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	ZipkinURL   string  `yaml:"zipkin_url"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		DataDir: ".mochachat",
		Storage: "file",
		Reply: ReplyConfig{
			Probability: 0.7,
			MinDelay:    time.Second,
			MaxDelay:    4 * time.Second,
		},
		Typing:    TypingConfig{Debounce: 500 * time.Millisecond},
		LogFormat: "text",
		LogLevel:  "info",
		Tracing: TracingConfig{
			ServiceName: "mochachat",
			ZipkinURL:   "http://localhost:9411/api/v2/spans",
			SampleRatio: 1,
		},
	}
}

// Load builds the configuration. path names an optional YAML file; an empty
// path skips it, a missing file is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	ratio := func(key string, dst *float64) {
		if v, ok := lookup(key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
				return
			}
			*dst = f
		}
	}

	str("MOCHA_DATA_DIR", &c.DataDir)
	str("MOCHA_STORAGE", &c.Storage)
	str("MOCHA_REPLY_SCRIPT", &c.Reply.Script)
	str("LOG_FORMAT", &c.LogFormat)
	str("LOG_LEVEL", &c.LogLevel)
	str("PUBSUB_TRACING_SERVICE_NAME", &c.Tracing.ServiceName)
	str("PUBSUB_TRACING_ZIPKIN_URL", &c.Tracing.ZipkinURL)

	dur("MOCHA_REPLY_MIN_DELAY", &c.Reply.MinDelay)
	dur("MOCHA_REPLY_MAX_DELAY", &c.Reply.MaxDelay)
	dur("MOCHA_TYPING_DEBOUNCE", &c.Typing.Debounce)

	ratio("MOCHA_REPLY_PROBABILITY", &c.Reply.Probability)
	ratio("PUBSUB_TRACING_SAMPLE_RATIO", &c.Tracing.SampleRatio)
	if v, ok := lookup("PUBSUB_TRACING_ENABLED"); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid PUBSUB_TRACING_ENABLED: %w", err))
		} else {
			c.Tracing.Enabled = enabled
		}
	}

	return errors.Join(errs...)
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("data dir must not be empty"))
	}
	switch c.Storage {
	case "file", "pebble", "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage))
	}
	if c.Reply.Probability < 0 || c.Reply.Probability > 1 {
		errs = append(errs, fmt.Errorf("reply probability %v outside [0,1]", c.Reply.Probability))
	}
	if c.Reply.MinDelay < 0 || c.Reply.MaxDelay < 0 {
		errs = append(errs, errors.New("reply delays must not be negative"))
	}
	if c.Reply.MinDelay > c.Reply.MaxDelay {
		errs = append(errs, fmt.Errorf("reply min delay %s exceeds max delay %s", c.Reply.MinDelay, c.Reply.MaxDelay))
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("tracing sample ratio %v outside [0,1]", c.Tracing.SampleRatio))
	}
	if c.Typing.Debounce < 0 {
		errs = append(errs, errors.New("typing debounce must not be negative"))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}
