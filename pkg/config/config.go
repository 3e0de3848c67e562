package config

import (
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/billingmock/pkg/schema"
)

// Mode selects the strategy that serves requests.
type Mode string

const (
	ModeMock Mode = "mock"
	ModeLive Mode = "live"
)

// Determinism gates locally derived identifiers such as fingerprints.
type Determinism string

const (
	DeterminismLocal       Determinism = "local"
	DeterminismPassthrough Determinism = "passthrough"
)

// Defaults.
const (
	DefaultCurrency       = "usd"
	DefaultMaxPageSize    = 100
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxConcurrency = 4
)

// Config is the full process configuration.
type Config struct {
	Mode            Mode          `yaml:"mode" json:"mode" validate:"required,oneof=mock live"`
	Determinism     Determinism   `yaml:"determinism" json:"determinism" validate:"required,oneof=local passthrough"`
	DefaultCurrency string        `yaml:"defaultCurrency" json:"defaultCurrency" validate:"required,len=3,lowercase"`
	MaxPageSize     int           `yaml:"maxPageSize" json:"maxPageSize" validate:"min=1,max=1000"`
	IdempotencyTTL  time.Duration `yaml:"idempotencyTTL" json:"idempotencyTTL" validate:"min=0"`
	Live            LiveConfig    `yaml:"live" json:"live"`
	Logging         LoggingConfig `yaml:"logging" json:"logging"`
	// Kinds declares extra resource kinds on top of the built-in ones.
	Kinds []schema.Definition `yaml:"kinds,omitempty" json:"kinds,omitempty" validate:"dive"`
}

// LiveConfig configures forwarding to the real billing API.
type LiveConfig struct {
	APIKey         string `yaml:"apiKey" json:"-"`
	MaxConcurrency int    `yaml:"maxConcurrency" json:"maxConcurrency" validate:"min=1,max=64"`
}

// LoggingConfig mirrors logging.Config in file form.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level" validate:"omitempty,oneof=debug info warn warning error DEBUG INFO WARN WARNING ERROR"`
	Format string `yaml:"format" json:"format" validate:"omitempty,oneof=text json TEXT JSON"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Mode:            ModeMock,
		Determinism:     DeterminismLocal,
		DefaultCurrency: DefaultCurrency,
		MaxPageSize:     DefaultMaxPageSize,
		IdempotencyTTL:  DefaultIdempotencyTTL,
		Live:            LiveConfig{MaxConcurrency: DefaultMaxConcurrency},
		Logging:         LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads path (when non-empty) over the defaults, applies the
// environment and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "reading config %s", path)
		}
		if err := Parse(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parsing config %s", path)
		}
	}
	ApplyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML data into cfg, keeping values the document omits.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	cfg.DefaultCurrency = strings.ToLower(cfg.DefaultCurrency)
	return nil
}

// Validate checks the struct tags and cross-field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	if c.Mode == ModeLive && c.Live.APIKey == "" {
		return errors.WithHint(
			errors.New("invalid configuration: live mode requires live.apiKey"),
			"set live.apiKey or "+EnvAPIKey)
	}
	return nil
}

// Registry builds the kind registry: built-in kinds plus c.Kinds.
func (c *Config) Registry() (*schema.Registry, error) {
	reg := schema.NewBuiltinRegistry()
	for i := range c.Kinds {
		k, err := c.Kinds[i].Kind()
		if err != nil {
			return nil, errors.Wrapf(err, "kind %q", c.Kinds[i].Name)
		}
		if err := reg.Register(k); err != nil {
			return nil, err
		}
	}
	if err := reg.CheckReferences(); err != nil {
		return nil, err
	}
	return reg, nil
}
