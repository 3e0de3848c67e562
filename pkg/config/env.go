package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variable names.
const (
	EnvMode           = "BILLINGMOCK_MODE"
	EnvDeterminism    = "BILLINGMOCK_DETERMINISM"
	EnvCurrency       = "BILLINGMOCK_CURRENCY"
	EnvMaxPageSize    = "BILLINGMOCK_MAX_PAGE_SIZE"
	EnvIdempotencyTTL = "BILLINGMOCK_IDEMPOTENCY_TTL"
	EnvAPIKey         = "BILLINGMOCK_API_KEY"
	EnvMaxConcurrency = "BILLINGMOCK_MAX_CONCURRENCY"
	EnvLogLevel       = "BILLINGMOCK_LOG_LEVEL"
	EnvLogFormat      = "BILLINGMOCK_LOG_FORMAT"
)

// ApplyEnv overlays the environment on cfg. Only variables that are set
// and parse cleanly take effect.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvMode); v != "" {
		cfg.Mode = Mode(strings.ToLower(v))
	}
	if v := os.Getenv(EnvDeterminism); v != "" {
		cfg.Determinism = Determinism(strings.ToLower(v))
	}
	if v := os.Getenv(EnvCurrency); v != "" {
		cfg.DefaultCurrency = strings.ToLower(v)
	}
	if v := os.Getenv(EnvMaxPageSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxPageSize = n
		}
	}
	if v := os.Getenv(EnvIdempotencyTTL); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.IdempotencyTTL = d
		}
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		cfg.Live.APIKey = v
	}
	if v := os.Getenv(EnvMaxConcurrency); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Live.MaxConcurrency = n
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Logging.Format = v
	}
}

// EnvConfigFile names a config file when --config is not given.
const EnvConfigFile = "BILLINGMOCK_CONFIG"
