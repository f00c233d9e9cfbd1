package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/haukened/rr-zonecheck/internal/dns/common/rrdata"
)

const envPrefix = "ZC_"

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// ZoneDir is the directory where zone files are located.
	ZoneDir string `koanf:"zone_dir" validate:"required"`

	// DefaultTTL is inherited by records whose zone sets no default.
	DefaultTTL uint32 `koanf:"default_ttl" validate:"ttl_policy"`

	// RPZDB is the path of the bbolt database holding RPZ rules.
	RPZDB string `koanf:"rpz_db" validate:"required"`

	// RPZCacheSize bounds the lookup decision cache; 0 disables it.
	RPZCacheSize int `koanf:"rpz_cache_size" validate:"gte=0"`

	// RPZFPRate is the Bloom prefilter's target false-positive rate.
	RPZFPRate float64 `koanf:"rpz_fp_rate" validate:"gt=0,lt=1"`

	// MetricsFile, when set, receives validation counters in the node
	// exporter textfile format after each command.
	MetricsFile string `koanf:"metrics_file" validate:"omitempty,endswith=.prom"`
}

// DEFAULT_APP_CONFIG defines the defaults every environment variable overrides.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:          "prod",
	LogLevel:     "info",
	ZoneDir:      "/etc/rr-zonecheck/zones/",
	DefaultTTL:   3600,
	RPZDB:        "/var/lib/rr-zonecheck/rpz.db",
	RPZCacheSize: 1000,
	RPZFPRate:    0.01,
}

// validTTLPolicy accepts TTLs inside the record TTL policy.
func validTTLPolicy(fl validator.FieldLevel) bool {
	ttl := fl.Field().Uint()
	return ttl >= rrdata.MinTTL && ttl <= rrdata.MaxTTL
}

// envLoader loads ZC_-prefixed environment variables, lowercased with the
// prefix removed. Swapped out in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return strings.ToLower(strings.TrimPrefix(key, envPrefix)), strings.TrimSpace(value)
		},
	}), nil)
}

// defaultLoader loads DEFAULT_APP_CONFIG through the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// registerValidation registers the "ttl_policy" tag.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("ttl_policy", validTTLPolicy)
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(validate); err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
