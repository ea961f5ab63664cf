package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix is the prefix for all environment variables read by Load,
// e.g. TASKWARD_SERVER_PORT or TASKWARD_AUTH_ACCESS_TOKEN_SECRET.
const envPrefix = "TASKWARD"

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory. Environment variables take
// precedence over values from the config file.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults for everything that has a sensible one. Secrets and the
	// database URL deliberately have no default.
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("auth.access_token_lifetime_minutes", 15)
	v.SetDefault("auth.refresh_token_lifetime_minutes", 7*24*60)
	v.SetDefault("auth.token_issuer", "taskward-api")
	v.SetDefault("auth.token_audience", "taskward-web")
	v.SetDefault("lockout.max_failed_attempts", 5)
	v.SetDefault("lockout.window_minutes", 15)
	v.SetDefault("lockout.duration_minutes", 30)

	// Optional config file; absence is not an error.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables: TASKWARD_SECTION_KEY overrides section.key.
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// viper.AutomaticEnv does not surface env-only keys through Unmarshal
	// unless the keys are known, so bind every key we care about explicitly.
	for _, key := range []string{
		"server.port",
		"server.log_level",
		"database.url",
		"auth.access_token_secret",
		"auth.refresh_token_secret",
		"auth.fingerprint_secret",
		"auth.access_token_lifetime_minutes",
		"auth.refresh_token_lifetime_minutes",
		"auth.token_issuer",
		"auth.token_audience",
		"lockout.max_failed_attempts",
		"lockout.window_minutes",
		"lockout.duration_minutes",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
