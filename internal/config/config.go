package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Lockout  LockoutConfig  `mapstructure:"lockout"  validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains all authentication and authorization settings.
// Access and refresh tokens are signed with distinct secrets so possession
// of one kind of token can never forge the other. The fingerprint secret
// keys the one-way digest of refresh tokens kept in the credential store.
type AuthConfig struct {
	AccessTokenSecret  string `mapstructure:"access_token_secret"  validate:"required,min=32"`
	RefreshTokenSecret string `mapstructure:"refresh_token_secret" validate:"required,min=32,nefield=AccessTokenSecret"`
	FingerprintSecret  string `mapstructure:"fingerprint_secret"   validate:"required,min=32"`

	// Token lifetimes in minutes. The refresh lifetime must be at least the
	// access lifetime.
	AccessTokenLifetimeMinutes  int `mapstructure:"access_token_lifetime_minutes"  validate:"required,gt=0"`
	RefreshTokenLifetimeMinutes int `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gtefield=AccessTokenLifetimeMinutes"`

	TokenIssuer   string `mapstructure:"token_issuer"   validate:"required"`
	TokenAudience string `mapstructure:"token_audience" validate:"required"`
}

// LockoutConfig contains the brute-force lockout policy settings.
type LockoutConfig struct {
	// MaxFailedAttempts is the number of failed logins within the sliding
	// window that triggers a temporary lock.
	MaxFailedAttempts int `mapstructure:"max_failed_attempts" validate:"required,gt=0"`

	// WindowMinutes is the sliding window within which failed attempts
	// accumulate toward the threshold.
	WindowMinutes int `mapstructure:"window_minutes" validate:"required,gt=0"`

	// DurationMinutes is how long an account stays locked once the
	// threshold is reached.
	DurationMinutes int `mapstructure:"duration_minutes" validate:"required,gt=0"`
}
