package goAuthz

import (
	"errors"
	"fmt"
	"time"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"

	"github.com/MrEthical07/goAuthz/password"
)

// Config holds every engine setting. Fields carry env tags so a deployment
// can be configured entirely from the environment through [LoadConfig].
type Config struct {
	Session     SessionConfig   `envPrefix:"SESSION_"`
	Code        CodeConfig      `envPrefix:"CODE_"`
	RateLimit   RateLimitConfig `envPrefix:"RATE_"`
	Dispatch    DispatchConfig  `envPrefix:"DISPATCH_"`
	PayPassword password.Config `envPrefix:"PAY_PASSWORD_"`
	Metrics     MetricsConfig   `envPrefix:"METRICS_"`
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls record caching, key set lifetimes and lockout.
type SessionConfig struct {
	RedisPrefix string `env:"REDIS_PREFIX"`
	// DefaultTokenLife is used when an application has no configured life.
	DefaultTokenLife time.Duration `env:"DEFAULT_TOKEN_LIFE"`
	// ClockSkew is added to server deadlines and hidden from clients.
	ClockSkew time.Duration `env:"CLOCK_SKEW"`
	// RecordTTL bounds how long an untouched record stays cached.
	RecordTTL        time.Duration `env:"RECORD_TTL"`
	LockoutThreshold int           `env:"LOCKOUT_THRESHOLD"`
	LockoutWindow    time.Duration `env:"LOCKOUT_WINDOW"`
}

/*
====================================
CODE CONFIG
====================================
*/

// CodeConfig controls login and SMS codes.
type CodeConfig struct {
	TTL         time.Duration `env:"TTL"`
	SmsLoginTTL time.Duration `env:"SMS_LOGIN_TTL"`
	SmsLength   int           `env:"SMS_LENGTH"`
	SmsMinutes  int           `env:"SMS_MINUTES"`
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig controls the throttles on code issuance, SMS and refresh.
type RateLimitConfig struct {
	RedisPrefix     string        `env:"REDIS_PREFIX"`
	CodeWindow      time.Duration `env:"CODE_WINDOW"`
	CodeMaxCalls    int           `env:"CODE_MAX_CALLS"`
	SmsCooldown     time.Duration `env:"SMS_COOLDOWN"`
	RefreshWindow   time.Duration `env:"REFRESH_WINDOW"`
	RefreshMaxCalls int           `env:"REFRESH_MAX_CALLS"`
}

/*
====================================
DISPATCH CONFIG
====================================
*/

// DispatchConfig sizes the async notification pool.
type DispatchConfig struct {
	Workers       int           `env:"WORKERS"`
	BufferSize    int           `env:"BUFFER_SIZE"`
	DropIfFull    bool          `env:"DROP_IF_FULL"`
	RatePerSecond float64       `env:"RATE_PER_SECOND"`
	SendTimeout   time.Duration `env:"SEND_TIMEOUT"`
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles in-process counters.
type MetricsConfig struct {
	Enabled                 bool `env:"ENABLED"`
	EnableLatencyHistograms bool `env:"ENABLE_LATENCY_HISTOGRAMS"`
}

// DefaultConfig returns the settings used for every field left unset.
func DefaultConfig() Config {
	return Config{
		Session: SessionConfig{
			RedisPrefix:      "az",
			DefaultTokenLife: 24 * time.Hour,
			ClockSkew:        5 * time.Second,
			RecordTTL:        30 * 24 * time.Hour,
			LockoutThreshold: 5,
			LockoutWindow:    10 * time.Minute,
		},
		Code: CodeConfig{
			TTL:         3 * time.Second,
			SmsLoginTTL: 300 * time.Second,
			SmsLength:   6,
			SmsMinutes:  5,
		},
		RateLimit: RateLimitConfig{
			RedisPrefix:     "arl",
			CodeWindow:      time.Minute,
			CodeMaxCalls:    10,
			SmsCooldown:     60 * time.Second,
			RefreshWindow:   time.Minute,
			RefreshMaxCalls: 5,
		},
		Dispatch: DispatchConfig{
			Workers:       4,
			BufferSize:    1024,
			RatePerSecond: 50,
			SendTimeout:   10 * time.Second,
		},
		PayPassword: password.DefaultConfig(),
	}
}

// LoadConfig reads the environment under prefix (for example "GOAUTHZ_")
// and fills every unset field from [DefaultConfig].
func LoadConfig(prefix string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: prefix}); err != nil {
		return Config{}, fmt.Errorf("error getting env configs: %w", err)
	}
	if err := mergo.Merge(&cfg, DefaultConfig()); err != nil {
		return Config{}, fmt.Errorf("error merging configs: %w", err)
	}
	return cfg, cfg.Validate()
}

// WithDefaults returns c with every zero field filled from [DefaultConfig].
func (c Config) WithDefaults() (Config, error) {
	if err := mergo.Merge(&c, DefaultConfig()); err != nil {
		return Config{}, fmt.Errorf("error merging configs: %w", err)
	}
	return c, nil
}

/*
====================================
VALIDATION
====================================
*/

// Validate rejects non-positive lifetimes, windows and limits.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, errors.New(msg))
		}
	}

	check(c.Session.RedisPrefix != "", "Session RedisPrefix must be set")
	check(c.Session.DefaultTokenLife >= time.Second, "Session DefaultTokenLife must be >= 1s")
	check(c.Session.ClockSkew >= 0, "Session ClockSkew must be >= 0")
	check(c.Session.RecordTTL >= 0, "Session RecordTTL must be >= 0")
	check(c.Session.LockoutThreshold > 0, "Session LockoutThreshold must be > 0")
	check(c.Session.LockoutWindow > 0, "Session LockoutWindow must be > 0")

	check(c.Code.TTL >= time.Second, "Code TTL must be >= 1s")
	check(c.Code.SmsLoginTTL >= time.Second, "Code SmsLoginTTL must be >= 1s")
	check(c.Code.SmsLength >= 4 && c.Code.SmsLength <= 10, "Code SmsLength must be in [4, 10]")
	check(c.Code.SmsMinutes > 0, "Code SmsMinutes must be > 0")

	check(c.RateLimit.RedisPrefix != "", "RateLimit RedisPrefix must be set")
	check(c.RateLimit.CodeWindow >= time.Second, "RateLimit CodeWindow must be >= 1s")
	check(c.RateLimit.CodeMaxCalls > 0, "RateLimit CodeMaxCalls must be > 0")
	check(c.RateLimit.SmsCooldown >= time.Second, "RateLimit SmsCooldown must be >= 1s")
	check(c.RateLimit.RefreshWindow >= time.Second, "RateLimit RefreshWindow must be >= 1s")
	check(c.RateLimit.RefreshMaxCalls > 0, "RateLimit RefreshMaxCalls must be > 0")

	check(c.Dispatch.Workers > 0, "Dispatch Workers must be > 0")
	check(c.Dispatch.BufferSize > 0, "Dispatch BufferSize must be > 0")
	check(c.Dispatch.RatePerSecond >= 0, "Dispatch RatePerSecond must be >= 0")

	return errors.Join(errs...)
}
