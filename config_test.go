package goAuthz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5, cfg.Session.LockoutThreshold)
	assert.Equal(t, 10*time.Minute, cfg.Session.LockoutWindow)
	assert.Equal(t, 60*time.Second, cfg.RateLimit.SmsCooldown)
	assert.Equal(t, 3*time.Second, cfg.Code.TTL)
	assert.Equal(t, 300*time.Second, cfg.Code.SmsLoginTTL)
}

func TestConfigValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"token life under a second", func(c *Config) { c.Session.DefaultTokenLife = time.Millisecond }},
		{"negative skew", func(c *Config) { c.Session.ClockSkew = -time.Second }},
		{"zero lockout threshold", func(c *Config) { c.Session.LockoutThreshold = 0 }},
		{"zero lockout window", func(c *Config) { c.Session.LockoutWindow = 0 }},
		{"empty session prefix", func(c *Config) { c.Session.RedisPrefix = "" }},
		{"short sms code", func(c *Config) { c.Code.SmsLength = 3 }},
		{"zero code max calls", func(c *Config) { c.RateLimit.CodeMaxCalls = 0 }},
		{"sub-second cooldown", func(c *Config) { c.RateLimit.SmsCooldown = 500 * time.Millisecond }},
		{"zero refresh max", func(c *Config) { c.RateLimit.RefreshMaxCalls = 0 }},
		{"zero workers", func(c *Config) { c.Dispatch.Workers = 0 }},
		{"negative send rate", func(c *Config) { c.Dispatch.RatePerSecond = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfigWithDefaultsKeepsExplicitValues(t *testing.T) {
	cfg, err := Config{
		Session: SessionConfig{LockoutThreshold: 3, ClockSkew: time.Second},
	}.WithDefaults()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Session.LockoutThreshold)
	assert.Equal(t, time.Second, cfg.Session.ClockSkew)
	assert.Equal(t, DefaultConfig().Session.DefaultTokenLife, cfg.Session.DefaultTokenLife)
	assert.Equal(t, DefaultConfig().Dispatch.Workers, cfg.Dispatch.Workers)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("GOAUTHZ_SESSION_DEFAULT_TOKEN_LIFE", "12h")
	t.Setenv("GOAUTHZ_SESSION_LOCKOUT_THRESHOLD", "7")
	t.Setenv("GOAUTHZ_RATE_SMS_COOLDOWN", "90s")
	t.Setenv("GOAUTHZ_DISPATCH_DROP_IF_FULL", "true")
	t.Setenv("GOAUTHZ_METRICS_ENABLED", "true")

	cfg, err := LoadConfig("GOAUTHZ_")
	require.NoError(t, err)

	assert.Equal(t, 12*time.Hour, cfg.Session.DefaultTokenLife)
	assert.Equal(t, 7, cfg.Session.LockoutThreshold)
	assert.Equal(t, 90*time.Second, cfg.RateLimit.SmsCooldown)
	assert.True(t, cfg.Dispatch.DropIfFull)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "az", cfg.Session.RedisPrefix)
	assert.Equal(t, 10*time.Minute, cfg.Session.LockoutWindow)
}

func TestLoadConfigRejectsInvalidEnv(t *testing.T) {
	t.Setenv("GOAUTHZ_CODE_SMS_LENGTH", "2")

	_, err := LoadConfig("GOAUTHZ_")
	assert.Error(t, err)
}

func TestLoadConfigRejectsUnparsableEnv(t *testing.T) {
	t.Setenv("GOAUTHZ_SESSION_CLOCK_SKEW", "soon")

	_, err := LoadConfig("GOAUTHZ_")
	assert.Error(t, err)
}
