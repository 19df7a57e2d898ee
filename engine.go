package goAuthz

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/MrEthical07/goAuthz/credential"
	"github.com/MrEthical07/goAuthz/identity"
	"github.com/MrEthical07/goAuthz/internal/dispatch"
	"github.com/MrEthical07/goAuthz/internal/rate"
	"github.com/MrEthical07/goAuthz/password"
	"github.com/MrEthical07/goAuthz/permission"
	"github.com/MrEthical07/goAuthz/session"
)

// Engine validates bearer credentials, answers function-permission checks
// and issues, refreshes and revokes sessions. It is safe for concurrent use.
type Engine struct {
	config     Config
	resolver   *identity.Resolver
	users      identity.UserProvider
	roles      RoleResolver
	apps       AppProvider
	functions  permission.Source
	limiter    *rate.Limiter
	dispatcher *dispatch.Dispatcher
	payHash    *password.Argon2
	metrics    *Metrics
	log        zerolog.Logger
	now        func() time.Time
	lockout    session.Lockout
}

// Close stops the notification workers after draining queued messages.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.dispatcher.Close()
}

// Config returns a copy of the effective configuration.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return e.config
}

// Resolver exposes the identity resolver for code issuance and SMS flows.
func (e *Engine) Resolver() *identity.Resolver {
	if e == nil {
		return nil
	}
	return e.resolver
}

// MetricsSnapshot returns the current counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// DispatchDropped returns how many notifications were dropped because the
// queue was full.
func (e *Engine) DispatchDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.dispatcher.Dropped()
}

func (e *Engine) ready() error {
	if e == nil || e.resolver == nil || e.limiter == nil {
		return ErrEngineNotReady
	}
	return nil
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) skew() time.Duration {
	return e.config.Session.ClockSkew
}

// tokenPackage builds the client view of ks. Deadlines are reported
// without the skew allowance so clients refresh early.
func (e *Engine) tokenPackage(rec *session.Record, sessionID string, ks *session.KeySet) (*TokenPackage, error) {
	access, err := credential.Bearer{
		SessionID: sessionID,
		UserID:    rec.UserID,
		UserName:  rec.UserName,
		Secret:    ks.SecretKey,
	}.Encode()
	if err != nil {
		return nil, err
	}
	refresh, err := credential.Refresh{
		SessionID: sessionID,
		UserID:    rec.UserID,
		Secret:    ks.RefreshKey,
	}.Encode()
	if err != nil {
		return nil, err
	}
	skew := e.skew().Milliseconds()
	return &TokenPackage{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpireTime:   ks.ExpiryTime - skew,
		FailureTime:  ks.FailureTime - skew,
	}, nil
}
