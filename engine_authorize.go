package goAuthz

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goAuthz/credential"
	"github.com/MrEthical07/goAuthz/identity"
	"github.com/MrEthical07/goAuthz/permission"
	"github.com/MrEthical07/goAuthz/session"
)

type secretKind int

const (
	accessSecret secretKind = iota
	refreshSecret
)

// verified is a key set that passed every credential check.
type verified struct {
	rec       *session.Record
	sessionID string
	keys      *session.KeySet
}

// Authorize validates bearer and, when functionKey is not empty, checks the
// caller may reach that function by id, alias or interface URL.
//
// The returned error is non-nil only for storage failures; every credential
// outcome is carried by Result.Status.
func (e *Engine) Authorize(ctx context.Context, bearer, functionKey string) (Result, error) {
	if err := e.ready(); err != nil {
		return Result{Status: StatusInvalidCredential}, err
	}
	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { e.metrics.Observe(MetricAuthorizeLatency, time.Since(start)) }()
	}

	cred, err := credential.DecodeBearer(bearer)
	if err != nil {
		return e.outcome(StatusInvalidCredential), nil
	}

	v, status, err := e.verify(ctx, cred.UserID, cred.SessionID, cred.Secret, accessSecret)
	if err != nil {
		return Result{Status: StatusInvalidCredential}, err
	}
	if status != StatusOK {
		return e.outcome(status), nil
	}

	res := Result{
		Status:    StatusOK,
		UserID:    v.rec.UserID,
		SessionID: v.sessionID,
		UserName:  v.rec.UserName,
		TenantID:  v.rec.TenantID,
		DeptID:    v.rec.DeptID,
		AppID:     v.keys.AppID,
		Roles:     append([]string(nil), v.rec.Roles...),
	}

	if functionKey == "" {
		e.metricInc(MetricAuthorizeOK)
		return res, nil
	}

	allowed, err := e.allowed(ctx, v.rec, functionKey)
	if err != nil {
		return Result{Status: StatusInvalidCredential}, err
	}
	if !allowed {
		return e.outcome(StatusNotAuthorized), nil
	}

	e.metricInc(MetricAuthorizeOK)
	return res, nil
}

func (e *Engine) outcome(status Status) Result {
	switch status {
	case StatusExpiredCredential:
		e.metricInc(MetricAuthorizeExpired)
	case StatusAccountLocked:
		e.metricInc(MetricAuthorizeLocked)
	case StatusNotAuthorized:
		e.metricInc(MetricAuthorizeDenied)
	default:
		e.metricInc(MetricAuthorizeInvalid)
	}
	return Result{Status: status}
}

// verify runs the credential checks in order: presence, hard failure, soft
// expiry (access secrets only), lockout, secret match. A mismatch counts
// toward lockout and is persisted.
func (e *Engine) verify(ctx context.Context, userID, sessionID, secret string, kind secretKind) (verified, Status, error) {
	now := e.now()

	rec, err := e.resolver.Cached(ctx, userID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return verified{}, StatusInvalidCredential, nil
		}
		return verified{}, StatusInvalidCredential, storageErr(err)
	}
	if rec.UserID != userID {
		return verified{}, StatusInvalidCredential, nil
	}

	ks, ok := rec.Key(sessionID)
	if !ok {
		return verified{}, StatusInvalidCredential, nil
	}
	if ks.Failed(now) {
		return verified{}, StatusInvalidCredential, nil
	}
	if kind == accessSecret && ks.Expired(now) {
		return verified{}, StatusExpiredCredential, nil
	}

	dirty := rec.ResetStaleFailures(now, e.lockout)
	if rec.Locked(e.lockout) {
		if err := e.persist(ctx, rec, dirty); err != nil {
			return verified{}, StatusAccountLocked, err
		}
		return verified{}, StatusAccountLocked, nil
	}

	match := ks.MatchSecret(secret)
	if kind == refreshSecret {
		match = ks.MatchRefresh(secret)
	}
	if !match {
		e.metricInc(MetricSecretMismatch)
		rec.RecordFailure(now)
		if rec.Locked(e.lockout) {
			e.metricInc(MetricAccountLocked)
			e.log.Warn().Str("user_id", rec.UserID).Int("failures", rec.FailureCount).Msg("account locked after repeated mismatches")
		}
		if err := e.persist(ctx, rec, true); err != nil {
			e.log.Error().Err(err).Str("user_id", rec.UserID).Str("session_id", sessionID).Msg("failure count not stored")
			return verified{}, StatusInvalidCredential, err
		}
		return verified{}, StatusInvalidCredential, nil
	}

	if err := e.persist(ctx, rec, dirty); err != nil {
		return verified{}, StatusInvalidCredential, err
	}
	return verified{rec: rec, sessionID: sessionID, keys: ks}, StatusOK, nil
}

// persist writes rec back when dirty.
func (e *Engine) persist(ctx context.Context, rec *session.Record, dirty bool) error {
	if !dirty {
		return nil
	}
	if err := e.resolver.Save(ctx, rec); err != nil {
		return storageErr(err)
	}
	return nil
}

func (e *Engine) allowed(ctx context.Context, rec *session.Record, functionKey string) (bool, error) {
	if e.functions == nil {
		return false, nil
	}
	functions, err := e.functions.Functions(ctx, rec.TenantID, rec.UserID, rec.DeptID)
	if err != nil {
		return false, storageErr(err)
	}
	return permission.Match(functions, functionKey), nil
}
