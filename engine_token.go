package goAuthz

import (
	"context"
	"errors"

	"github.com/MrEthical07/goAuthz/credential"
	"github.com/MrEthical07/goAuthz/identity"
	"github.com/MrEthical07/goAuthz/internal"
	"github.com/MrEthical07/goAuthz/session"
)

// IssueToken exchanges a signed login code for a new session. The code is
// consumed whether or not issuance succeeds.
func (e *Engine) IssueToken(ctx context.Context, req TokenRequest) (*TokenPackage, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if req.Signature == "" {
		return nil, ErrInvalidArgument
	}

	_, userID, err := e.resolver.ConsumeCode(ctx, req.Signature)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			e.metricInc(MetricTokenRejected)
			return nil, ErrInvalidCredential
		}
		return nil, storageErr(err)
	}

	rec, err := e.resolver.Record(ctx, userID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			e.metricInc(MetricTokenRejected)
			return nil, ErrInvalidCredential
		}
		return nil, storageErr(err)
	}
	return e.issue(ctx, rec, req)
}

// IssueTokenByUnionID opens a session for the user owning unionID. The
// caller must already have verified the union id with WeChat; req.Signature
// is ignored.
func (e *Engine) IssueTokenByUnionID(ctx context.Context, unionID string, req TokenRequest) (*TokenPackage, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if unionID == "" {
		return nil, ErrInvalidArgument
	}

	userID, err := e.resolver.ResolveUserID(ctx, unionID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr(err)
	}
	rec, err := e.resolver.Record(ctx, userID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr(err)
	}
	return e.issue(ctx, rec, req)
}

func (e *Engine) issue(ctx context.Context, rec *session.Record, req TokenRequest) (*TokenPackage, error) {
	now := e.now()

	dirty := rec.PruneFailed(now)
	if rec.ResetStaleFailures(now, e.lockout) {
		dirty = true
	}
	if rec.Locked(e.lockout) {
		if err := e.persist(ctx, rec, dirty); err != nil {
			return nil, err
		}
		e.metricInc(MetricTokenRejected)
		return nil, ErrAccountLocked
	}

	life, err := e.tokenLife(ctx, req.AppID)
	if err != nil {
		return nil, err
	}

	tenantID, deptID := req.TenantID, req.DeptID
	roles, err := e.resolveContext(ctx, rec.UserID, &tenantID, &deptID)
	if err != nil {
		return nil, err
	}
	rec.SetContext(tenantID, deptID, roles)

	ks, err := session.NewKeySet(req.AppID, life, now, e.skew())
	if err != nil {
		return nil, err
	}
	ks.WeChatOpenID = req.WeChatOpenID

	sessionID := internal.NewSessionID()
	if replaced := rec.Bind(sessionID, ks); len(replaced) > 0 {
		e.log.Debug().Str("user_id", rec.UserID).Strs("replaced", replaced).Msg("previous sessions for app replaced")
	}

	if err := e.resolver.Save(ctx, rec); err != nil {
		return nil, storageErr(err)
	}

	e.metricInc(MetricTokenIssued)
	return e.tokenPackage(rec, sessionID, ks)
}

// tokenLife returns the session window in seconds for appID, falling back
// to the configured default for cross-app sessions and unknown apps.
func (e *Engine) tokenLife(ctx context.Context, appID string) (int64, error) {
	fallback := int64(e.config.Session.DefaultTokenLife.Seconds())
	if appID == "" || e.apps == nil {
		return fallback, nil
	}

	life, err := e.apps.TokenLife(ctx, appID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return fallback, nil
		}
		return 0, storageErr(err)
	}
	if life <= 0 {
		return fallback, nil
	}
	return life, nil
}

// resolveContext fills an empty tenant and department from the role
// resolver's default and returns the roles held there.
func (e *Engine) resolveContext(ctx context.Context, userID string, tenantID, deptID *string) ([]string, error) {
	if e.roles == nil {
		return nil, nil
	}
	if *tenantID == "" && *deptID == "" {
		t, d, err := e.roles.DefaultContext(ctx, userID)
		if err != nil && !errors.Is(err, identity.ErrNotFound) {
			return nil, storageErr(err)
		}
		*tenantID, *deptID = t, d
	}
	roles, err := e.roles.Roles(ctx, *tenantID, userID, *deptID)
	if err != nil {
		return nil, storageErr(err)
	}
	return roles, nil
}

// Refresh validates a refresh credential and rotates the session's keys
// once the access secret has expired. Before expiry it returns the current
// package unchanged.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*TokenPackage, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	cred, err := credential.DecodeRefresh(refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, ErrInvalidCredential
	}

	if err := e.CheckWindow(ctx, "refresh", cred.SessionID, e.config.RateLimit.RefreshWindow, e.config.RateLimit.RefreshMaxCalls); err != nil {
		if errors.Is(err, ErrRateLimited) {
			e.metricInc(MetricRefreshRateLimited)
		}
		return nil, err
	}

	v, status, err := e.verify(ctx, cred.UserID, cred.SessionID, cred.Secret, refreshSecret)
	if err != nil {
		return nil, err
	}
	if status != StatusOK {
		e.metricInc(MetricRefreshFailure)
		return nil, Result{Status: status}.Err()
	}

	changed, err := v.keys.Refresh(e.now(), e.skew())
	if err != nil {
		return nil, err
	}
	if changed {
		if err := e.resolver.Save(ctx, v.rec); err != nil {
			return nil, storageErr(err)
		}
	}

	e.metricInc(MetricRefreshSuccess)
	return e.tokenPackage(v.rec, v.sessionID, v.keys)
}

// Logout ends the session named by bearer. An expired but not failed
// bearer may still log out.
func (e *Engine) Logout(ctx context.Context, bearer string) error {
	if err := e.ready(); err != nil {
		return err
	}

	cred, err := credential.DecodeBearer(bearer)
	if err != nil {
		return ErrInvalidCredential
	}
	rec, err := e.resolver.Cached(ctx, cred.UserID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return ErrInvalidCredential
		}
		return storageErr(err)
	}
	ks, ok := rec.Key(cred.SessionID)
	if !ok || !ks.MatchSecret(cred.Secret) {
		return ErrInvalidCredential
	}

	rec.Unbind(cred.SessionID)
	if err := e.resolver.Save(ctx, rec); err != nil {
		return storageErr(err)
	}
	e.metricInc(MetricLogout)
	return nil
}

// LogoutAll ends every session of userID by evicting the cached record.
// The next login rebuilds it from the user store.
func (e *Engine) LogoutAll(ctx context.Context, userID string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if userID == "" {
		return ErrInvalidArgument
	}
	if err := e.resolver.Evict(ctx, userID); err != nil {
		return storageErr(err)
	}
	e.metricInc(MetricLogoutAll)
	return nil
}

// SwitchContext moves the session owner to another tenant and department
// and re-resolves roles. The selection applies to every session of the
// user.
func (e *Engine) SwitchContext(ctx context.Context, bearer, tenantID, deptID string) (Result, error) {
	if err := e.ready(); err != nil {
		return Result{Status: StatusInvalidCredential}, err
	}

	cred, err := credential.DecodeBearer(bearer)
	if err != nil {
		return e.outcome(StatusInvalidCredential), ErrInvalidCredential
	}
	v, status, err := e.verify(ctx, cred.UserID, cred.SessionID, cred.Secret, accessSecret)
	if err != nil {
		return Result{Status: StatusInvalidCredential}, err
	}
	if status != StatusOK {
		res := e.outcome(status)
		return res, res.Err()
	}

	var roles []string
	if e.roles != nil {
		roles, err = e.roles.Roles(ctx, tenantID, v.rec.UserID, deptID)
		if err != nil {
			return Result{Status: StatusInvalidCredential}, storageErr(err)
		}
	}
	if v.rec.SetContext(tenantID, deptID, roles) {
		if err := e.resolver.Save(ctx, v.rec); err != nil {
			return Result{Status: StatusInvalidCredential}, storageErr(err)
		}
	}

	e.metricInc(MetricContextSwitch)
	return Result{
		Status:    StatusOK,
		UserID:    v.rec.UserID,
		SessionID: v.sessionID,
		UserName:  v.rec.UserName,
		TenantID:  v.rec.TenantID,
		DeptID:    v.rec.DeptID,
		AppID:     v.keys.AppID,
		Roles:     append([]string(nil), v.rec.Roles...),
	}, nil
}

// Session returns the caller's context for bearer, or the error matching
// its status.
func (e *Engine) Session(ctx context.Context, bearer string) (Result, error) {
	res, err := e.Authorize(ctx, bearer, "")
	if err != nil {
		return res, err
	}
	return res, res.Err()
}
