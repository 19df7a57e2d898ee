package goAuthz

import (
	"context"

	"github.com/MrEthical07/goAuthz/identity"
)

// Status is the outcome of an authorization check.
type Status int

const (
	StatusOK Status = iota
	StatusInvalidCredential
	StatusExpiredCredential
	StatusAccountLocked
	StatusNotAuthorized
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInvalidCredential:
		return "invalid_credential"
	case StatusExpiredCredential:
		return "expired_credential"
	case StatusAccountLocked:
		return "account_locked"
	case StatusNotAuthorized:
		return "not_authorized"
	default:
		return "unknown"
	}
}

// Result is the answer to [Engine.Authorize]. Context fields are populated
// only when Status is [StatusOK].
type Result struct {
	Status    Status
	UserID    string
	SessionID string
	UserName  string
	TenantID  string
	DeptID    string
	AppID     string
	Roles     []string
}

// OK reports whether the request may proceed.
func (r Result) OK() bool {
	return r.Status == StatusOK
}

// Err maps Status to its sentinel error, or nil for [StatusOK].
func (r Result) Err() error {
	switch r.Status {
	case StatusOK:
		return nil
	case StatusExpiredCredential:
		return ErrExpiredCredential
	case StatusAccountLocked:
		return ErrAccountLocked
	case StatusNotAuthorized:
		return ErrNotAuthorized
	default:
		return ErrInvalidCredential
	}
}

// TokenPackage is returned by token issuance and refresh. Times are unix
// milliseconds with the clock-skew allowance removed.
type TokenPackage struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpireTime   int64  `json:"expireTime"`
	FailureTime  int64  `json:"failureTime"`
}

// TokenRequest exchanges a signed login code for a token package.
type TokenRequest struct {
	// Signature is H(binding + code) computed by the client.
	Signature string
	// AppID binds the session to one application. Empty means cross-app.
	AppID    string
	TenantID string
	DeptID   string
	// WeChatOpenID is stored on the key set when the login came from WeChat.
	WeChatOpenID string
}

// LoginType selects how the binding of a login code is derived.
type LoginType = identity.LoginType

const (
	LoginPassword = identity.LoginPassword
	LoginSms      = identity.LoginSms
)

// SmsCodeType scopes SMS verification codes by purpose.
type SmsCodeType = identity.SmsCodeType

const (
	SmsRegister      = identity.SmsRegister
	SmsResetPassword = identity.SmsResetPassword
	SmsChangeMobile  = identity.SmsChangeMobile
	SmsPayPassword   = identity.SmsPayPassword
	SmsLogin         = identity.SmsLogin
)

// RoleResolver selects the organisational context of a login and the roles
// held in it.
type RoleResolver interface {
	// DefaultContext returns the tenant and department used when a token
	// request names none. Empty values are allowed.
	DefaultContext(ctx context.Context, userID string) (tenantID, deptID string, err error)
	Roles(ctx context.Context, tenantID, userID, deptID string) ([]string, error)
}

// AppProvider returns the configured token life of an application in
// seconds. Implementations return [ErrNotFound] for unknown applications.
type AppProvider interface {
	TokenLife(ctx context.Context, appID string) (int64, error)
}
