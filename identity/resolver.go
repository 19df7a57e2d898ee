package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/MrEthical07/goAuthz/credential"
	"github.com/MrEthical07/goAuthz/internal"
	"github.com/MrEthical07/goAuthz/internal/codes"
	"github.com/MrEthical07/goAuthz/notify"
	"github.com/MrEthical07/goAuthz/session"
)

// LoginType selects how the binding key of a login code is derived.
type LoginType int

const (
	LoginPassword LoginType = 0
	LoginSms      LoginType = 1
)

// SmsCodeType scopes SMS verification codes by purpose.
type SmsCodeType int

const (
	SmsRegister      SmsCodeType = 0
	SmsResetPassword SmsCodeType = 1
	SmsChangeMobile  SmsCodeType = 2
	SmsPayPassword   SmsCodeType = 3
	// SmsLogin codes are bound into a login code and never cached on their own.
	SmsLogin         SmsCodeType = 4
)

// Notifier queues outbound messages. *dispatch.Dispatcher implements it.
type Notifier interface {
	Submit(ctx context.Context, msg notify.Message) bool
}

// Config holds resolver timings.
type Config struct {
	CodeTTL       time.Duration
	SmsLoginTTL   time.Duration
	SmsCodeLength int
}

// Resolver mediates every cache read and write of session records and login
// codes.
type Resolver struct {
	users     UserProvider
	sessions  *session.Store
	codes     *codes.Store
	decrypter Decrypter
	notifier  Notifier
	cfg       Config
	log       zerolog.Logger
	group     singleflight.Group
}

// NewResolver wires a [Resolver]. decrypter and notifier may be nil.
func NewResolver(
	users UserProvider,
	sessions *session.Store,
	codeStore *codes.Store,
	decrypter Decrypter,
	notifier Notifier,
	cfg Config,
	log zerolog.Logger,
) *Resolver {
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = 3 * time.Second
	}
	if cfg.SmsLoginTTL <= 0 {
		cfg.SmsLoginTTL = 300 * time.Second
	}
	if cfg.SmsCodeLength <= 0 {
		cfg.SmsCodeLength = 6
	}
	return &Resolver{
		users:     users,
		sessions:  sessions,
		codes:     codeStore,
		decrypter: decrypter,
		notifier:  notifier,
		cfg:       cfg,
		log:       log.With().Str("component", "identity").Logger(),
	}
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStorage, err)
}

// ResolveUserID maps a login identifier to a user id.
func (r *Resolver) ResolveUserID(ctx context.Context, identifier string) (string, error) {
	if identifier == "" {
		return "", ErrNotFound
	}

	userID, err := r.sessions.Lookup(ctx, identifier)
	if err == nil {
		return userID, nil
	}
	if !errors.Is(err, session.ErrNotFound) {
		return "", storageErr(err)
	}

	v, err, _ := r.group.Do("ident:"+identifier, func() (any, error) {
		u, err := r.users.FindByIdentifier(ctx, identifier)
		if err != nil {
			return "", err
		}
		if err := r.materialize(ctx, u); err != nil {
			return "", err
		}
		return u.ID, nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrStorage) {
			return "", err
		}
		return "", storageErr(err)
	}
	return v.(string), nil
}

// materialize indexes every identifier of u and caches a fresh record when
// none is cached yet.
func (r *Resolver) materialize(ctx context.Context, u *User) error {
	rec, err := NewRecord(u, r.decrypter)
	if err != nil {
		return storageErr(err)
	}
	if err := r.sessions.Index(ctx, u.ID, rec.Identifiers()...); err != nil {
		return storageErr(err)
	}
	if _, err := r.sessions.SaveIfAbsent(ctx, rec); err != nil {
		return storageErr(err)
	}
	return nil
}

// Record returns the cached record for userID, loading it on a miss.
func (r *Resolver) Record(ctx context.Context, userID string) (*session.Record, error) {
	rec, err := r.Cached(ctx, userID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	_, err, _ = r.group.Do("id:"+userID, func() (any, error) {
		u, err := r.users.FindByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		return nil, r.materialize(ctx, u)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrStorage) {
			return nil, err
		}
		return nil, storageErr(err)
	}
	return r.Cached(ctx, userID)
}

// Cached returns the cached record without touching the provider.
func (r *Resolver) Cached(ctx context.Context, userID string) (*session.Record, error) {
	rec, err := r.sessions.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr(err)
	}
	return rec, nil
}

// Save writes rec back to the cache.
func (r *Resolver) Save(ctx context.Context, rec *session.Record) error {
	if err := r.sessions.Save(ctx, rec); err != nil {
		return storageErr(err)
	}
	return nil
}

// Evict drops the cached record, ending every session of the user.
func (r *Resolver) Evict(ctx context.Context, userID string) error {
	if _, err := r.sessions.Delete(ctx, userID); err != nil {
		return storageErr(err)
	}
	return nil
}

// Reindex moves a login identifier of userID from oldID to newID.
func (r *Resolver) Reindex(ctx context.Context, userID, oldID, newID string) error {
	if oldID == newID {
		return nil
	}
	if err := r.sessions.Reindex(ctx, userID, oldID, newID); err != nil {
		return storageErr(err)
	}
	return nil
}

// Reload copies the provider's current profile fields into the cached
// record, keeping key sets, lockout counters and context.
func (r *Resolver) Reload(ctx context.Context, userID string) (*session.Record, error) {
	u, err := r.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, storageErr(err)
	}
	fresh, err := NewRecord(u, r.decrypter)
	if err != nil {
		return nil, storageErr(err)
	}

	rec, err := r.Cached(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return fresh, r.Save(ctx, fresh)
	}
	if err != nil {
		return nil, err
	}

	rec.UserType = fresh.UserType
	rec.UserName = fresh.UserName
	rec.Account = fresh.Account
	rec.Mobile = fresh.Mobile
	rec.Email = fresh.Email
	rec.UnionID = fresh.UnionID
	rec.Password = fresh.Password
	rec.PayPassword = fresh.PayPassword
	rec.BuiltIn = fresh.BuiltIn
	rec.Invalid = fresh.Invalid
	return rec, r.Save(ctx, rec)
}

// IssueCode creates a one-time login code for rec and caches it under the
// signature the client is expected to present.
func (r *Resolver) IssueCode(ctx context.Context, rec *session.Record, identifier string, loginType LoginType) (string, error) {
	ttl := r.cfg.CodeTTL
	var binding string

	switch loginType {
	case LoginPassword:
		binding = credential.Hash(identifier + rec.Password)
	case LoginSms:
		if rec.Mobile == "" {
			return "", ErrNoMobile
		}
		sms, err := r.IssueSmsCode(ctx, SmsLogin, rec.Mobile, 0, r.cfg.SmsCodeLength)
		if err != nil {
			return "", err
		}
		r.notify(ctx, notify.Message{
			Channel:  notify.ChannelSMS,
			To:       rec.Mobile,
			Template: notify.TemplateLoginCode,
			Params:   map[string]string{"code": sms},
		}, rec.UserID)
		binding = credential.Hash(rec.Mobile + credential.Hash(sms))
		ttl = r.cfg.SmsLoginTTL
	default:
		secret, err := internal.NewSecret()
		if err != nil {
			return "", err
		}
		binding = credential.Hash(secret)
	}

	code := internal.NewCode()
	if err := r.codes.Save(ctx, credential.Signature(binding, code), code, rec.UserID, ttl); err != nil {
		return "", storageErr(err)
	}
	return code, nil
}

// ConsumeCode exchanges a signature for its code and user id exactly once.
func (r *Resolver) ConsumeCode(ctx context.Context, signature string) (string, string, error) {
	code, userID, err := r.codes.Consume(ctx, signature)
	if err != nil {
		if errors.Is(err, codes.ErrNotFound) {
			return "", "", ErrNotFound
		}
		return "", "", storageErr(err)
	}
	return code, userID, nil
}

// IssueSmsCode generates a numeric code of the given length and caches it
// for minutes. [SmsLogin] codes are returned uncached.
func (r *Resolver) IssueSmsCode(ctx context.Context, codeType SmsCodeType, mobile string, minutes, length int) (string, error) {
	code, err := internal.NewNumericCode(length)
	if err != nil {
		return "", err
	}
	if codeType == SmsLogin {
		return code, nil
	}
	if minutes <= 0 {
		minutes = 5
	}
	if err := r.codes.SaveSms(ctx, int(codeType), mobile, code, time.Duration(minutes)*time.Minute); err != nil {
		return "", storageErr(err)
	}
	return code, nil
}

// VerifySmsCode checks an SMS code. Unless checkOnly is set a match is
// consumed.
func (r *Resolver) VerifySmsCode(ctx context.Context, codeType SmsCodeType, mobile, code string, checkOnly bool) (bool, error) {
	ok, err := r.codes.VerifySms(ctx, int(codeType), mobile, code, checkOnly)
	if err != nil {
		return false, storageErr(err)
	}
	return ok, nil
}

// Notify queues msg for async delivery.
func (r *Resolver) Notify(ctx context.Context, msg notify.Message, userID string) {
	r.notify(ctx, msg, userID)
}

func (r *Resolver) notify(ctx context.Context, msg notify.Message, userID string) {
	if r.notifier == nil {
		return
	}
	if !r.notifier.Submit(ctx, msg) {
		r.log.Warn().Str("user_id", userID).Str("template", msg.Template).Msg("notification not queued")
	}
}
