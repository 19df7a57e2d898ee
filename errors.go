package goAuthz

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/goAuthz/identity"
)

var (
	// ErrNotFound is returned when a user, code or session does not exist.
	ErrNotFound = identity.ErrNotFound
	// ErrInvalidCredential covers every credential mismatch. It never says
	// whether the user or the secret was wrong.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrExpiredCredential is returned when the access secret must be refreshed.
	ErrExpiredCredential = errors.New("credential expired")
	// ErrAccountLocked is returned for invalidated or locked-out users.
	ErrAccountLocked = errors.New("account locked")
	// ErrNotAuthorized is returned when the user lacks the requested function.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrRateLimited is returned when a throttle rejects the call.
	ErrRateLimited = errors.New("rate limited")
	// ErrStorage wraps cache and provider failures.
	ErrStorage = errors.New("storage unavailable")
	// ErrEngineNotReady is returned by a nil or unbuilt engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrInvalidArgument is returned for empty or malformed inputs.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrSmsCodeInvalid is returned when an SMS code does not match.
	ErrSmsCodeInvalid = errors.New("sms code invalid")
	// ErrPayPasswordNotSet is returned when verifying a missing pay password.
	ErrPayPasswordNotSet = errors.New("pay password not set")
	// ErrReadOnlyUserStore is returned for user writes when the configured
	// provider does not implement identity.UserStore.
	ErrReadOnlyUserStore = errors.New("user store is read-only")
)

// RateLimitError reports a throttled call. It unwraps to [ErrRateLimited].
type RateLimitError struct {
	// Remaining is the cooldown left in seconds, or zero for window limits.
	Remaining int64
}

func (e *RateLimitError) Error() string {
	if e.Remaining > 0 {
		return fmt.Sprintf("rate limited: retry in %ds", e.Remaining)
	}
	return ErrRateLimited.Error()
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

func storageErr(err error) error {
	if errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStorage, err)
}
