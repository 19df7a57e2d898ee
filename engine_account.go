package goAuthz

import (
	"context"

	"github.com/MrEthical07/goAuthz/identity"
)

func (e *Engine) userStore() (identity.UserStore, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	store, ok := e.users.(identity.UserStore)
	if !ok {
		return nil, ErrReadOnlyUserStore
	}
	return store, nil
}

// UpdateMobile writes a new mobile number and moves its login index.
func (e *Engine) UpdateMobile(ctx context.Context, userID, mobile string) error {
	store, err := e.userStore()
	if err != nil {
		return err
	}
	if userID == "" || mobile == "" {
		return ErrInvalidArgument
	}

	u, err := store.FindByID(ctx, userID)
	if err != nil {
		return resolveErr(err)
	}
	if err := store.UpdateMobile(ctx, userID, mobile); err != nil {
		return resolveErr(err)
	}
	return e.reindex(ctx, userID, u.Mobile, mobile)
}

// ChangeMobile is [Engine.UpdateMobile] gated by a change-mobile SMS code
// sent to the new number.
func (e *Engine) ChangeMobile(ctx context.Context, userID, mobile, code string) error {
	if err := e.requireSmsCode(ctx, SmsChangeMobile, mobile, code); err != nil {
		return err
	}
	return e.UpdateMobile(ctx, userID, mobile)
}

// UpdateEmail writes a new email address and moves its login index.
func (e *Engine) UpdateEmail(ctx context.Context, userID, email string) error {
	store, err := e.userStore()
	if err != nil {
		return err
	}
	if userID == "" || email == "" {
		return ErrInvalidArgument
	}

	u, err := store.FindByID(ctx, userID)
	if err != nil {
		return resolveErr(err)
	}
	if err := store.UpdateEmail(ctx, userID, email); err != nil {
		return resolveErr(err)
	}
	return e.reindex(ctx, userID, u.Email, email)
}

func (e *Engine) reindex(ctx context.Context, userID, oldID, newID string) error {
	if err := e.resolver.Reindex(ctx, userID, oldID, newID); err != nil {
		return storageErr(err)
	}
	if _, err := e.resolver.Reload(ctx, userID); err != nil {
		return resolveErr(err)
	}
	return nil
}

// UpdatePassword stores passwordHash, the value clients bind password login
// codes to. Existing sessions stay valid.
func (e *Engine) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	store, err := e.userStore()
	if err != nil {
		return err
	}
	if userID == "" || passwordHash == "" {
		return ErrInvalidArgument
	}
	if err := store.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return resolveErr(err)
	}
	if _, err := e.resolver.Reload(ctx, userID); err != nil {
		return resolveErr(err)
	}
	return nil
}

// ResetPassword sets passwordHash for the owner of mobile after checking a
// reset-password SMS code.
func (e *Engine) ResetPassword(ctx context.Context, mobile, code, passwordHash string) error {
	if err := e.requireSmsCode(ctx, SmsResetPassword, mobile, code); err != nil {
		return err
	}
	userID, err := e.resolver.ResolveUserID(ctx, mobile)
	if err != nil {
		return resolveErr(err)
	}
	return e.UpdatePassword(ctx, userID, passwordHash)
}

// SetPayPassword hashes plain with argon2id and stores it.
func (e *Engine) SetPayPassword(ctx context.Context, userID, plain string) error {
	store, err := e.userStore()
	if err != nil {
		return err
	}
	if userID == "" {
		return ErrInvalidArgument
	}

	hash, err := e.payHash.Hash(plain)
	if err != nil {
		return err
	}
	if err := store.UpdatePayPassword(ctx, userID, hash); err != nil {
		return resolveErr(err)
	}
	if _, err := e.resolver.Reload(ctx, userID); err != nil {
		return resolveErr(err)
	}
	return nil
}

// VerifyPayPassword reports whether plain matches the stored pay password.
func (e *Engine) VerifyPayPassword(ctx context.Context, userID, plain string) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	rec, err := e.resolver.Record(ctx, userID)
	if err != nil {
		return false, resolveErr(err)
	}
	if rec.PayPassword == "" {
		return false, ErrPayPasswordNotSet
	}
	return e.payHash.Verify(plain, rec.PayPassword)
}

// SetInvalid locks or unlocks userID. Unlocking also clears the failure
// counter so the user can log in immediately.
func (e *Engine) SetInvalid(ctx context.Context, userID string, invalid bool) error {
	store, err := e.userStore()
	if err != nil {
		return err
	}
	if userID == "" {
		return ErrInvalidArgument
	}
	if err := store.SetInvalid(ctx, userID, invalid); err != nil {
		return resolveErr(err)
	}

	rec, err := e.resolver.Reload(ctx, userID)
	if err != nil {
		return resolveErr(err)
	}

	if invalid {
		e.metricInc(MetricAccountLocked)
		e.log.Info().Str("user_id", userID).Msg("account invalidated")
		return nil
	}

	if rec.ClearFailures() {
		if err := e.resolver.Save(ctx, rec); err != nil {
			return storageErr(err)
		}
	}
	e.metricInc(MetricAccountUnlocked)
	e.log.Info().Str("user_id", userID).Msg("account restored")
	return nil
}
