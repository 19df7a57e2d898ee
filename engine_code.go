package goAuthz

import (
	"context"
	"errors"
	"strconv"

	"github.com/MrEthical07/goAuthz/identity"
	"github.com/MrEthical07/goAuthz/notify"
)

// IssueCode returns a one-time login code for the user owning identifier.
// The client answers with Signature(binding, code) in [TokenRequest].
func (e *Engine) IssueCode(ctx context.Context, identifier string, loginType LoginType) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	if identifier == "" {
		return "", ErrInvalidArgument
	}

	if err := e.CheckWindow(ctx, "getCode", identifier, e.config.RateLimit.CodeWindow, e.config.RateLimit.CodeMaxCalls); err != nil {
		return "", err
	}

	userID, err := e.resolver.ResolveUserID(ctx, identifier)
	if err != nil {
		return "", resolveErr(err)
	}
	rec, err := e.resolver.Record(ctx, userID)
	if err != nil {
		return "", resolveErr(err)
	}

	code, err := e.resolver.IssueCode(ctx, rec, identifier, loginType)
	if err != nil {
		if errors.Is(err, identity.ErrNoMobile) {
			return "", ErrInvalidArgument
		}
		return "", storageErr(err)
	}

	e.metricInc(MetricCodeIssued)
	return code, nil
}

// SendSmsCode issues a verification code of codeType for mobile and queues
// it for delivery. Calls per mobile and type are spaced by the SMS
// cooldown. Login codes go through [Engine.IssueCode] instead.
func (e *Engine) SendSmsCode(ctx context.Context, codeType SmsCodeType, mobile string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if mobile == "" || codeType == SmsLogin {
		return ErrInvalidArgument
	}

	op := "sms:" + strconv.Itoa(int(codeType))
	if err := e.CheckCooldown(ctx, op, mobile, e.config.RateLimit.SmsCooldown); err != nil {
		return err
	}

	minutes := e.config.Code.SmsMinutes
	code, err := e.resolver.IssueSmsCode(ctx, codeType, mobile, minutes, e.config.Code.SmsLength)
	if err != nil {
		return storageErr(err)
	}

	e.resolver.Notify(ctx, notify.Message{
		Channel:  notify.ChannelSMS,
		To:       mobile,
		Template: notify.TemplateSmsCode,
		Params: map[string]string{
			"code":    code,
			"type":    strconv.Itoa(int(codeType)),
			"minutes": strconv.Itoa(minutes),
		},
	}, "")

	e.metricInc(MetricSmsCodeSent)
	return nil
}

// VerifySmsCode checks code for mobile. Unless checkOnly is set a match is
// consumed.
func (e *Engine) VerifySmsCode(ctx context.Context, codeType SmsCodeType, mobile, code string, checkOnly bool) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	if mobile == "" || code == "" {
		return false, nil
	}
	ok, err := e.resolver.VerifySmsCode(ctx, codeType, mobile, code, checkOnly)
	if err != nil {
		return false, storageErr(err)
	}
	return ok, nil
}

func (e *Engine) requireSmsCode(ctx context.Context, codeType SmsCodeType, mobile, code string) error {
	ok, err := e.VerifySmsCode(ctx, codeType, mobile, code, false)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSmsCodeInvalid
	}
	return nil
}

func resolveErr(err error) error {
	if errors.Is(err, identity.ErrNotFound) {
		return ErrNotFound
	}
	return storageErr(err)
}
