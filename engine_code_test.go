package goAuthz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/goAuthz/credential"
	"github.com/MrEthical07/goAuthz/notify"
)

func TestIssueCodeWindowLimit(t *testing.T) {
	f := newEngineTest(t, func(c *Config) { c.RateLimit.CodeMaxCalls = 2 })
	ctx := context.Background()

	// the window admits one call past its maximum before limiting
	for i := 0; i < 3; i++ {
		_, err := f.engine.IssueCode(ctx, testAccount, LoginPassword)
		require.NoError(t, err, "call %d", i+1)
	}

	_, err := f.engine.IssueCode(ctx, testAccount, LoginPassword)
	require.ErrorIs(t, err, ErrRateLimited)
	var rl *RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Zero(t, rl.Remaining)

	// other identifiers are counted separately
	_, err = f.engine.IssueCode(ctx, testMobile, LoginPassword)
	assert.NoError(t, err)

	assert.Equal(t, uint64(1), f.engine.MetricsSnapshot().Counters[MetricRateLimitHit])
}

func TestRefreshWindowLimit(t *testing.T) {
	f := newEngineTest(t, func(c *Config) { c.RateLimit.RefreshMaxCalls = 1 })
	ctx := context.Background()
	pkg := f.login(t, TokenRequest{})

	for i := 0; i < 2; i++ {
		_, err := f.engine.Refresh(ctx, pkg.RefreshToken)
		require.NoError(t, err)
	}

	_, err := f.engine.Refresh(ctx, pkg.RefreshToken)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, uint64(1), f.engine.MetricsSnapshot().Counters[MetricRefreshRateLimited])
}

func TestSmsLogin(t *testing.T) {
	f := newEngineTest(t, nil)
	ctx := context.Background()

	code, err := f.engine.IssueCode(ctx, testAccount, LoginSms)
	require.NoError(t, err)

	msg := f.nextMessage(t)
	assert.Equal(t, notify.ChannelSMS, msg.Channel)
	assert.Equal(t, testMobile, msg.To)
	assert.Equal(t, notify.TemplateLoginCode, msg.Template)
	sms := msg.Params["code"]
	require.Len(t, sms, 6)

	binding := credential.Hash(testMobile + credential.Hash(sms))
	pkg, err := f.engine.IssueToken(ctx, TokenRequest{Signature: credential.Signature(binding, code)})
	require.NoError(t, err)

	res, err := f.engine.Authorize(ctx, pkg.AccessToken, "")
	require.NoError(t, err)
	assert.True(t, res.OK())
}

func TestSendSmsCodeCooldown(t *testing.T) {
	f := newEngineTest(t, nil)
	ctx := context.Background()

	require.NoError(t, f.engine.SendSmsCode(ctx, SmsRegister, testMobile))
	msg := f.nextMessage(t)
	assert.Equal(t, notify.TemplateSmsCode, msg.Template)
	assert.Equal(t, "5", msg.Params["minutes"])

	err := f.engine.SendSmsCode(ctx, SmsRegister, testMobile)
	var rl *RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, int64(60), rl.Remaining)

	// another purpose has its own cooldown
	require.NoError(t, f.engine.SendSmsCode(ctx, SmsChangeMobile, testMobile))
	f.nextMessage(t)

	f.clock.Advance(61 * time.Second)
	require.NoError(t, f.engine.SendSmsCode(ctx, SmsRegister, testMobile))
	f.nextMessage(t)

	assert.ErrorIs(t, f.engine.SendSmsCode(ctx, SmsLogin, testMobile), ErrInvalidArgument)
	assert.ErrorIs(t, f.engine.SendSmsCode(ctx, SmsRegister, ""), ErrInvalidArgument)
}

func TestVerifySmsCode(t *testing.T) {
	f := newEngineTest(t, nil)
	ctx := context.Background()

	require.NoError(t, f.engine.SendSmsCode(ctx, SmsRegister, testMobile))
	code := f.nextMessage(t).Params["code"]

	ok, err := f.engine.VerifySmsCode(ctx, SmsRegister, testMobile, code, true)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.engine.VerifySmsCode(ctx, SmsResetPassword, testMobile, code, true)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.engine.VerifySmsCode(ctx, SmsRegister, testMobile, code, false)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.engine.VerifySmsCode(ctx, SmsRegister, testMobile, code, false)
	require.NoError(t, err)
	assert.False(t, ok)
}
