package codes

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCodesTest(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	return New(rdb, "test"), mr
}

func TestSaveAndConsume(t *testing.T) {
	s, mr := newCodesTest(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "sig-1", "code-1", "user-1", 3*time.Second))
	assert.Equal(t, 3*time.Second, mr.TTL("test:sig:sig-1"))
	assert.Equal(t, 3*time.Second+codeGrace, mr.TTL("test:code:code-1"))

	code, userID, err := s.Consume(ctx, "sig-1")
	require.NoError(t, err)
	assert.Equal(t, "code-1", code)
	assert.Equal(t, "user-1", userID)

	assert.False(t, mr.Exists("test:sig:sig-1"))
	assert.False(t, mr.Exists("test:code:code-1"))
}

func TestUnconsumedCodeExpires(t *testing.T) {
	s, mr := newCodesTest(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "sig-1", "code-1", "user-1", 3*time.Second))
	mr.FastForward(3*time.Second + codeGrace)

	assert.False(t, mr.Exists("test:sig:sig-1"))
	assert.False(t, mr.Exists("test:code:code-1"))
}

func TestConsumeIsSingleUse(t *testing.T) {
	s, _ := newCodesTest(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "sig-1", "code-1", "user-1", time.Minute))

	_, _, err := s.Consume(ctx, "sig-1")
	require.NoError(t, err)

	_, _, err = s.Consume(ctx, "sig-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConsumeConcurrentExactlyOnce(t *testing.T) {
	s, _ := newCodesTest(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "sig-1", "code-1", "user-1", time.Minute))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := s.Consume(ctx, "sig-1"); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestConsumeExpiredSignature(t *testing.T) {
	s, mr := newCodesTest(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "sig-1", "code-1", "user-1", 3*time.Second))
	mr.FastForward(4 * time.Second)

	_, _, err := s.Consume(ctx, "sig-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSmsCodeOneTimeUse(t *testing.T) {
	s, _ := newCodesTest(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSms(ctx, 2, "13800000000", "123456", 5*time.Minute))

	ok, err := s.VerifySms(ctx, 2, "13800000000", "123456", true)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.VerifySms(ctx, 2, "13800000000", "123456", true)
	require.NoError(t, err)
	assert.True(t, ok, "checkOnly keeps the entry")

	ok, err = s.VerifySms(ctx, 2, "13800000000", "123456", false)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.VerifySms(ctx, 2, "13800000000", "123456", false)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSmsCodeScopedByTypeAndMobile(t *testing.T) {
	s, _ := newCodesTest(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSms(ctx, 2, "13800000000", "123456", time.Minute))

	ok, err := s.VerifySms(ctx, 3, "13800000000", "123456", true)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.VerifySms(ctx, 2, "13900000000", "123456", true)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSmsKeyHidesMobile(t *testing.T) {
	s, _ := newCodesTest(t)
	assert.NotContains(t, s.smsKey(2, "13800000000", "123456"), "13800000000")
}
