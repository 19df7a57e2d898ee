package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultLockout = Lockout{Threshold: 5, Window: 10 * time.Minute}

func mustKeySet(t *testing.T, appID string) *KeySet {
	t.Helper()
	ks, err := NewKeySet(appID, 3600, issueTime, 0)
	require.NoError(t, err)
	return ks
}

func TestBindReplacesSameApp(t *testing.T) {
	r := &Record{UserID: "u-1"}

	assert.Empty(t, r.Bind("s1", mustKeySet(t, "")))
	assert.Empty(t, r.Bind("s2", mustKeySet(t, "app-a")))
	assert.Empty(t, r.Bind("s3", mustKeySet(t, "app-b")))

	replaced := r.Bind("s4", mustKeySet(t, "app-a"))
	assert.Equal(t, []string{"s2"}, replaced)

	replaced = r.Bind("s5", mustKeySet(t, ""))
	assert.Equal(t, []string{"s1"}, replaced)

	assert.Len(t, r.Keys, 3)
	_, ok := r.Key("s2")
	assert.False(t, ok)
}

func TestUnbind(t *testing.T) {
	r := &Record{UserID: "u-1"}
	r.Bind("s1", mustKeySet(t, ""))

	assert.True(t, r.Unbind("s1"))
	assert.False(t, r.Unbind("s1"))
}

func TestPruneFailed(t *testing.T) {
	r := &Record{UserID: "u-1"}
	r.Bind("s1", mustKeySet(t, "app-a"))

	assert.False(t, r.PruneFailed(issueTime.Add(time.Minute)))
	assert.True(t, r.PruneFailed(issueTime.Add(2*time.Hour)))
	assert.Empty(t, r.Keys)
}

func TestLockoutAfterSixFailures(t *testing.T) {
	r := &Record{UserID: "u-1"}
	now := issueTime

	for i := 0; i < 5; i++ {
		r.RecordFailure(now)
		assert.False(t, r.Locked(defaultLockout), "failure %d", i+1)
	}
	r.RecordFailure(now)
	assert.True(t, r.Locked(defaultLockout))

	assert.False(t, r.ResetStaleFailures(now.Add(10*time.Minute), defaultLockout))
	assert.True(t, r.Locked(defaultLockout))

	assert.True(t, r.ResetStaleFailures(now.Add(10*time.Minute+time.Millisecond), defaultLockout))
	assert.False(t, r.Locked(defaultLockout))
	assert.Zero(t, r.FailureCount)
}

func TestInvalidFlagLocks(t *testing.T) {
	r := &Record{UserID: "u-1", Invalid: true}
	assert.True(t, r.Locked(defaultLockout))
	assert.False(t, r.ResetStaleFailures(issueTime.Add(time.Hour), defaultLockout))
	assert.True(t, r.Locked(defaultLockout))
}

func TestClearFailures(t *testing.T) {
	r := &Record{UserID: "u-1"}
	assert.False(t, r.ClearFailures())
	r.RecordFailure(issueTime)
	assert.True(t, r.ClearFailures())
	assert.Zero(t, r.FailureCount)
}

func TestSetContextChanged(t *testing.T) {
	r := &Record{UserID: "u-1"}
	assert.True(t, r.SetContext("t1", "d1", []string{"r1", "r2"}))
	assert.False(t, r.SetContext("t1", "d1", []string{"r1", "r2"}))
	assert.True(t, r.SetContext("t1", "d2", []string{"r1", "r2"}))
}

func TestIdentifiersSkipsEmpty(t *testing.T) {
	r := &Record{UserID: "u-1", Account: "a1", Email: "a1@example.com"}
	assert.Equal(t, []string{"a1", "a1@example.com"}, r.Identifiers())
}
