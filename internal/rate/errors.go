package rate

import "errors"

var (
	// ErrRedisUnavailable wraps any backend failure while evaluating a limit.
	ErrRedisUnavailable = errors.New("redis unavailable")
	// ErrInvalidWindow is returned for non-positive windows or limits.
	ErrInvalidWindow = errors.New("invalid rate limit window")
)
