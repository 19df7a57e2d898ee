package session

import "errors"

var (
	// ErrNotFound is returned when no record is cached for a user id.
	ErrNotFound = errors.New("session record not found")
	// ErrRedisUnavailable wraps Redis failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
	// ErrCorrupt is returned when a cached record cannot be decoded.
	ErrCorrupt = errors.New("session record corrupt")
	// ErrInvalidTokenLife is returned for non-positive token lifetimes.
	ErrInvalidTokenLife = errors.New("token life must be positive")
)
