package codes

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goAuthz/credential"
)

var (
	// ErrNotFound is returned when a signature or SMS code has no live entry.
	ErrNotFound = errors.New("code not found")
	// ErrBackend wraps Redis failures.
	ErrBackend = errors.New("code backend unavailable")
)

// KEYS[1] = signature key
// ARGV[1] = code key prefix
const consumeScript = `
local code = redis.call("GET", KEYS[1])
if not code then
  return false
end
redis.call("DEL", KEYS[1])
local codeKey = ARGV[1] .. code
local userID = redis.call("GET", codeKey)
redis.call("DEL", codeKey)
if not userID then
  return false
end
return {code, userID}
`

var consumeLua = redis.NewScript(consumeScript)

// Store persists login codes and SMS codes.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// New creates a [Store]. An empty prefix defaults to "acd".
func New(redisClient redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "acd"
	}
	return &Store{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *Store) signatureKey(signature string) string {
	return s.prefix + ":sig:" + signature
}

func (s *Store) codePrefix() string {
	return s.prefix + ":code:"
}

func (s *Store) smsKey(codeType int, mobile, code string) string {
	return s.prefix + ":sms:" + credential.Hash(strconv.Itoa(codeType)+mobile+code)
}

// codeGrace keeps the code entry alive past its signature so a consume
// racing the signature deadline still finds the user id.
const codeGrace = time.Minute

// Save binds signature to code for ttl and code to userID for ttl plus
// codeGrace. Both entries are removed on consume.
func (s *Store) Save(ctx context.Context, signature, code, userID string, ttl time.Duration) error {
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.signatureKey(signature), code, ttl)
		pipe.Set(ctx, s.codePrefix()+code, userID, ttl+codeGrace)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

// Consume returns the code and user id bound to signature and deletes both
// entries. A second call for the same signature returns [ErrNotFound].
func (s *Store) Consume(ctx context.Context, signature string) (string, string, error) {
	res, err := consumeLua.Run(ctx, s.redis, []string{s.signatureKey(signature)}, s.codePrefix()).StringSlice()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", "", ErrNotFound
		}
		return "", "", fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if len(res) != 2 {
		return "", "", ErrNotFound
	}
	return res[0], res[1], nil
}

// SaveSms caches an SMS verification code for ttl.
func (s *Store) SaveSms(ctx context.Context, codeType int, mobile, code string, ttl time.Duration) error {
	if err := s.redis.Set(ctx, s.smsKey(codeType, mobile, code), code, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

// VerifySms reports whether code is live for (codeType, mobile). Unless
// checkOnly is set, a matching entry is deleted.
func (s *Store) VerifySms(ctx context.Context, codeType int, mobile, code string, checkOnly bool) (bool, error) {
	key := s.smsKey(codeType, mobile, code)
	if checkOnly {
		n, err := s.redis.Exists(ctx, key).Result()
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrBackend, err)
		}
		return n == 1, nil
	}

	n, err := s.redis.Del(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return n == 1, nil
}
