package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store caches records and the identifier -> user id index in Redis.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewStore creates a [Store]. ttl bounds how long an untouched record stays
// cached; zero keeps records until evicted.
func NewStore(redisClient redis.UniversalClient, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = "az"
	}
	return &Store{
		redis:  redisClient,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *Store) key(userID string) string {
	return s.prefix + ":rec:" + userID
}

func (s *Store) indexKey(identifier string) string {
	return s.prefix + ":idx:" + identifier
}

// Get loads the record for userID.
//
//	Performance: 1 Redis GET.
func (s *Store) Get(ctx context.Context, userID string) (*Record, error) {
	data, err := s.redis.Get(ctx, s.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	rec, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return rec, nil
}

// Save writes r, replacing any cached copy.
//
//	Performance: 1 Redis SET.
func (s *Store) Save(ctx context.Context, r *Record) error {
	data, err := Encode(r)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(r.UserID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// SaveIfAbsent writes r only when no record is cached for its user id.
func (s *Store) SaveIfAbsent(ctx context.Context, r *Record) (bool, error) {
	data, err := Encode(r)
	if err != nil {
		return false, err
	}
	ok, err := s.redis.SetNX(ctx, s.key(r.UserID), data, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return ok, nil
}

// Delete evicts the record for userID. Deleting a missing record is not an
// error.
func (s *Store) Delete(ctx context.Context, userID string) (bool, error) {
	n, err := s.redis.Del(ctx, s.key(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n > 0, nil
}

// Lookup resolves a login identifier through the forward index.
func (s *Store) Lookup(ctx context.Context, identifier string) (string, error) {
	userID, err := s.redis.Get(ctx, s.indexKey(identifier)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return userID, nil
}

// Index points every identifier at userID.
func (s *Store) Index(ctx context.Context, userID string, identifiers ...string) error {
	if len(identifiers) == 0 {
		return nil
	}
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range identifiers {
			pipe.Set(ctx, s.indexKey(id), userID, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Reindex moves an identifier entry from oldID to newID in one transaction.
// An empty oldID only adds; an empty newID only removes.
func (s *Store) Reindex(ctx context.Context, userID, oldID, newID string) error {
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if oldID != "" {
			pipe.Del(ctx, s.indexKey(oldID))
		}
		if newID != "" {
			pipe.Set(ctx, s.indexKey(newID), userID, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
