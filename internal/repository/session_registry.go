package repository

import (
	"context"
	"crypto/subtle"
	"errors"
	"strconv"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// SessionRegistry maps a member id to that member's current refresh token.
// There is at most one entry per member: Put overwrites, so a new login
// implicitly invalidates the previous refresh token.  Entries expire on
// their own after the TTL given to Put.
type SessionRegistry struct {
	rdb    *redis.Client
	prefix string
}

// NewSessionRegistry returns a registry using rdb.  With an empty prefix
// the Redis key is exactly the decimal member id.
func NewSessionRegistry(rdb *redis.Client, prefix string) *SessionRegistry {
	return &SessionRegistry{rdb: rdb, prefix: prefix}
}

// Key returns the Redis key for memberID.
func (s *SessionRegistry) Key(memberID uint64) string {
	return s.prefix + strconv.FormatUint(memberID, 10)
}

// Put stores token for memberID, replacing any existing entry.  SET with
// an expiry is a single command, so readers never see a partial write.
func (s *SessionRegistry) Put(ctx context.Context, memberID uint64, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return pkgerrors.Errorf("session ttl must be positive, got %s", ttl)
	}
	return pkgerrors.Wrap(s.rdb.Set(ctx, s.Key(memberID), token, ttl).Err(), "put session")
}

// Get returns the current refresh token for memberID.  ok is false when
// there is no entry or it has expired.
func (s *SessionRegistry) Get(ctx context.Context, memberID uint64) (token string, ok bool, err error) {
	return s.GetValue(ctx, s.Key(memberID))
}

// Remove deletes the entry for memberID.  Removing a missing entry is not
// an error.
func (s *SessionRegistry) Remove(ctx context.Context, memberID uint64) error {
	return pkgerrors.Wrap(s.rdb.Del(ctx, s.Key(memberID)).Err(), "remove session")
}

// Exists reports whether memberID has a live entry.
func (s *SessionRegistry) Exists(ctx context.Context, memberID uint64) (bool, error) {
	return s.HasValue(ctx, s.Key(memberID))
}

// Matches reports whether token is the current refresh token of memberID.
func (s *SessionRegistry) Matches(ctx context.Context, memberID uint64, token string) (bool, error) {
	cur, ok, err := s.Get(ctx, memberID)
	if err != nil || !ok {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(cur), []byte(token)) == 1, nil
}

// GetValue reads a raw key.  It is the read side used by external
// verifiers that address entries by the stringified member id.
func (s *SessionRegistry) GetValue(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, pkgerrors.Wrap(err, "get session")
	}
	return v, true, nil
}

// HasValue reports whether a raw key exists.
func (s *SessionRegistry) HasValue(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, pkgerrors.Wrap(err, "exists session")
	}
	return n > 0, nil
}
