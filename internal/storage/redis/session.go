package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/techstore-vn/checkout-api/internal/domain/checkout"
)

// sessionTTL bounds how long an unfinished checkout survives.
const sessionTTL = 24 * time.Hour

var _ checkout.SessionStore = (*SessionStore)(nil)

// SessionStore implements checkout.SessionStore on Redis.
type SessionStore struct {
	rdb *redis.Client
}

// NewSessionStore returns a SessionStore using the given client.
func NewSessionStore(rdb *redis.Client) *SessionStore {
	return &SessionStore{rdb: rdb}
}

func sessionKey(id string) string {
	return "checkout:" + id
}

// Get returns the stored session, or nil when none exists.
func (s *SessionStore) Get(ctx context.Context, id string) (*checkout.Session, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get checkout session")
	}
	var sess checkout.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, errors.Wrap(err, "decode checkout session")
	}
	return &sess, nil
}

// Put stores the session and refreshes its TTL.
func (s *SessionStore) Put(ctx context.Context, sess *checkout.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "encode checkout session")
	}
	if err := s.rdb.Set(ctx, sessionKey(sess.ID), raw, sessionTTL).Err(); err != nil {
		return errors.Wrap(err, "set checkout session")
	}
	return nil
}
