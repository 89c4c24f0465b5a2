package redis

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/techstore-vn/checkout-api/internal/domain/checkout"
)

// submitLockTTL caps how long a submission may hold its claim. A crash
// mid-submission frees the session once it expires.
const submitLockTTL = 30 * time.Second

var _ checkout.SubmitLock = (*SubmitLock)(nil)

// SubmitLock implements checkout.SubmitLock with SET NX, giving at most one
// in-flight submission per session across all API instances.
type SubmitLock struct {
	rdb *redis.Client
}

// NewSubmitLock returns a SubmitLock using the given client.
func NewSubmitLock(rdb *redis.Client) *SubmitLock {
	return &SubmitLock{rdb: rdb}
}

func submitLockKey(id string) string {
	return "checkout:submit:" + id
}

// Acquire claims the submit lock, returning false when it is already held.
func (l *SubmitLock) Acquire(ctx context.Context, id string) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, submitLockKey(id), "1", submitLockTTL).Result()
	if err != nil {
		return false, errors.Wrap(err, "acquire submit lock")
	}
	return ok, nil
}

// Release frees the claim.
func (l *SubmitLock) Release(ctx context.Context, id string) error {
	if err := l.rdb.Del(ctx, submitLockKey(id)).Err(); err != nil {
		return errors.Wrap(err, "release submit lock")
	}
	return nil
}
