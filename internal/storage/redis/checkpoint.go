package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/techstore-vn/checkout-api/internal/domain/payment"
)

// checkpointTTL is storage hygiene only. The awaiting-payment state has no
// user-facing expiry; payment confirmation arrives via the server-side
// webhook regardless of this key.
const checkpointTTL = 24 * time.Hour

var _ payment.CheckpointStore = (*CheckpointStore)(nil)

// CheckpointStore implements payment.CheckpointStore on Redis.
type CheckpointStore struct {
	rdb *redis.Client
}

// NewCheckpointStore returns a CheckpointStore using the given client.
func NewCheckpointStore(rdb *redis.Client) *CheckpointStore {
	return &CheckpointStore{rdb: rdb}
}

func checkpointKey(sessionID string) string {
	return "payment:qr:" + sessionID
}

// Save writes the checkpoint. It is written once per successful
// bank-transfer initiation and read by the confirmation view.
func (s *CheckpointStore) Save(ctx context.Context, cp payment.Checkpoint) error {
	raw, err := json.Marshal(cp)
	if err != nil {
		return errors.Wrap(err, "encode checkpoint")
	}
	if err := s.rdb.Set(ctx, checkpointKey(cp.SessionID), raw, checkpointTTL).Err(); err != nil {
		return errors.Wrap(err, "set checkpoint")
	}
	return nil
}

// Load returns the stored checkpoint, or nil when none exists.
func (s *CheckpointStore) Load(ctx context.Context, sessionID string) (*payment.Checkpoint, error) {
	raw, err := s.rdb.Get(ctx, checkpointKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get checkpoint")
	}
	var cp payment.Checkpoint
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, errors.Wrap(err, "decode checkpoint")
	}
	return &cp, nil
}
