package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/techstore-vn/checkout-api/internal/domain/cart"
)

// cartTTL keeps abandoned carts around long enough for a returning
// customer; the TTL refreshes on every write.
const cartTTL = 30 * 24 * time.Hour

var _ cart.Store = (*CartStore)(nil)

// CartStore implements cart.Store on Redis, one JSON value per session.
type CartStore struct {
	rdb *redis.Client
}

// NewCartStore returns a CartStore using the given client.
func NewCartStore(rdb *redis.Client) *CartStore {
	return &CartStore{rdb: rdb}
}

func cartKey(sessionID string) string {
	return "cart:" + sessionID
}

// Get returns the stored cart, or nil when the session has none.
func (s *CartStore) Get(ctx context.Context, sessionID string) (*cart.Cart, error) {
	raw, err := s.rdb.Get(ctx, cartKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}
	var c cart.Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, errors.Wrap(err, "decode cart")
	}
	return &c, nil
}

// Put stores the cart and refreshes its TTL.
func (s *CartStore) Put(ctx context.Context, c *cart.Cart) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode cart")
	}
	if err := s.rdb.Set(ctx, cartKey(c.SessionID), raw, cartTTL).Err(); err != nil {
		return errors.Wrap(err, "set cart")
	}
	return nil
}

// Delete removes the cart for a session.
func (s *CartStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return errors.Wrap(err, "delete cart")
	}
	return nil
}
