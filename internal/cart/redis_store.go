package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront/pkg/redis"
)

// RedisStore keeps each slot under sf:cart:<slot> with a sliding TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore builds a RedisStore; ttl <= 0 keeps slots without expiry.
func NewRedisStore(client *redis.Client, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Load(ctx context.Context, slot string) ([]byte, error) {
	key := s.client.CartKey(slot)
	raw, err := s.client.Get(ctx, key)
	if err != nil {
		if redis.IsNil(err) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("load cart slot: %w", err)
	}
	if err := s.client.Touch(ctx, key, s.ttl); err != nil {
		return nil, fmt.Errorf("refresh cart slot ttl: %w", err)
	}
	return []byte(raw), nil
}

func (s *RedisStore) Save(ctx context.Context, slot string, payload []byte) error {
	if err := s.client.Set(ctx, s.client.CartKey(slot), payload, s.ttl); err != nil {
		return fmt.Errorf("save cart slot: %w", err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, slot string) error {
	if err := s.client.Del(ctx, s.client.CartKey(slot)); err != nil {
		return fmt.Errorf("remove cart slot: %w", err)
	}
	return nil
}
