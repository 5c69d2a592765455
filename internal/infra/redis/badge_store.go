package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"biodiversity-quiz/internal/badge"
	"biodiversity-quiz/internal/domain"
)

const maxBadgeTxRetries = 10

// BadgeStore keeps each user's badge collection as one JSON value. Update runs
// an optimistic WATCH/MULTI transaction so two overlapping completions for the
// same user never overwrite each other.
type BadgeStore struct {
	client redis.UniversalClient
	prefix string
}

func NewBadgeStore(client redis.UniversalClient, prefix string) *BadgeStore {
	return &BadgeStore{client: client, prefix: prefix}
}

func (s *BadgeStore) Load(ctx context.Context, userID string) ([]domain.Badge, error) {
	return s.read(ctx, s.client, userID)
}

func (s *BadgeStore) Update(ctx context.Context, userID string, fn badge.UpdateFunc) error {
	key := s.key(userID)
	txf := func(tx *redis.Tx) error {
		current, err := s.read(ctx, tx, userID)
		if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		data, err := json.Marshal(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxBadgeTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("%w: user %s", domain.ErrBadgeConflict, userID)
}

func (s *BadgeStore) read(ctx context.Context, c redis.Cmdable, userID string) ([]domain.Badge, error) {
	data, err := c.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var badges []domain.Badge
	if err := json.Unmarshal(data, &badges); err != nil {
		return nil, fmt.Errorf("decode badges of %s: %w", userID, err)
	}
	return badges, nil
}

func (s *BadgeStore) key(userID string) string {
	return s.prefix + ":badges:" + userID
}
