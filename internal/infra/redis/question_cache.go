package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"biodiversity-quiz/internal/bank"
	"biodiversity-quiz/internal/domain"
)

// QuestionCache caches the question catalog in Redis and falls back to a loader
// on cache miss. The catalog is stored as one JSON document:
//
//	SET {prefix}:catalog [{"id":"young",...},...]
type QuestionCache struct {
	client redis.UniversalClient
	loader bank.Loader
	prefix string
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionCache(client redis.UniversalClient, loader bank.Loader, prefix string, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		loader: loader,
		prefix: prefix,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) LoadQuestionSets(ctx context.Context) ([]domain.QuestionSet, error) {
	if sets, ok := c.cached(ctx); ok {
		return sets, nil
	}

	result, err, _ := c.sf.Do(c.key(), func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if sets, ok := c.cached(ctx); ok {
			return sets, nil
		}

		sets, err := c.loader.LoadQuestionSets(ctx)
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(sets)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(ctx, c.key(), data, c.ttlWithJitter()).Err(); err != nil {
			// The loaded catalog is still good, only the cache write failed.
			slog.WarnContext(ctx, "redis: cache catalog failed", "error", err)
		}
		return sets, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.QuestionSet), nil
}

// Invalidate drops the cached catalog, e.g. after reseeding the backing store.
func (c *QuestionCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key()).Err()
}

func (c *QuestionCache) cached(ctx context.Context) ([]domain.QuestionSet, bool) {
	data, err := c.client.Get(ctx, c.key()).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "redis: read cached catalog failed", "error", err)
		}
		return nil, false
	}
	var sets []domain.QuestionSet
	if err := json.Unmarshal(data, &sets); err != nil {
		slog.WarnContext(ctx, "redis: decode cached catalog failed", "error", err)
		return nil, false
	}
	return sets, true
}

func (c *QuestionCache) key() string {
	return c.prefix + ":catalog"
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
