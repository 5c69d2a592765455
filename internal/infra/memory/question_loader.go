package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"biodiversity-quiz/internal/bank"
	"biodiversity-quiz/internal/domain"
)

const catalogKey = "catalog"

// QuestionCache keeps the loaded catalog in process memory with a TTL to avoid
// repeated hits on the backing loader.
type QuestionCache struct {
	loader bank.Loader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	sets      []domain.QuestionSet
	expiresAt time.Time
}

func NewQuestionCache(loader bank.Loader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) LoadQuestionSets(ctx context.Context) ([]domain.QuestionSet, error) {
	if sets, ok := c.cached(c.clock()); ok {
		return sets, nil
	}

	result, err, _ := c.sf.Do(catalogKey, func() (interface{}, error) {
		now := c.clock()
		if sets, ok := c.cached(now); ok {
			return sets, nil
		}

		sets, err := c.loader.LoadQuestionSets(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.sets = sets
		c.expiresAt = now.Add(c.ttlWithJitter())
		c.mu.Unlock()
		return sets, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.QuestionSet), nil
}

func (c *QuestionCache) cached(now time.Time) ([]domain.QuestionSet, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.sets != nil && c.expiresAt.After(now) {
		return c.sets, true
	}
	return nil, false
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// StaticQuestionLoader is a loader backed by fixed sets (useful for tests/demos).
type StaticQuestionLoader struct {
	sets []domain.QuestionSet
}

func NewStaticQuestionLoader(sets ...domain.QuestionSet) *StaticQuestionLoader {
	return &StaticQuestionLoader{sets: sets}
}

func (l *StaticQuestionLoader) LoadQuestionSets(_ context.Context) ([]domain.QuestionSet, error) {
	return l.sets, nil
}
