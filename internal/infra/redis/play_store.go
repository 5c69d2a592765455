package redis

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"biodiversity-quiz/internal/app"
)

// PlayStore is a Redis-aware implementation of app.PlayRepository.
// Notes:
//   - Running sessions own a live countdown goroutine, so the session itself
//     stays in a local map on the instance that started it.
//   - Redis records which session ids are live, with a TTL
//     so sessions of a crashed instance disappear on their own.
type PlayStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	mu     sync.RWMutex
	plays  map[string]*app.Play
}

func NewPlayStore(client redis.UniversalClient, prefix string, ttl time.Duration) *PlayStore {
	return &PlayStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		plays:  make(map[string]*app.Play),
	}
}

func (s *PlayStore) Save(ctx context.Context, p *app.Play) {
	s.mu.Lock()
	s.plays[p.ID()] = p
	s.mu.Unlock()

	// best-effort liveness marker
	if err := s.client.Set(ctx, s.key(p.ID()), p.UserID(), s.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "redis: mark session live failed", "session", p.ID(), "error", err)
	}
}

func (s *PlayStore) Get(ctx context.Context, id string) (*app.Play, bool) {
	s.mu.RLock()
	p, ok := s.plays[id]
	s.mu.RUnlock()
	if ok && s.ttl > 0 {
		_ = s.client.Expire(ctx, s.key(id), s.ttl).Err()
	}
	return p, ok
}

func (s *PlayStore) Delete(ctx context.Context, id string) {
	s.mu.Lock()
	delete(s.plays, id)
	s.mu.Unlock()
	_ = s.client.Del(ctx, s.key(id)).Err()
}

// Live reports whether any instance holds the session.
func (s *PlayStore) Live(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(id)).Result()
	return n == 1, err
}

func (s *PlayStore) key(id string) string {
	return s.prefix + ":session:" + id
}
