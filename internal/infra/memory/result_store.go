package memory

import (
	"context"
	"sort"
	"sync"

	"biodiversity-quiz/internal/domain"
)

// ResultStore records finished sessions in memory.
type ResultStore struct {
	mu      sync.RWMutex
	results map[string][]domain.SessionResult
}

func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[string][]domain.SessionResult)}
}

func (s *ResultStore) Save(_ context.Context, r domain.SessionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[r.UserID] = append(s.results[r.UserID], r)
	return nil
}

// ListByUser returns the user's results, most recent first, at most limit when positive.
func (s *ResultStore) ListByUser(_ context.Context, userID string, limit int) ([]domain.SessionResult, error) {
	s.mu.RLock()
	out := append([]domain.SessionResult(nil), s.results[userID]...)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompletedAt.After(out[j].CompletedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
