package memory

import (
	"context"
	"sync"

	"biodiversity-quiz/internal/badge"
	"biodiversity-quiz/internal/domain"
)

// BadgeStore keeps badge collections per user. Update holds the store lock for
// the whole read-modify-write, so concurrent completions never lose badges.
type BadgeStore struct {
	mu     sync.Mutex
	badges map[string][]domain.Badge
}

func NewBadgeStore() *BadgeStore {
	return &BadgeStore{badges: make(map[string][]domain.Badge)}
}

func (s *BadgeStore) Load(_ context.Context, userID string) ([]domain.Badge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Badge(nil), s.badges[userID]...), nil
}

func (s *BadgeStore) Update(_ context.Context, userID string, fn badge.UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := append([]domain.Badge(nil), s.badges[userID]...)
	next, err := fn(current)
	if err != nil {
		return err
	}
	s.badges[userID] = next
	return nil
}
