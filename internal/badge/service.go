package badge

import (
	"context"
	"fmt"
	"time"

	"biodiversity-quiz/internal/domain"
)

// UpdateFunc receives the latest collection of a user and returns the
// collection to store.
type UpdateFunc func(current []domain.Badge) ([]domain.Badge, error)

// Store persists badge collections. Update must apply fn as an atomic
// read-modify-write against the latest stored collection of the user.
type Store interface {
	Load(ctx context.Context, userID string) ([]domain.Badge, error)
	Update(ctx context.Context, userID string, fn UpdateFunc) error
}

// Service applies session outcomes to badge collections.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// NewServiceWithClock is for deterministic unlock timestamps in tests.
func NewServiceWithClock(store Store, now func() time.Time) *Service {
	return &Service{store: store, now: now}
}

// Apply merges the outcome into the user's collection and returns the badges
// that were newly added.
func (s *Service) Apply(ctx context.Context, userID string, o Outcome) ([]domain.Badge, error) {
	var added []domain.Badge
	err := s.store.Update(ctx, userID, func(current []domain.Badge) ([]domain.Badge, error) {
		var merged []domain.Badge
		// fn may run more than once when the store retries a conflicting
		// transaction, so added is recomputed from scratch every time.
		merged, added = Merge(current, o, s.now())
		return merged, nil
	})
	if err != nil {
		return nil, fmt.Errorf("apply badges for %s: %w", userID, err)
	}
	return added, nil
}

// List returns the user's badge collection.
func (s *Service) List(ctx context.Context, userID string) ([]domain.Badge, error) {
	badges, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load badges for %s: %w", userID, err)
	}
	return badges, nil
}

// Acknowledge clears the isNew flag of the given badges (all when ids is empty).
func (s *Service) Acknowledge(ctx context.Context, userID string, ids ...string) ([]domain.Badge, error) {
	var out []domain.Badge
	err := s.store.Update(ctx, userID, func(current []domain.Badge) ([]domain.Badge, error) {
		out = make([]domain.Badge, len(current))
		copy(out, current)
		Acknowledge(out, ids...)
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("acknowledge badges for %s: %w", userID, err)
	}
	return out, nil
}
