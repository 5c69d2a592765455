package memory

import (
	"context"
	"sync"

	"biodiversity-quiz/internal/app"
)

// PlayStore is an in-memory implementation of app.PlayRepository.
type PlayStore struct {
	mu    sync.RWMutex
	plays map[string]*app.Play
}

func NewPlayStore() *PlayStore {
	return &PlayStore{
		plays: make(map[string]*app.Play),
	}
}

func (s *PlayStore) Save(_ context.Context, p *app.Play) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plays[p.ID()] = p
}

func (s *PlayStore) Get(_ context.Context, id string) (*app.Play, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plays[id]
	return p, ok
}

func (s *PlayStore) Delete(_ context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.plays, id)
}

// Len reports the number of running sessions.
func (s *PlayStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.plays)
}
