// Package leaderboard ranks the best completed sessions per age group in Redis
// sorted sets.
package leaderboard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"biodiversity-quiz/internal/domain"
	"biodiversity-quiz/internal/event"
)

const (
	DefaultMinPercentage = 50
	DefaultLimit         = 10
)

type Config struct {
	// EventBus is optional. When set, the service records every completed
	// session it sees on the bus.
	EventBus *event.Bus
	Redis    redis.UniversalClient
	Prefix   string
	// MinPercentage is the share of the possible points a result needs to be
	// admitted. Zero means DefaultMinPercentage.
	MinPercentage int
}

type Service struct {
	redis  redis.UniversalClient
	prefix string
	minPct int
}

func NewService(c Config) *Service {
	s := &Service{
		redis:  c.Redis,
		prefix: c.Prefix,
		minPct: c.MinPercentage,
	}
	if s.minPct <= 0 {
		s.minPct = DefaultMinPercentage
	}

	if c.EventBus != nil {
		c.EventBus.Subscribe(domain.EventNameSessionCompleted, func(ctx context.Context, e event.Event) error {
			return s.Record(ctx, e.(domain.EventSessionCompleted).Result)
		})
	}

	return s
}

// Admitted reports whether a result is good enough for the leaderboard. The
// ratio is compared on raw points, not on the rounded percentage.
func (s *Service) Admitted(r domain.SessionResult) bool {
	if r.TotalPossible <= 0 {
		return false
	}
	return r.Score*100 >= s.minPct*r.TotalPossible
}

// Record adds an admitted result to the board of its age group. A user keeps
// their best score only.
func (s *Service) Record(ctx context.Context, r domain.SessionResult) error {
	if !s.Admitted(r) {
		slog.DebugContext(ctx, "leaderboard: result not admitted",
			"session", r.SessionID,
			"score", r.Score,
			"totalPossible", r.TotalPossible,
		)
		return nil
	}

	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAddGT(ctx, s.boardKey(r.AgeGroup), redis.Z{
			Score:  float64(r.Score),
			Member: r.UserID,
		})
		if r.DisplayName != "" {
			pipe.HSet(ctx, s.namesKey(), r.UserID, r.DisplayName)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update leaderboard %s: %w", r.AgeGroup, err)
	}
	return nil
}

type GetLeaderboardRequest struct {
	AgeGroup domain.AgeGroup
	// Limit caps the number of entries. Zero means DefaultLimit; negative means all.
	Limit int
}

// GetLeaderboard returns the ranked entries of one age group, best first. An
// empty board is not an error.
func (s *Service) GetLeaderboard(ctx context.Context, req GetLeaderboardRequest) (*domain.Leaderboard, error) {
	stop := int64(req.Limit) - 1
	switch {
	case req.Limit == 0:
		stop = DefaultLimit - 1
	case req.Limit < 0:
		stop = -1
	}

	res, err := s.redis.ZRevRangeWithScores(ctx, s.boardKey(req.AgeGroup), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("get leaderboard %s: %w", req.AgeGroup, err)
	}

	l := &domain.Leaderboard{
		AgeGroup: req.AgeGroup,
		Entries:  make([]domain.LeaderboardEntry, 0, len(res)),
	}
	if len(res) == 0 {
		return l, nil
	}

	ids := make([]string, 0, len(res))
	for _, z := range res {
		ids = append(ids, z.Member.(string))
	}
	names, err := s.redis.HMGet(ctx, s.namesKey(), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("get leaderboard names: %w", err)
	}

	for i, z := range res {
		e := domain.LeaderboardEntry{
			Rank:   i + 1,
			UserID: ids[i],
			Score:  int(z.Score),
		}
		if name, ok := names[i].(string); ok {
			e.DisplayName = name
		}
		l.Entries = append(l.Entries, e)
	}
	return l, nil
}

func (s *Service) boardKey(group domain.AgeGroup) string {
	return fmt.Sprintf("%s:leaderboard:%s", s.prefix, group)
}

func (s *Service) namesKey() string {
	return fmt.Sprintf("%s:leaderboard:names", s.prefix)
}
