package leaderboard_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biodiversity-quiz/internal/domain"
	"biodiversity-quiz/internal/event"
	"biodiversity-quiz/internal/leaderboard"
)

func result(user, name string, score, total int) domain.SessionResult {
	return domain.SessionResult{
		SessionID:     user + "-session",
		UserID:        user,
		DisplayName:   name,
		Type:          domain.SessionStandard,
		AgeGroup:      domain.AgeGroupYoung,
		Score:         score,
		TotalPossible: total,
		Percentage:    domain.Percentage(score, total),
	}
}

func TestService_Record(t *testing.T) {
	tests := map[string]struct {
		results []domain.SessionResult
		want    []domain.LeaderboardEntry
	}{
		"should rank admitted results best first": {
			results: []domain.SessionResult{
				result("u1", "Ada", 60, 100),
				result("u2", "Bo", 90, 100),
			},
			want: []domain.LeaderboardEntry{
				{Rank: 1, UserID: "u2", DisplayName: "Bo", Score: 90},
				{Rank: 2, UserID: "u1", DisplayName: "Ada", Score: 60},
			},
		},
		"should skip results below half of the possible points": {
			results: []domain.SessionResult{
				result("u1", "Ada", 49, 100),
				result("u2", "Bo", 50, 100),
			},
			want: []domain.LeaderboardEntry{
				{Rank: 1, UserID: "u2", DisplayName: "Bo", Score: 50},
			},
		},
		"should keep the best score of a user": {
			results: []domain.SessionResult{
				result("u1", "Ada", 80, 100),
				result("u1", "Ada", 60, 100),
			},
			want: []domain.LeaderboardEntry{
				{Rank: 1, UserID: "u1", DisplayName: "Ada", Score: 80},
			},
		},
		"should skip results without possible points": {
			results: []domain.SessionResult{result("u1", "Ada", 0, 0)},
			want:    []domain.LeaderboardEntry{},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s := makeService(t, nil)
			ctx := context.Background()

			for _, r := range tt.results {
				require.NoError(t, s.Record(ctx, r))
			}

			got, err := s.GetLeaderboard(ctx, leaderboard.GetLeaderboardRequest{AgeGroup: domain.AgeGroupYoung})
			require.NoError(t, err)
			assert.Equal(t, domain.AgeGroupYoung, got.AgeGroup)
			assert.Equal(t, tt.want, got.Entries)
		})
	}
}

func TestService_GetLeaderboardLimit(t *testing.T) {
	s := makeService(t, nil)
	ctx := context.Background()

	for i, u := range []string{"u1", "u2", "u3"} {
		require.NoError(t, s.Record(ctx, result(u, "", 60+i*10, 100)))
	}

	got, err := s.GetLeaderboard(ctx, leaderboard.GetLeaderboardRequest{AgeGroup: domain.AgeGroupYoung, Limit: 2})
	require.NoError(t, err)
	require.Len(t, got.Entries, 2)
	assert.Equal(t, "u3", got.Entries[0].UserID)
	assert.Empty(t, got.Entries[0].DisplayName)

	got, err = s.GetLeaderboard(ctx, leaderboard.GetLeaderboardRequest{AgeGroup: domain.AgeGroupYoung, Limit: -1})
	require.NoError(t, err)
	assert.Len(t, got.Entries, 3)
}

func TestService_SeparateBoardsPerAgeGroup(t *testing.T) {
	s := makeService(t, nil)
	ctx := context.Background()

	ultimate := result("u1", "Ada", 100, 120)
	ultimate.Type = domain.SessionUltimate
	ultimate.AgeGroup = domain.AgeGroupUltimate
	require.NoError(t, s.Record(ctx, ultimate))

	young, err := s.GetLeaderboard(ctx, leaderboard.GetLeaderboardRequest{AgeGroup: domain.AgeGroupYoung})
	require.NoError(t, err)
	assert.Empty(t, young.Entries)

	board, err := s.GetLeaderboard(ctx, leaderboard.GetLeaderboardRequest{AgeGroup: domain.AgeGroupUltimate})
	require.NoError(t, err)
	require.Len(t, board.Entries, 1)
	assert.Equal(t, 100, board.Entries[0].Score)
}

func TestService_RecordsCompletedSessionsFromBus(t *testing.T) {
	eb := event.NewBus()
	s := makeService(t, eb)

	eb.Publish(context.Background(), domain.EventSessionCompleted{Result: result("u1", "Ada", 70, 100)})
	eb.Stop()

	got, err := s.GetLeaderboard(context.Background(), leaderboard.GetLeaderboardRequest{AgeGroup: domain.AgeGroupYoung})
	require.NoError(t, err)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, 70, got.Entries[0].Score)
}

func makeService(t *testing.T, eb *event.Bus) *leaderboard.Service {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rs := miniredis.RunT(t)
	rc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{rs.Addr()},
	})
	t.Cleanup(func() { _ = rc.Close() })
	require.NoError(t, rc.Ping(ctx).Err(), "should be able to ping redis")

	return leaderboard.NewService(leaderboard.Config{
		EventBus: eb,
		Redis:    rc,
		Prefix:   "quiz",
	})
}
