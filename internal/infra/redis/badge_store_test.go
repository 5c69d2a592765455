package redis

import (
	"context"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biodiversity-quiz/internal/badge"
	"biodiversity-quiz/internal/domain"
)

func TestBadgeStore_ApplyAndAcknowledge(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	svc := badge.NewService(NewBadgeStore(newClient(mr), "quiz"))

	added, err := svc.Apply(ctx, "u1", badge.Outcome{Type: domain.SessionStandard, Percentage: 100})
	require.NoError(t, err)
	assert.Len(t, added, 3)
	assert.True(t, mr.Exists("quiz:badges:u1"))

	badges, err := svc.Acknowledge(ctx, "u1")
	require.NoError(t, err)
	for _, b := range badges {
		assert.False(t, b.IsNew, b.ID)
	}

	stored, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, badges, stored)
}

func TestBadgeStore_LoadUnknownUser(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewBadgeStore(newClient(mr), "quiz")

	badges, err := store.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, badges)
}

func TestBadgeStore_OverlappingCompletionsKeepAllBadges(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	svc := badge.NewService(NewBadgeStore(newClient(mr), "quiz"))

	standard := badge.Outcome{Type: domain.SessionStandard, Percentage: 50}
	ultimate := badge.Outcome{
		Type:         domain.SessionUltimate,
		Achievements: []domain.Achievement{{ID: "ultimate_complete", Unlocked: true}},
	}

	var wg sync.WaitGroup
	for _, o := range []badge.Outcome{standard, ultimate} {
		o := o
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Apply(ctx, "u1", o)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	badges, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	var ids []string
	for _, b := range badges {
		ids = append(ids, b.ID)
	}
	assert.ElementsMatch(t, []string{badge.FirstQuiz, "ultimate.ultimate_complete"}, ids)
}
