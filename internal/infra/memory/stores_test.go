package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"biodiversity-quiz/internal/app"
	"biodiversity-quiz/internal/domain"
)

func TestPlayStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewPlayStore()
	svc := app.NewQuizService(app.Config{
		Plays:         store,
		Bank:          staticSource{domain.AgeGroupYoung: sampleSet().Questions},
		NewTickerFunc: func(time.Duration) app.Ticker { return idleTicker{} },
		NewID:         func() string { return "s1" },
	})

	if _, err := svc.Start(ctx, app.StartRequest{UserID: "u1", Type: domain.SessionStandard, AgeGroups: []domain.AgeGroup{domain.AgeGroupYoung}}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, ok := store.Get(ctx, "s1"); !ok {
		t.Fatalf("expected play present")
	}

	if err := svc.Abandon(ctx, "s1"); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if _, ok := store.Get(ctx, "s1"); ok {
		t.Fatalf("expected play removed after abandon")
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d", store.Len())
	}
}

func TestBadgeStoreUpdateError(t *testing.T) {
	ctx := context.Background()
	store := NewBadgeStore()
	boom := errors.New("boom")

	_ = store.Update(ctx, "u1", func([]domain.Badge) ([]domain.Badge, error) {
		return []domain.Badge{{ID: "first_quiz"}}, nil
	})
	err := store.Update(ctx, "u1", func([]domain.Badge) ([]domain.Badge, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected update error, got %v", err)
	}

	badges, _ := store.Load(ctx, "u1")
	if len(badges) != 1 {
		t.Fatalf("failed update must keep collection, got %+v", badges)
	}
}

func TestResultStoreListByUser(t *testing.T) {
	ctx := context.Background()
	store := NewResultStore()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_ = store.Save(ctx, domain.SessionResult{
			SessionID:   string(rune('a' + i)),
			UserID:      "u1",
			Type:        domain.SessionStandard,
			CompletedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	_ = store.Save(ctx, domain.SessionResult{SessionID: "z", UserID: "u2"})

	got, err := store.ListByUser(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].SessionID != "c" || got[1].SessionID != "b" {
		t.Fatalf("expected newest first, got %+v", got)
	}
}

type staticSource map[domain.AgeGroup][]domain.Question

func (s staticSource) Questions(g domain.AgeGroup) []domain.Question { return s[g] }

func (s staticSource) Groups() []domain.AgeGroup {
	return []domain.AgeGroup{domain.AgeGroupYoung}
}

type idleTicker struct{}

func (idleTicker) C() <-chan time.Time { return nil }
func (idleTicker) Stop() {}

