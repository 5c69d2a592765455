package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"biodiversity-quiz/internal/bank"
	"biodiversity-quiz/internal/domain"
)

func TestQuestionCacheCaches(t *testing.T) {
	loader := &countingLoader{Loader: NewStaticQuestionLoader(sampleSet())}
	cache := NewQuestionCache(loader, time.Minute)

	if _, err := cache.LoadQuestionSets(context.Background()); err != nil {
		t.Fatalf("load sets: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	sets, err := cache.LoadQuestionSets(context.Background())
	if err != nil {
		t.Fatalf("load sets 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
	if len(sets) != 1 || sets[0].ID != domain.AgeGroupYoung {
		t.Fatalf("unexpected sets %+v", sets)
	}
}

func TestQuestionCacheExpires(t *testing.T) {
	loader := &countingLoader{Loader: NewStaticQuestionLoader(sampleSet())}
	cache := NewQuestionCache(loader, time.Minute)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	cache.clock = func() time.Time { return now }

	_, _ = cache.LoadQuestionSets(context.Background())
	now = now.Add(2 * time.Minute)
	_, _ = cache.LoadQuestionSets(context.Background())

	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.calls)
	}
}

func TestQuestionCacheDoesNotCacheErrors(t *testing.T) {
	loader := &failingLoader{err: errors.New("db down")}
	cache := NewQuestionCache(loader, time.Minute)

	if _, err := cache.LoadQuestionSets(context.Background()); err == nil {
		t.Fatalf("expected loader error")
	}
	loader.err = nil
	if _, err := cache.LoadQuestionSets(context.Background()); err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
}

func TestQuestionCacheFeedsBank(t *testing.T) {
	cache := NewQuestionCache(NewStaticQuestionLoader(sampleSet()), time.Minute)

	b, err := bank.Load(context.Background(), cache)
	if err != nil {
		t.Fatalf("load bank: %v", err)
	}
	if got := len(b.Questions(domain.AgeGroupYoung)); got != 1 {
		t.Fatalf("expected 1 question, got %d", got)
	}
}

type countingLoader struct {
	bank.Loader
	mu    sync.Mutex
	calls int
}

func (l *countingLoader) LoadQuestionSets(ctx context.Context) ([]domain.QuestionSet, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.Loader.LoadQuestionSets(ctx)
}

type failingLoader struct {
	err error
}

func (l *failingLoader) LoadQuestionSets(context.Context) ([]domain.QuestionSet, error) {
	if l.err != nil {
		return nil, l.err
	}
	return []domain.QuestionSet{sampleSet()}, nil
}

func sampleSet() domain.QuestionSet {
	return domain.QuestionSet{
		ID:   domain.AgeGroupYoung,
		Name: "Young Heroes",
		Questions: []domain.Question{
			{
				ID:         "y1",
				Text:       "Which of these animals is a mammal?",
				Difficulty: domain.DifficultyEasy,
				Points:     10,
				Answers: []domain.Answer{
					{ID: "y1a", Text: "Fish"},
					{ID: "y1c", Text: "Dolphin", Correct: true},
				},
			},
		},
	}
}
