// Package bank holds the immutable question catalog shared by every session.
package bank

import (
	"context"
	"fmt"
	"slices"

	"biodiversity-quiz/internal/domain"
)

// Loader fetches the question catalog from a backing store.
type Loader interface {
	LoadQuestionSets(ctx context.Context) ([]domain.QuestionSet, error)
}

// Bank is the read-only question catalog. It is built once at startup and
// shared by concurrent sessions without copying questions.
type Bank struct {
	order []domain.AgeGroup
	sets  map[domain.AgeGroup]domain.QuestionSet
}

// Load builds a bank from the sets returned by loader.
func Load(ctx context.Context, loader Loader) (*Bank, error) {
	sets, err := loader.LoadQuestionSets(ctx)
	if err != nil {
		return nil, fmt.Errorf("load question sets: %w", err)
	}
	return New(sets)
}

// New validates sets and builds a bank. Set order is preserved; it is the
// order Ultimate sessions pool tiers in when no tiers are requested.
func New(sets []domain.QuestionSet) (*Bank, error) {
	b := &Bank{
		order: make([]domain.AgeGroup, 0, len(sets)),
		sets:  make(map[domain.AgeGroup]domain.QuestionSet, len(sets)),
	}
	for _, set := range sets {
		if set.ID == "" {
			return nil, fmt.Errorf("%w: question set without id", domain.ErrInvalidCatalog)
		}
		if _, dup := b.sets[set.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate age group %q", domain.ErrInvalidCatalog, set.ID)
		}
		if err := validateSet(set); err != nil {
			return nil, err
		}
		set.Questions = slices.Clip(slices.Clone(set.Questions))
		b.order = append(b.order, set.ID)
		b.sets[set.ID] = set
	}
	return b, nil
}

func validateSet(set domain.QuestionSet) error {
	seen := make(map[string]struct{}, len(set.Questions))
	for _, q := range set.Questions {
		if q.ID == "" {
			return fmt.Errorf("%w: %s: question without id", domain.ErrInvalidCatalog, set.ID)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("%w: %s: duplicate question %q", domain.ErrInvalidCatalog, set.ID, q.ID)
		}
		seen[q.ID] = struct{}{}
		if q.Points <= 0 {
			return fmt.Errorf("%w: question %q: points must be positive", domain.ErrInvalidCatalog, q.ID)
		}
		if !q.Difficulty.Valid() {
			return fmt.Errorf("%w: question %q: unknown difficulty %q", domain.ErrInvalidCatalog, q.ID, q.Difficulty)
		}
		answers := make(map[string]struct{}, len(q.Answers))
		correct := 0
		for _, a := range q.Answers {
			if _, dup := answers[a.ID]; dup || a.ID == "" {
				return fmt.Errorf("%w: question %q: answer ids must be unique and non-empty", domain.ErrInvalidCatalog, q.ID)
			}
			answers[a.ID] = struct{}{}
			if a.Correct {
				correct++
			}
		}
		if correct != 1 {
			return fmt.Errorf("%w: question %q: %d correct answers, want exactly 1", domain.ErrInvalidCatalog, q.ID, correct)
		}
	}
	return nil
}

// Questions returns the questions of one age group in catalog order. Unknown
// groups yield an empty sequence, not an error.
func (b *Bank) Questions(group domain.AgeGroup) []domain.Question {
	set, ok := b.sets[group]
	if !ok {
		return nil
	}
	// Clipped on construction, so appends by callers never write into the bank.
	return set.Questions
}

// All returns every age group with its questions.
func (b *Bank) All() map[domain.AgeGroup][]domain.Question {
	out := make(map[domain.AgeGroup][]domain.Question, len(b.sets))
	for id, set := range b.sets {
		out[id] = set.Questions
	}
	return out
}

// Groups lists the age groups in catalog order.
func (b *Bank) Groups() []domain.AgeGroup {
	return slices.Clone(b.order)
}

// Set returns the catalog entry of one age group.
func (b *Bank) Set(group domain.AgeGroup) (domain.QuestionSet, bool) {
	set, ok := b.sets[group]
	return set, ok
}

// Sets returns every catalog entry in catalog order.
func (b *Bank) Sets() []domain.QuestionSet {
	out := make([]domain.QuestionSet, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.sets[id])
	}
	return out
}
