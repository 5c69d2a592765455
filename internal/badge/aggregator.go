// Package badge folds finished sessions into a user's persistent badge collection.
package badge

import (
	"time"

	"biodiversity-quiz/internal/domain"
)

const (
	FirstQuiz    = "first_quiz"
	HighScore    = "high_score"
	PerfectScore = "perfect_score"

	// UltimatePrefix namespaces badges earned from Ultimate achievements so they
	// never collide with the Standard milestone ids.
	UltimatePrefix = "ultimate."

	HighScorePercentage = 80
)

// Outcome is what a finished session contributes to the badge collection.
type Outcome struct {
	Type          domain.SessionType
	Score         int
	TotalPossible int
	Percentage    int
	// Achievements unlocked during an Ultimate session. Empty for Standard.
	Achievements []domain.Achievement
}

// OutcomeFromResult builds the aggregator input of a session result.
func OutcomeFromResult(r domain.SessionResult) Outcome {
	return Outcome{
		Type:          r.Type,
		Score:         r.Score,
		TotalPossible: r.TotalPossible,
		Percentage:    r.Percentage,
		Achievements:  r.Achievements,
	}
}

// Merge appends the badges earned by outcome to existing and returns the merged
// collection together with the badges that were added. existing is not modified.
// Badges are deduplicated by id and never removed.
func Merge(existing []domain.Badge, o Outcome, now time.Time) (merged []domain.Badge, added []domain.Badge) {
	merged = make([]domain.Badge, len(existing), len(existing)+4)
	copy(merged, existing)

	have := make(map[string]struct{}, len(existing))
	for _, b := range existing {
		have[b.ID] = struct{}{}
	}
	add := func(b domain.Badge) {
		if _, ok := have[b.ID]; ok {
			return
		}
		have[b.ID] = struct{}{}
		b.Unlocked = true
		b.IsNew = true
		b.DateUnlocked = now
		merged = append(merged, b)
		added = append(added, b)
	}

	switch o.Type {
	case domain.SessionStandard:
		add(milestone(FirstQuiz))
		if o.Percentage >= HighScorePercentage {
			add(milestone(HighScore))
		}
		if o.Percentage == 100 {
			add(milestone(PerfectScore))
		}
	case domain.SessionUltimate:
		for _, a := range o.Achievements {
			if !a.Unlocked {
				continue
			}
			add(fromAchievement(a))
		}
	}
	return merged, added
}

// Acknowledge clears the isNew flag of the given badge ids, or of every badge
// when no id is passed. It reports whether anything changed.
func Acknowledge(badges []domain.Badge, ids ...string) bool {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	changed := false
	for i := range badges {
		if !badges[i].IsNew {
			continue
		}
		if _, ok := want[badges[i].ID]; ok || len(ids) == 0 {
			badges[i].IsNew = false
			changed = true
		}
	}
	return changed
}

func milestone(id string) domain.Badge {
	b := domain.Badge{ID: id, Category: domain.CategoryAchievement}
	switch id {
	case FirstQuiz:
		b.Title = "First Steps"
		b.Description = "Completed your first biodiversity quiz"
		b.Icon = "🌱"
	case HighScore:
		b.Title = "High Achiever"
		b.Description = "Scored 80% or higher on a quiz"
		b.Icon = "🏅"
	case PerfectScore:
		b.Title = "Perfect Score"
		b.Description = "Achieved a perfect score on a quiz"
		b.Icon = "✨"
	}
	return b
}

func fromAchievement(a domain.Achievement) domain.Badge {
	b := domain.Badge{
		ID:          UltimatePrefix + a.ID,
		Title:       a.Title,
		Description: a.Description,
		Icon:        a.Icon,
		Category:    domain.CategorySpecial,
	}
	if a.Progress != nil {
		p := *a.Progress
		b.Progress = &p
	}
	return b
}
