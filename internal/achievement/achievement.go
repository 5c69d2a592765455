// Package achievement evaluates the Ultimate Challenge achievement catalog.
package achievement

import "biodiversity-quiz/internal/domain"

const (
	UltimateComplete = "ultimate_complete"
	PerfectScore     = "perfect_score"
	StreakMaster     = "streak_master"
	SpeedDemon       = "speed_demon"
	DiversityExpert  = "diversity_expert"

	StreakTarget    = 5
	FastTarget      = 3
	DiversityTarget = 3
)

// Catalog returns a fresh, all-locked copy of the achievement catalog in display order.
func Catalog() []domain.Achievement {
	return []domain.Achievement{
		{
			ID:          UltimateComplete,
			Title:       "Ultimate Champion",
			Description: "Completed the Ultimate Challenge",
			Icon:        "🏆",
			Category:    domain.CategoryAchievement,
		},
		{
			ID:          PerfectScore,
			Title:       "Flawless Victory",
			Description: "Achieved a perfect score on the Ultimate Challenge",
			Icon:        "✨",
			Category:    domain.CategoryMastery,
		},
		{
			ID:          StreakMaster,
			Title:       "Streak Master",
			Description: "Answered 5 questions correctly in a row",
			Icon:        "🔥",
			Category:    domain.CategoryStreak,
			Progress:    &domain.Progress{Target: StreakTarget},
		},
		{
			ID:          SpeedDemon,
			Title:       "Speed Demon",
			Description: "Answered 3 questions quickly and correctly",
			Icon:        "⚡",
			Category:    domain.CategoryAchievement,
			Progress:    &domain.Progress{Target: FastTarget},
		},
		{
			ID:          DiversityExpert,
			Title:       "Biodiversity Expert",
			Description: "Correctly answered questions from all difficulty levels",
			Icon:        "🌿",
			Category:    domain.CategorySpecial,
		},
	}
}

// Progress is the session state the evaluator looks at.
type Progress struct {
	Streak        int
	MaxStreak     int
	FastCorrect   int
	Score         int
	TotalPossible int
	Questions     []domain.Question
	Complete      bool
}

// Evaluate unlocks every achievement whose condition holds for p and returns the
// ids that were unlocked by this call. Achievements that are already unlocked
// are left untouched, so the result only ever grows.
func Evaluate(achievements []domain.Achievement, p Progress) []string {
	var unlocked []string
	for i := range achievements {
		a := &achievements[i]
		updateProgress(a, p)
		if a.Unlocked || !satisfied(a.ID, p) {
			continue
		}
		a.Unlocked = true
		if a.Progress != nil {
			a.Progress.Current = a.Progress.Target
		}
		unlocked = append(unlocked, a.ID)
	}
	return unlocked
}

// Clone deep-copies achievements so callers can hand them out without sharing
// progress counters with a running session.
func Clone(achievements []domain.Achievement) []domain.Achievement {
	if achievements == nil {
		return nil
	}
	out := make([]domain.Achievement, len(achievements))
	for i, a := range achievements {
		if a.Progress != nil {
			p := *a.Progress
			a.Progress = &p
		}
		out[i] = a
	}
	return out
}

// Unlocked filters the unlocked achievements.
func Unlocked(achievements []domain.Achievement) []domain.Achievement {
	out := make([]domain.Achievement, 0, len(achievements))
	for _, a := range Clone(achievements) {
		if a.Unlocked {
			out = append(out, a)
		}
	}
	return out
}

func satisfied(id string, p Progress) bool {
	switch id {
	case StreakMaster:
		return p.Streak >= StreakTarget
	case SpeedDemon:
		return p.FastCorrect >= FastTarget
	case UltimateComplete:
		return p.Complete
	case PerfectScore:
		return p.Complete && p.Score == p.TotalPossible
	case DiversityExpert:
		return p.Complete && len(answerableDifficulties(p.Questions)) >= DiversityTarget
	}
	return false
}

func updateProgress(a *domain.Achievement, p Progress) {
	if a.Progress == nil || a.Unlocked {
		return
	}
	switch a.ID {
	case StreakMaster:
		a.Progress.Current = min(p.MaxStreak, a.Progress.Target)
	case SpeedDemon:
		a.Progress.Current = min(p.FastCorrect, a.Progress.Target)
	}
}

// answerableDifficulties collects the difficulties of questions that have a
// correct answer. It looks at the question set, not at what the player got right.
func answerableDifficulties(questions []domain.Question) map[domain.Difficulty]struct{} {
	set := make(map[domain.Difficulty]struct{}, 3)
	for _, q := range questions {
		if _, ok := q.CorrectAnswer(); ok {
			set[q.Difficulty] = struct{}{}
		}
	}
	return set
}
