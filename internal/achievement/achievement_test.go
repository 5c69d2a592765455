package achievement_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biodiversity-quiz/internal/achievement"
	"biodiversity-quiz/internal/domain"
)

func TestEvaluate(t *testing.T) {
	allDifficulties := []domain.Question{
		question("q1", domain.DifficultyEasy, true),
		question("q2", domain.DifficultyMedium, true),
		question("q3", domain.DifficultyHard, true),
	}

	tests := map[string]struct {
		progress achievement.Progress
		want     []string
	}{
		"nothing unlocks on a fresh session": {
			progress: achievement.Progress{},
			want:     nil,
		},
		"a streak of five unlocks streak master": {
			progress: achievement.Progress{Streak: 5, MaxStreak: 5},
			want:     []string{achievement.StreakMaster},
		},
		"three fast correct answers unlock speed demon": {
			progress: achievement.Progress{FastCorrect: 3},
			want:     []string{achievement.SpeedDemon},
		},
		"completion alone unlocks ultimate complete": {
			progress: achievement.Progress{Complete: true, Score: 5, TotalPossible: 10},
			want:     []string{achievement.UltimateComplete},
		},
		"perfect score requires score equal to total": {
			progress: achievement.Progress{Complete: true, Score: 10, TotalPossible: 10},
			want:     []string{achievement.UltimateComplete, achievement.PerfectScore},
		},
		"perfect score is not checked before completion": {
			progress: achievement.Progress{Score: 10, TotalPossible: 10},
			want:     nil,
		},
		"diversity looks at the question set at completion": {
			progress: achievement.Progress{Complete: true, Score: 0, TotalPossible: 10, Questions: allDifficulties},
			want:     []string{achievement.UltimateComplete, achievement.DiversityExpert},
		},
		"diversity ignores questions without a correct answer": {
			progress: achievement.Progress{
				Complete:      true,
				TotalPossible: 10,
				Questions: []domain.Question{
					question("q1", domain.DifficultyEasy, true),
					question("q2", domain.DifficultyMedium, true),
					question("q3", domain.DifficultyHard, false),
				},
			},
			want: []string{achievement.UltimateComplete},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			catalog := achievement.Catalog()
			got := achievement.Evaluate(catalog, tt.progress)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_UnlocksOnce(t *testing.T) {
	catalog := achievement.Catalog()

	first := achievement.Evaluate(catalog, achievement.Progress{Streak: 5, MaxStreak: 5})
	require.Equal(t, []string{achievement.StreakMaster}, first)

	again := achievement.Evaluate(catalog, achievement.Progress{Streak: 6, MaxStreak: 6})
	assert.Empty(t, again, "an unlocked achievement must not unlock again")

	broken := achievement.Evaluate(catalog, achievement.Progress{Streak: 0, MaxStreak: 6})
	assert.Empty(t, broken)

	unlocked := achievement.Unlocked(catalog)
	require.Len(t, unlocked, 1)
	assert.Equal(t, achievement.StreakMaster, unlocked[0].ID)
	assert.Equal(t, &domain.Progress{Current: 5, Target: 5}, unlocked[0].Progress)
}

func TestEvaluate_TracksProgress(t *testing.T) {
	catalog := achievement.Catalog()

	achievement.Evaluate(catalog, achievement.Progress{Streak: 2, MaxStreak: 3, FastCorrect: 1})

	for _, a := range catalog {
		switch a.ID {
		case achievement.StreakMaster:
			assert.Equal(t, 3, a.Progress.Current)
		case achievement.SpeedDemon:
			assert.Equal(t, 1, a.Progress.Current)
		}
	}
}

func TestClone(t *testing.T) {
	catalog := achievement.Catalog()
	cp := achievement.Clone(catalog)

	cp[2].Progress.Current = 4
	assert.Zero(t, catalog[2].Progress.Current, "clone must not share progress")
}

func question(id string, d domain.Difficulty, answerable bool) domain.Question {
	return domain.Question{
		ID:         id,
		Difficulty: d,
		Points:     10,
		Answers: []domain.Answer{
			{ID: id + "a", Correct: answerable},
			{ID: id + "b"},
		},
	}
}
