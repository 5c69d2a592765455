package app

import (
	"math/rand/v2"

	"biodiversity-quiz/internal/domain"
	"biodiversity-quiz/internal/scoring"
)

// UltimateUnlockPercentage is the Standard score that unlocks the Ultimate Challenge.
const UltimateUnlockPercentage = 70

// QuestionSource is the read side of the question bank.
type QuestionSource interface {
	Questions(group domain.AgeGroup) []domain.Question
	Groups() []domain.AgeGroup
}

// ShuffleFunc reorders questions in place.
type ShuffleFunc func(qs []domain.Question)

func randomShuffle(qs []domain.Question) {
	rand.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
}

// SelectQuestions resolves the question sequence of a new session.
//
// Standard sessions play every question of the first group in catalog order.
// Ultimate sessions pool the given groups (all groups when none are given),
// drop duplicate ids, shuffle and keep at most rules.QuestionLimit questions.
// Unknown groups contribute nothing, so the result may be empty.
func SelectQuestions(src QuestionSource, rules scoring.Rules, groups []domain.AgeGroup, shuffle ShuffleFunc) []domain.Question {
	if rules.Type == domain.SessionStandard {
		if len(groups) == 0 {
			return nil
		}
		return append([]domain.Question(nil), src.Questions(groups[0])...)
	}

	if len(groups) == 0 {
		groups = src.Groups()
	}
	seen := make(map[string]struct{})
	var pool []domain.Question
	for _, g := range groups {
		for _, q := range src.Questions(g) {
			if _, dup := seen[q.ID]; dup {
				continue
			}
			seen[q.ID] = struct{}{}
			pool = append(pool, q)
		}
	}
	if rules.Shuffle {
		if shuffle == nil {
			shuffle = randomShuffle
		}
		shuffle(pool)
	}
	if rules.QuestionLimit > 0 && len(pool) > rules.QuestionLimit {
		pool = pool[:rules.QuestionLimit]
	}
	return pool
}
