// Package scoring maps a submitted answer to awarded points.
package scoring

import (
	"math"

	"biodiversity-quiz/internal/domain"
)

const (
	StandardTimeLimit = 30
	UltimateTimeLimit = 45
	// FastAnswerThreshold is the number of seconds that must still be left for
	// a correct Ultimate answer to earn the time bonus.
	FastAnswerThreshold = 15
	UltimateQuestions   = 10

	ultimateMultiplier = 1.5
	timeBonusFactor    = 0.5
)

// Rules parameterize a session type. The zero value is not usable; start from
// StandardRules or UltimateRules.
type Rules struct {
	Type          domain.SessionType
	TimeLimit     int
	Multiplier    float64
	BonusFactor   float64
	FastThreshold int
	// QuestionLimit truncates the sequence when positive.
	QuestionLimit int
	Shuffle       bool
}

func StandardRules() Rules {
	return Rules{
		Type:       domain.SessionStandard,
		TimeLimit:  StandardTimeLimit,
		Multiplier: 1,
	}
}

func UltimateRules() Rules {
	return Rules{
		Type:          domain.SessionUltimate,
		TimeLimit:     UltimateTimeLimit,
		Multiplier:    ultimateMultiplier,
		BonusFactor:   timeBonusFactor,
		FastThreshold: FastAnswerThreshold,
		QuestionLimit: UltimateQuestions,
		Shuffle:       true,
	}
}

// RulesFor returns the default rules of a session type.
func RulesFor(t domain.SessionType) (Rules, error) {
	switch t {
	case domain.SessionStandard:
		return StandardRules(), nil
	case domain.SessionUltimate:
		return UltimateRules(), nil
	}
	return Rules{}, domain.ErrUnknownSessionType
}

// Award is the scored outcome of one submission.
type Award struct {
	Correct bool
	// Fast is set for correct answers that beat the fast answer threshold.
	Fast  bool
	Base  int
	Bonus int
}

// Total is the number of points added to the running score.
func (a Award) Total() int {
	return a.Base + a.Bonus
}

// Possible is the number of points a question contributes to totalPossible.
func (r Rules) Possible(q domain.Question) int {
	return round(float64(q.Points) * r.Multiplier)
}

// TotalPossible sums Possible over a question sequence.
func (r Rules) TotalPossible(questions []domain.Question) int {
	total := 0
	for _, q := range questions {
		total += r.Possible(q)
	}
	return total
}

// Score evaluates a submission. A nil selection is a timeout without an answer
// and scores like a wrong answer.
func Score(q domain.Question, selected *domain.Answer, timeLeft int, r Rules) Award {
	if selected == nil || !selected.Correct {
		return Award{}
	}
	award := Award{
		Correct: true,
		Base:    r.Possible(q),
	}
	if r.BonusFactor > 0 && timeLeft > r.FastThreshold {
		award.Fast = true
		award.Bonus = round(float64(q.Points) * r.BonusFactor)
	}
	return award
}

// round rounds half up, matching the catalog's published point tables.
func round(v float64) int {
	return int(math.Floor(v + 0.5))
}
