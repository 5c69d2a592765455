package app

import (
	"time"

	"biodiversity-quiz/internal/achievement"
	"biodiversity-quiz/internal/domain"
	"biodiversity-quiz/internal/scoring"
)

// Session is the per-session state machine. It is not safe for concurrent use;
// Play serializes commands and timer ticks around it.
type Session struct {
	id            string
	rules         scoring.Rules
	questions     []domain.Question
	totalPossible int

	state     domain.SessionState
	index     int
	selected  *domain.Answer
	submitted bool
	timeLeft  int

	score       int
	streak      int
	maxStreak   int
	fastCorrect int
	timeBonus   int
	timeSpent   int

	answers      []domain.AnswerRecord
	achievements []domain.Achievement
}

// NewSession starts a session over questions. The sequence is used as given;
// see SelectQuestions for how it is resolved from the bank. An empty sequence
// returns domain.ErrNoQuestions and no session.
func NewSession(id string, rules scoring.Rules, questions []domain.Question) (*Session, error) {
	if len(questions) == 0 {
		return nil, domain.ErrNoQuestions
	}
	s := &Session{
		id:            id,
		rules:         rules,
		questions:     questions,
		totalPossible: rules.TotalPossible(questions),
		state:         domain.StateActive,
		timeLeft:      rules.TimeLimit,
		answers:       make([]domain.AnswerRecord, 0, len(questions)),
	}
	if rules.Type == domain.SessionUltimate {
		s.achievements = achievement.Catalog()
	}
	return s, nil
}

func (s *Session) ID() string { return s.id }
func (s *Session) Type() domain.SessionType { return s.rules.Type }
func (s *Session) State() domain.SessionState { return s.state }
func (s *Session) Index() int { return s.index }
func (s *Session) Len() int { return len(s.questions) }
func (s *Session) Submitted() bool { return s.submitted }
func (s *Session) TimeLeft() int { return s.timeLeft }
func (s *Session) Score() int { return s.score }
func (s *Session) TotalPossible() int { return s.totalPossible }
func (s *Session) Streak() int { return s.streak }
func (s *Session) MaxStreak() int { return s.maxStreak }
func (s *Session) Answers() []domain.AnswerRecord { return append([]domain.AnswerRecord(nil), s.answers...) }

// Unanswered reports whether the current question still accepts selections,
// which is also the only state in which the timer runs.
func (s *Session) Unanswered() bool {
	return s.state == domain.StateActive && !s.submitted
}

// Current returns the question at the current index.
func (s *Session) Current() domain.Question {
	return s.questions[s.index]
}

// SelectAnswer stores the selection for the current question. It reports false
// and changes nothing once the question is submitted or when the answer id does
// not belong to the question.
func (s *Session) SelectAnswer(answerID string) bool {
	if !s.Unanswered() {
		return false
	}
	a, ok := s.Current().Answer(answerID)
	if !ok {
		return false
	}
	s.selected = &a
	return true
}

// Submit scores the current question with the stored selection and the time
// left. Only the first call per question has an effect; later calls return
// false until Advance.
func (s *Session) Submit() (domain.AnswerRecord, bool) {
	if !s.Unanswered() {
		return domain.AnswerRecord{}, false
	}
	q := s.Current()
	award := scoring.Score(q, s.selected, s.timeLeft, s.rules)

	s.submitted = true
	s.score += award.Total()
	s.timeBonus += award.Bonus
	if award.Correct {
		s.streak++
		s.maxStreak = max(s.maxStreak, s.streak)
	} else {
		s.streak = 0
	}
	if award.Fast {
		s.fastCorrect++
	}

	spent := s.rules.TimeLimit - s.timeLeft
	s.timeSpent += spent
	rec := domain.AnswerRecord{
		QuestionID: q.ID,
		Correct:    award.Correct,
		Awarded:    award.Total(),
		TimeBonus:  award.Bonus,
		TimeSpent:  spent,
		TimedOut:   s.timeLeft <= 0,
	}
	if s.selected != nil {
		rec.AnswerID = s.selected.ID
	}
	s.answers = append(s.answers, rec)

	s.evaluate(false)
	return rec, true
}

// Tick advances the countdown by one second. When it reaches zero the question
// is submitted with whatever is selected. Ticks outside the unanswered state
// are ignored and report false.
func (s *Session) Tick() bool {
	if !s.Unanswered() {
		return false
	}
	if s.timeLeft > 0 {
		s.timeLeft--
	}
	if s.timeLeft == 0 {
		s.Submit()
	}
	return true
}

// Advance moves past a submitted question. On the last question the session
// completes and Advance reports done.
func (s *Session) Advance() (done bool, ok bool) {
	if s.state != domain.StateActive || !s.submitted {
		return false, false
	}
	if s.index == len(s.questions)-1 {
		s.state = domain.StateComplete
		s.evaluate(true)
		return true, true
	}
	s.index++
	s.selected = nil
	s.submitted = false
	s.timeLeft = s.rules.TimeLimit
	return false, true
}

// Abandon ends an active session without completing it.
func (s *Session) Abandon() bool {
	if s.state != domain.StateActive {
		return false
	}
	s.state = domain.StateAbandoned
	return true
}

func (s *Session) evaluate(complete bool) {
	if s.achievements == nil {
		return
	}
	achievement.Evaluate(s.achievements, achievement.Progress{
		Streak:        s.streak,
		MaxStreak:     s.maxStreak,
		FastCorrect:   s.fastCorrect,
		Score:         s.score,
		TotalPossible: s.totalPossible,
		Questions:     s.questions,
		Complete:      complete,
	})
}

// Percentage is the rounded score percentage, 0 when nothing was possible.
func (s *Session) Percentage() int {
	return domain.Percentage(s.score, s.totalPossible)
}

// Achievements returns a copy of the achievement state. Nil for Standard sessions.
func (s *Session) Achievements() []domain.Achievement {
	return achievement.Clone(s.achievements)
}

// Snapshot builds the read-only presentation view of the session.
func (s *Session) Snapshot() domain.Snapshot {
	snap := domain.Snapshot{
		SessionID:     s.id,
		Type:          s.rules.Type,
		State:         s.state,
		Index:         s.index,
		Count:         len(s.questions),
		Submitted:     s.submitted,
		TimeLeft:      s.timeLeft,
		Score:         s.score,
		TotalPossible: s.totalPossible,
		Streak:        s.streak,
		MaxStreak:     s.maxStreak,
		TimeBonus:     s.timeBonus,
		Achievements:  s.Achievements(),
	}
	if s.selected != nil {
		snap.SelectedAnswerID = s.selected.ID
	}
	if s.submitted && len(s.answers) > 0 {
		last := s.answers[len(s.answers)-1]
		snap.LastAnswer = &last
	}
	if s.state == domain.StateActive {
		qv := questionView(s.Current(), s.submitted)
		snap.Question = &qv
	}
	return snap
}

func questionView(q domain.Question, reveal bool) domain.QuestionView {
	qv := domain.QuestionView{
		ID:         q.ID,
		Text:       q.Text,
		Image:      q.Image,
		Difficulty: q.Difficulty,
		Points:     q.Points,
		Answers:    make([]domain.AnswerView, 0, len(q.Answers)),
	}
	for _, a := range q.Answers {
		av := domain.AnswerView{ID: a.ID, Text: a.Text}
		if reveal {
			correct := a.Correct
			av.Correct = &correct
		}
		qv.Answers = append(qv.Answers, av)
	}
	if reveal {
		qv.Explanation = q.Explanation
		if c, ok := q.CorrectAnswer(); ok {
			qv.CorrectAnswerID = c.ID
		}
	}
	return qv
}

// Result finalizes the session record. Identity fields are filled in by the caller.
func (s *Session) Result(completedAt time.Time) domain.SessionResult {
	pct := s.Percentage()
	r := domain.SessionResult{
		SessionID:     s.id,
		Type:          s.rules.Type,
		Score:         s.score,
		TotalPossible: s.totalPossible,
		Percentage:    pct,
		TimeBonus:     s.timeBonus,
		MaxStreak:     s.maxStreak,
		TimeSpent:     s.timeSpent,
		Answers:       s.Answers(),
		CompletedAt:   completedAt,
	}
	if s.rules.Type == domain.SessionUltimate {
		r.AgeGroup = domain.AgeGroupUltimate
		r.Achievements = achievement.Unlocked(s.achievements)
	} else {
		r.UltimateUnlocked = pct >= UltimateUnlockPercentage
	}
	return r
}
