package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"biodiversity-quiz/internal/badge"
	"biodiversity-quiz/internal/domain"
	"biodiversity-quiz/internal/event"
	"biodiversity-quiz/internal/scoring"
)

// PlayRepository abstracts where running sessions are kept (in-memory, Redis, etc).
type PlayRepository interface {
	Save(ctx context.Context, p *Play)
	Get(ctx context.Context, id string) (*Play, bool)
	Delete(ctx context.Context, id string)
}

// Metrics observes session outcomes.
type Metrics interface {
	SessionStarted(t domain.SessionType)
	SessionUnavailable(t domain.SessionType)
	SessionAbandoned(t domain.SessionType)
	SessionCompleted(r domain.SessionResult)
	BadgesAwarded(badges []domain.Badge)
}

type Config struct {
	Plays    PlayRepository
	Bank     QuestionSource
	Badges   *badge.Service
	EventBus *event.Bus
	Metrics  Metrics

	// Standard and Ultimate override the default rules when their Type is set.
	Standard scoring.Rules
	Ultimate scoring.Rules

	NewTickerFunc NewTickerFunc
	Shuffle       ShuffleFunc
	NewID         func() string
	Now           func() time.Time
}

// StartRequest selects the session type and question pool of a new session.
// Standard sessions play AgeGroups[0]; Ultimate sessions pool all of them, or
// every group when the list is empty.
type StartRequest struct {
	UserID      string
	DisplayName string
	Type        domain.SessionType
	AgeGroups   []domain.AgeGroup
}

// Completion is returned by Advance when the last question has been passed.
type Completion struct {
	Result    domain.SessionResult
	NewBadges []domain.Badge
}

// QuizService contains the core quiz use cases.
type QuizService struct {
	plays    PlayRepository
	bank     QuestionSource
	badges   *badge.Service
	eb       *event.Bus
	metrics  Metrics
	standard scoring.Rules
	ultimate scoring.Rules

	newTicker NewTickerFunc
	shuffle   ShuffleFunc
	newID     func() string
	now       func() time.Time
}

func NewQuizService(c Config) *QuizService {
	s := &QuizService{
		plays:     c.Plays,
		bank:      c.Bank,
		badges:    c.Badges,
		eb:        c.EventBus,
		metrics:   c.Metrics,
		standard:  scoring.StandardRules(),
		ultimate:  scoring.UltimateRules(),
		newTicker: c.NewTickerFunc,
		shuffle:   c.Shuffle,
		newID:     c.NewID,
		now:       c.Now,
	}
	if c.Standard.Type == domain.SessionStandard {
		s.standard = c.Standard
	}
	if c.Ultimate.Type == domain.SessionUltimate {
		s.ultimate = c.Ultimate
	}
	if s.metrics == nil {
		s.metrics = noopMetrics{}
	}
	if s.newTicker == nil {
		s.newTicker = NewRealTicker
	}
	if s.newID == nil {
		s.newID = newSessionID
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func newSessionID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

func (s *QuizService) rulesFor(t domain.SessionType) (scoring.Rules, error) {
	switch t {
	case domain.SessionStandard:
		return s.standard, nil
	case domain.SessionUltimate:
		return s.ultimate, nil
	}
	return scoring.Rules{}, fmt.Errorf("%w: %q", domain.ErrUnknownSessionType, t)
}

// Start resolves the question sequence and starts its first countdown. An empty
// sequence yields domain.ErrNoQuestions and no session is created.
func (s *QuizService) Start(ctx context.Context, req StartRequest) (domain.Snapshot, error) {
	rules, err := s.rulesFor(req.Type)
	if err != nil {
		return domain.Snapshot{}, err
	}

	questions := SelectQuestions(s.bank, rules, req.AgeGroups, s.shuffle)
	session, err := NewSession(s.newID(), rules, questions)
	if err != nil {
		s.metrics.SessionUnavailable(req.Type)
		slog.WarnContext(ctx, "quiz: session unavailable",
			"type", req.Type,
			"ageGroups", req.AgeGroups,
			"error", err,
		)
		return domain.Snapshot{}, fmt.Errorf("start %s session: %w", req.Type, err)
	}

	var group domain.AgeGroup
	if len(req.AgeGroups) > 0 {
		group = req.AgeGroups[0]
	}
	p := newPlay(session, req.UserID, req.DisplayName, group, s.newTicker, s.now)
	s.plays.Save(ctx, p)
	s.metrics.SessionStarted(req.Type)

	slog.InfoContext(ctx, "quiz: session started",
		"session", p.ID(),
		"user", req.UserID,
		"type", req.Type,
		"questions", session.Len(),
	)
	return p.Snapshot(), nil
}

func (s *QuizService) play(ctx context.Context, sessionID string) (*Play, error) {
	p, ok := s.plays.Get(ctx, sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return p, nil
}

// Snapshot returns the current view of a session.
func (s *QuizService) Snapshot(ctx context.Context, sessionID string) (domain.Snapshot, error) {
	p, err := s.play(ctx, sessionID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return p.Snapshot(), nil
}

// SelectAnswer stores a selection. Selections after submit are ignored.
func (s *QuizService) SelectAnswer(ctx context.Context, sessionID, answerID string) (domain.Snapshot, error) {
	p, err := s.play(ctx, sessionID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return p.selectAnswer(answerID), nil
}

// Submit scores the current question. Repeated submits are no-ops.
func (s *QuizService) Submit(ctx context.Context, sessionID string) (domain.Snapshot, error) {
	p, err := s.play(ctx, sessionID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	rec, ok, snap := p.submit()
	if ok {
		slog.DebugContext(ctx, "quiz: answer submitted",
			"session", sessionID,
			"question", rec.QuestionID,
			"correct", rec.Correct,
			"awarded", rec.Awarded,
		)
	}
	return snap, nil
}

// Advance moves to the next question. Passing the last question completes the
// session: badges are folded in, the result is published for reporting and the
// session is discarded.
//
// A non-nil Completion is returned together with an error when the badge store
// failed; the result itself is still final and has been published.
func (s *QuizService) Advance(ctx context.Context, sessionID string) (domain.Snapshot, *Completion, error) {
	p, err := s.play(ctx, sessionID)
	if err != nil {
		return domain.Snapshot{}, nil, err
	}
	done, _, snap := p.advance()
	if !done {
		return snap, nil, nil
	}

	result := p.finish()
	s.plays.Delete(ctx, sessionID)
	s.metrics.SessionCompleted(result)

	slog.InfoContext(ctx, "quiz: session completed",
		"session", sessionID,
		"user", result.UserID,
		"type", result.Type,
		"score", result.Score,
		"totalPossible", result.TotalPossible,
	)

	c := &Completion{Result: result}
	var reportErr error
	if s.badges != nil {
		added, err := s.badges.Apply(ctx, result.UserID, badge.OutcomeFromResult(result))
		if err != nil {
			slog.ErrorContext(ctx, "quiz: apply badges failed",
				"session", sessionID,
				"user", result.UserID,
				"error", err,
			)
			reportErr = fmt.Errorf("record badges: %w", err)
		} else {
			c.NewBadges = added
			s.metrics.BadgesAwarded(added)
			if len(added) > 0 && s.eb != nil {
				s.eb.Publish(ctx, domain.EventBadgesAwarded{UserID: result.UserID, Badges: added})
			}
		}
	}
	if s.eb != nil {
		s.eb.Publish(ctx, domain.EventSessionCompleted{Result: result})
	}
	return snap, c, reportErr
}

// Abandon quits a session. Nothing is scored or reported.
func (s *QuizService) Abandon(ctx context.Context, sessionID string) error {
	p, err := s.play(ctx, sessionID)
	if err != nil {
		return err
	}
	t := p.session.Type()
	if p.abandon() {
		s.metrics.SessionAbandoned(t)
		slog.InfoContext(ctx, "quiz: session abandoned", "session", sessionID)
	}
	s.plays.Delete(ctx, sessionID)
	return nil
}

// Subscribe returns a channel that receives a snapshot on every tick and command.
// The channel is closed when the session completes or is abandoned. The caller
// must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(ctx context.Context, sessionID string) (<-chan domain.Snapshot, func(), error) {
	p, err := s.play(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := p.subscribe()
	return ch, cancel, nil
}

type noopMetrics struct{}

func (noopMetrics) SessionStarted(domain.SessionType) {}
func (noopMetrics) SessionUnavailable(domain.SessionType) {}
func (noopMetrics) SessionAbandoned(domain.SessionType) {}
func (noopMetrics) SessionCompleted(domain.SessionResult) {}
func (noopMetrics) BadgesAwarded([]domain.Badge) {}
