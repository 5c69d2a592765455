// Package report hands completed sessions to the persistence collaborators.
package report

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"biodiversity-quiz/internal/domain"
	"biodiversity-quiz/internal/event"
)

// Sink receives every completed session.
type Sink interface {
	Record(ctx context.Context, r domain.SessionResult) error
}

type SinkFunc func(ctx context.Context, r domain.SessionResult) error

func (f SinkFunc) Record(ctx context.Context, r domain.SessionResult) error { return f(ctx, r) }

// History stores completed sessions for later listing.
type History interface {
	Save(ctx context.Context, r domain.SessionResult) error
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.SessionResult, error)
}

// Recorder fans a completed session out to its sinks. Sinks run concurrently
// and independently: one failing sink does not stop the others, and nothing
// is rolled back or retried.
type Recorder struct {
	sinks map[string]Sink
}

// NewRecorder subscribes the recorder to session completions on eb.
func NewRecorder(eb *event.Bus, sinks map[string]Sink) *Recorder {
	r := &Recorder{sinks: sinks}
	eb.Subscribe(domain.EventNameSessionCompleted, func(ctx context.Context, e event.Event) error {
		return r.Record(ctx, e.(domain.EventSessionCompleted).Result)
	})
	return r
}

// Record delivers res to every sink and returns the first failure.
func (r *Recorder) Record(ctx context.Context, res domain.SessionResult) error {
	var g errgroup.Group
	for name, s := range r.sinks {
		name, s := name, s
		g.Go(func() error {
			if err := s.Record(ctx, res); err != nil {
				slog.ErrorContext(ctx, "report: sink failed",
					"sink", name,
					"session", res.SessionID,
					"user", res.UserID,
					"error", err,
				)
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		})
	}
	return g.Wait()
}
