package report_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biodiversity-quiz/internal/domain"
	"biodiversity-quiz/internal/event"
	"biodiversity-quiz/internal/infra/memory"
	"biodiversity-quiz/internal/report"
)

func TestRecorder(t *testing.T) {
	tests := map[string]struct {
		failing bool
		wantErr bool
	}{
		"should deliver the result to every sink": {},
		"should still deliver to healthy sinks when one fails": {
			failing: true,
			wantErr: true,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			history := memory.NewResultStore()
			var counted atomic.Int32
			sinks := map[string]report.Sink{
				"history": report.SinkFunc(history.Save),
				"counter": report.SinkFunc(func(context.Context, domain.SessionResult) error {
					counted.Add(1)
					return nil
				}),
			}
			if tt.failing {
				sinks["broken"] = report.SinkFunc(func(context.Context, domain.SessionResult) error {
					return errors.New("db down")
				})
			}

			eb := event.NewBus()
			r := report.NewRecorder(eb, sinks)

			res := domain.SessionResult{SessionID: "s1", UserID: "u1", Score: 40, TotalPossible: 100}
			err := r.Record(context.Background(), res)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "broken")
			} else {
				require.NoError(t, err)
			}

			got, err := history.ListByUser(context.Background(), "u1", 0)
			require.NoError(t, err)
			assert.Len(t, got, 1)
			assert.EqualValues(t, 1, counted.Load())

			eb.Stop()
		})
	}
}

func TestRecorder_SubscribesToCompletedSessions(t *testing.T) {
	history := memory.NewResultStore()
	eb := event.NewBus()
	report.NewRecorder(eb, map[string]report.Sink{"history": report.SinkFunc(history.Save)})

	eb.Publish(context.Background(), domain.EventSessionCompleted{Result: domain.SessionResult{SessionID: "s1", UserID: "u1"}})
	eb.Publish(context.Background(), domain.EventBadgesAwarded{UserID: "u1"})
	eb.Stop()

	got, err := history.ListByUser(context.Background(), "u1", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].SessionID)
}
