package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"biodiversity-quiz/internal/domain"
)

// Metrics counts quiz session outcomes in Prometheus.
type Metrics struct {
	started     *prometheus.CounterVec
	unavailable *prometheus.CounterVec
	abandoned   *prometheus.CounterVec
	completed   *prometheus.CounterVec
	percentage  *prometheus.HistogramVec
	badges      *prometheus.CounterVec
}

// NewMetrics registers the quiz collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		started: f.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_sessions_started_total",
			Help: "Total number of started quiz sessions",
		}, []string{"type"}),
		unavailable: f.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_sessions_unavailable_total",
			Help: "Total number of start requests without questions",
		}, []string{"type"}),
		abandoned: f.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_sessions_abandoned_total",
			Help: "Total number of abandoned quiz sessions",
		}, []string{"type"}),
		completed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_sessions_completed_total",
			Help: "Total number of completed quiz sessions",
		}, []string{"type", "age_group"}),
		percentage: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quiz_session_score_percentage",
			Help:    "Score percentage of completed quiz sessions",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		}, []string{"type"}),
		badges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_badges_awarded_total",
			Help: "Total number of badges added to user collections",
		}, []string{"category"}),
	}
}

func (m *Metrics) SessionStarted(t domain.SessionType) {
	m.started.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) SessionUnavailable(t domain.SessionType) {
	m.unavailable.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) SessionAbandoned(t domain.SessionType) {
	m.abandoned.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) SessionCompleted(r domain.SessionResult) {
	m.completed.WithLabelValues(string(r.Type), string(r.AgeGroup)).Inc()
	m.percentage.WithLabelValues(string(r.Type)).Observe(float64(r.Percentage))
}

func (m *Metrics) BadgesAwarded(badges []domain.Badge) {
	for _, b := range badges {
		m.badges.WithLabelValues(string(b.Category)).Inc()
	}
}
