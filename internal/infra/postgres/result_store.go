package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"biodiversity-quiz/internal/domain"
)

type sessionResultModel struct {
	bun.BaseModel `bun:"table:session_results,alias:sr"`

	SessionID        string                `bun:"session_id,pk"`
	UserID           string                `bun:"user_id,notnull"`
	DisplayName      string                `bun:"display_name"`
	SessionType      string                `bun:"session_type,notnull"`
	AgeGroup         string                `bun:"age_group,notnull"`
	Score            int                   `bun:"score,notnull"`
	TotalPossible    int                   `bun:"total_possible,notnull"`
	Percentage       int                   `bun:"percentage,notnull"`
	TimeBonus        int                   `bun:"time_bonus,notnull"`
	MaxStreak        int                   `bun:"max_streak,notnull"`
	TimeSpent        int                   `bun:"time_spent,notnull"`
	UltimateUnlocked bool                  `bun:"ultimate_unlocked,notnull"`
	Achievements     []domain.Achievement  `bun:"achievements,type:jsonb"`
	Answers          []domain.AnswerRecord `bun:"answers,type:jsonb"`
	CompletedAt      time.Time             `bun:"completed_at,notnull"`
}

func toResultModel(r domain.SessionResult) *sessionResultModel {
	return &sessionResultModel{
		SessionID:        r.SessionID,
		UserID:           r.UserID,
		DisplayName:      r.DisplayName,
		SessionType:      string(r.Type),
		AgeGroup:         string(r.AgeGroup),
		Score:            r.Score,
		TotalPossible:    r.TotalPossible,
		Percentage:       r.Percentage,
		TimeBonus:        r.TimeBonus,
		MaxStreak:        r.MaxStreak,
		TimeSpent:        r.TimeSpent,
		UltimateUnlocked: r.UltimateUnlocked,
		Achievements:     r.Achievements,
		Answers:          r.Answers,
		CompletedAt:      r.CompletedAt,
	}
}

func (m *sessionResultModel) toDomain() domain.SessionResult {
	return domain.SessionResult{
		SessionID:        m.SessionID,
		UserID:           m.UserID,
		DisplayName:      m.DisplayName,
		Type:             domain.SessionType(m.SessionType),
		AgeGroup:         domain.AgeGroup(m.AgeGroup),
		Score:            m.Score,
		TotalPossible:    m.TotalPossible,
		Percentage:       m.Percentage,
		TimeBonus:        m.TimeBonus,
		MaxStreak:        m.MaxStreak,
		TimeSpent:        m.TimeSpent,
		UltimateUnlocked: m.UltimateUnlocked,
		Achievements:     m.Achievements,
		Answers:          m.Answers,
		CompletedAt:      m.CompletedAt,
	}
}

// ResultStore persists finished sessions with bun.
type ResultStore struct {
	db *bun.DB
}

func NewResultStore(db *bun.DB) *ResultStore {
	return &ResultStore{db: db}
}

// Save stores a result. Saving the same session twice keeps the first record.
func (s *ResultStore) Save(ctx context.Context, r domain.SessionResult) error {
	_, err := s.db.NewInsert().
		Model(toResultModel(r)).
		On("CONFLICT (session_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save result %s: %w", r.SessionID, err)
	}
	return nil
}

// ListByUser returns the user's results, most recent first, at most limit when positive.
func (s *ResultStore) ListByUser(ctx context.Context, userID string, limit int) ([]domain.SessionResult, error) {
	var models []sessionResultModel
	q := s.db.NewSelect().
		Model(&models).
		Where("user_id = ?", userID).
		Order("completed_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list results of %s: %w", userID, err)
	}

	out := make([]domain.SessionResult, 0, len(models))
	for i := range models {
		out = append(out, models[i].toDomain())
	}
	return out, nil
}
