package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"biodiversity-quiz/internal/badge"
	"biodiversity-quiz/internal/domain"
)

type userBadgesModel struct {
	bun.BaseModel `bun:"table:user_badges,alias:ub"`

	UserID    string         `bun:"user_id,pk"`
	Badges    []domain.Badge `bun:"badges,type:jsonb,notnull"`
	UpdatedAt time.Time      `bun:"updated_at,notnull"`
}

// BadgeStore keeps one row per user. Update locks the row for the duration of
// the read-modify-write transaction.
type BadgeStore struct {
	db  *bun.DB
	now func() time.Time
}

func NewBadgeStore(db *bun.DB) *BadgeStore {
	return &BadgeStore{db: db, now: time.Now}
}

func (s *BadgeStore) Load(ctx context.Context, userID string) ([]domain.Badge, error) {
	m := new(userBadgesModel)
	err := s.db.NewSelect().Model(m).Where("user_id = ?", userID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load badges of %s: %w", userID, err)
	}
	return m.Badges, nil
}

func (s *BadgeStore) Update(ctx context.Context, userID string, fn badge.UpdateFunc) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// Make sure a row exists so FOR UPDATE has something to lock.
		_, err := tx.NewInsert().
			Model(&userBadgesModel{UserID: userID, Badges: []domain.Badge{}, UpdatedAt: s.now()}).
			On("CONFLICT (user_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("ensure badge row of %s: %w", userID, err)
		}

		m := new(userBadgesModel)
		if err := tx.NewSelect().Model(m).Where("user_id = ?", userID).For("UPDATE").Scan(ctx); err != nil {
			return fmt.Errorf("lock badges of %s: %w", userID, err)
		}

		next, err := fn(m.Badges)
		if err != nil {
			return err
		}
		if next == nil {
			next = []domain.Badge{}
		}
		m.Badges = next
		m.UpdatedAt = s.now()
		if _, err := tx.NewUpdate().Model(m).Column("badges", "updated_at").WherePK().Exec(ctx); err != nil {
			return fmt.Errorf("store badges of %s: %w", userID, err)
		}
		return nil
	})
}
