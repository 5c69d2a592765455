package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"biodiversity-quiz/internal/domain"
)

// QuestionLoader loads the question catalog from the question_sets table. Each
// row holds one age group with its questions as JSONB.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadQuestionSets(ctx context.Context) ([]domain.QuestionSet, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, name, description, questions FROM question_sets ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("load question sets: %w", err)
	}
	defer rows.Close()

	var sets []domain.QuestionSet
	for rows.Next() {
		var (
			set domain.QuestionSet
			raw []byte
		)
		if err := rows.Scan(&set.ID, &set.Name, &set.Description, &raw); err != nil {
			return nil, fmt.Errorf("scan question set: %w", err)
		}
		if err := json.Unmarshal(raw, &set.Questions); err != nil {
			return nil, fmt.Errorf("unmarshal questions of %s: %w", set.ID, err)
		}
		sets = append(sets, set)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load question sets: %w", err)
	}
	return sets, nil
}

// Seed replaces the stored catalog with sets in one transaction. Catalog order
// is kept in the position column.
func (l *QuestionLoader) Seed(ctx context.Context, sets []domain.QuestionSet) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM question_sets`)
	for i, set := range sets {
		raw, err := json.Marshal(set.Questions)
		if err != nil {
			return fmt.Errorf("marshal questions of %s: %w", set.ID, err)
		}
		batch.Queue(
			`INSERT INTO question_sets (id, position, name, description, questions) VALUES ($1, $2, $3, $4, $5::jsonb)`,
			string(set.ID), i, set.Name, set.Description, string(raw),
		)
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("seed question sets: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("seed question sets: %w", err)
	}
	return tx.Commit(ctx)
}
