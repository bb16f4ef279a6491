package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ScoreStore keeps each user's cumulative score in Postgres. The upsert only
// ever adds, so scores are monotonically non-decreasing.
type ScoreStore struct {
	pool *pgxpool.Pool
}

func NewScoreStore(pool *pgxpool.Pool) *ScoreStore {
	return &ScoreStore{pool: pool}
}

func (s *ScoreStore) IncrementScore(ctx context.Context, userID string, delta int) error {
	if delta <= 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_scores (user_id, score) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET score = user_scores.score + EXCLUDED.score`,
		userID, delta)
	if err != nil {
		return fmt.Errorf("increment score: %w", err)
	}
	return nil
}

func (s *ScoreStore) GetScore(ctx context.Context, userID string) (int, error) {
	var score int
	err := s.pool.QueryRow(ctx, `SELECT score FROM user_scores WHERE user_id=$1`, userID).Scan(&score)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get score: %w", err)
	}
	return score, nil
}
