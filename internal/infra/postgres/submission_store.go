package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"lingua-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// SubmissionStore persists the attempt ledger in Postgres. Answers are stored
// as JSONB so text and matching shapes share one column.
type SubmissionStore struct {
	pool *pgxpool.Pool
}

func NewSubmissionStore(pool *pgxpool.Pool) *SubmissionStore {
	return &SubmissionStore{pool: pool}
}

func (s *SubmissionStore) FindSubmissions(ctx context.Context, userID, quizID string) ([]domain.Submission, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, quiz_id, user_id, answer, correct, attempt, submitted_at, COALESCE(feedback, '')
		FROM submissions
		WHERE user_id=$1 AND quiz_id=$2
		ORDER BY attempt`,
		userID, quizID)
	if err != nil {
		return nil, fmt.Errorf("find submissions: %w", err)
	}
	defer rows.Close()

	return scanSubmissions(rows)
}

func (s *SubmissionStore) InsertSubmission(ctx context.Context, sub domain.Submission) (domain.Submission, error) {
	answer, err := json.Marshal(sub.Answer)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("marshal answer: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		INSERT INTO submissions (quiz_id, user_id, answer, correct, attempt, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id::text, submitted_at`,
		sub.QuizID, sub.UserID, answer, sub.Correct, sub.Attempt, sub.SubmittedAt,
	).Scan(&sub.ID, &sub.SubmittedAt)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("insert submission: %w", err)
	}
	return sub, nil
}

func (s *SubmissionStore) GetSubmission(ctx context.Context, id string) (domain.Submission, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id::text, quiz_id, user_id, answer, correct, attempt, submitted_at, COALESCE(feedback, '')
		FROM submissions
		WHERE id=$1::uuid`,
		id)

	sub, err := scanSubmission(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	if err != nil {
		return domain.Submission{}, fmt.Errorf("get submission: %w", err)
	}
	return sub, nil
}

func (s *SubmissionStore) ListByUser(ctx context.Context, userID string, page, limit int) (domain.SubmissionPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id::text, quiz_id, user_id, answer, correct, attempt, submitted_at, COALESCE(feedback, '')
		FROM submissions
		WHERE user_id=$1
		ORDER BY submitted_at DESC
		OFFSET $2 LIMIT $3`,
		userID, (page-1)*limit, limit)
	if err != nil {
		return domain.SubmissionPage{}, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	subs, err := scanSubmissions(rows)
	if err != nil {
		return domain.SubmissionPage{}, err
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM submissions WHERE user_id=$1`, userID).Scan(&total); err != nil {
		return domain.SubmissionPage{}, fmt.Errorf("count submissions: %w", err)
	}

	return domain.SubmissionPage{Submissions: subs, Total: total, Page: page, Limit: limit}, nil
}

func (s *SubmissionStore) SetFeedback(ctx context.Context, id, feedback string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE submissions SET feedback=$2 WHERE id=$1::uuid`, id, feedback)
	if err != nil {
		return fmt.Errorf("set feedback: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubmissionNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(row rowScanner) (domain.Submission, error) {
	var (
		sub    domain.Submission
		answer []byte
	)
	if err := row.Scan(&sub.ID, &sub.QuizID, &sub.UserID, &answer, &sub.Correct, &sub.Attempt, &sub.SubmittedAt, &sub.Feedback); err != nil {
		return domain.Submission{}, err
	}
	if err := json.Unmarshal(answer, &sub.Answer); err != nil {
		return domain.Submission{}, fmt.Errorf("unmarshal answer: %w", err)
	}
	return sub, nil
}

func scanSubmissions(rows pgx.Rows) ([]domain.Submission, error) {
	var out []domain.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan submissions: %w", err)
	}
	return out, nil
}
