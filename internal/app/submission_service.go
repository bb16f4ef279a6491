package app

import (
	"context"
	"fmt"
	"time"

	"lingua-quiz-service/internal/domain"
)

// DefaultMaxAttempts bounds how often a learner may retry a quiz.
const DefaultMaxAttempts = 3

// SubmissionRepository abstracts how submissions are stored (in-memory, Postgres, etc).
type SubmissionRepository interface {
	// FindSubmissions returns the full history for a (user, quiz) pair, ordered by attempt.
	FindSubmissions(ctx context.Context, userID, quizID string) ([]domain.Submission, error)
	// InsertSubmission persists a new submission and returns it with storage identity assigned.
	InsertSubmission(ctx context.Context, sub domain.Submission) (domain.Submission, error)
	GetSubmission(ctx context.Context, id string) (domain.Submission, error)
	ListByUser(ctx context.Context, userID string, page, limit int) (domain.SubmissionPage, error)
	SetFeedback(ctx context.Context, id, feedback string) error
}

// ScoreRepository holds each user's cumulative score. Increments only.
type ScoreRepository interface {
	IncrementScore(ctx context.Context, userID string, delta int) error
	GetScore(ctx context.Context, userID string) (int, error)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// SubmissionService is the answer-evaluation and attempt-gating engine.
type SubmissionService struct {
	submissions SubmissionRepository
	scores      ScoreRepository
	progress    *ProgressHub
	maxAttempts int
	pairLocks   keyedMutex
	now         func() time.Time
}

func NewSubmissionService(submissions SubmissionRepository, scores ScoreRepository, hub *ProgressHub, maxAttempts int) *SubmissionService {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &SubmissionService{
		submissions: submissions,
		scores:      scores,
		progress:    hub,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// NewSubmissionServiceWithClock is test-only for deterministic timestamps.
func NewSubmissionServiceWithClock(submissions SubmissionRepository, scores ScoreRepository, hub *ProgressHub, maxAttempts int, now func() time.Time) *SubmissionService {
	s := NewSubmissionService(submissions, scores, hub, maxAttempts)
	s.now = now
	return s
}

// Evaluate grades a learner's answer against the key, enforces the attempt
// cap with stop-on-first-success semantics, persists the submission, and
// applies the score delta.
//
// The read-gate-write sequence is serialized per (user, quiz) pair so two
// concurrent calls cannot both observe the same attempt count and overrun the
// cap. A second service instance is backstopped by the store's uniqueness
// constraint on (quiz, user, attempt).
func (s *SubmissionService) Evaluate(ctx context.Context, userID, quizID string, answer domain.Answer, key domain.AnswerKey) (domain.SubmissionSummary, error) {
	if userID == "" {
		return domain.SubmissionSummary{}, domain.ErrMissingUser
	}
	if quizID == "" || key.IsZero() {
		return domain.SubmissionSummary{}, domain.ErrMissingFields
	}
	if answer.IsEmpty() {
		return domain.SubmissionSummary{}, domain.ErrMissingAnswers
	}

	unlock := s.pairLocks.lock(userID + "\x00" + quizID)
	defer unlock()

	prior, err := s.submissions.FindSubmissions(ctx, userID, quizID)
	if err != nil {
		return domain.SubmissionSummary{}, storeFault("find submissions", err)
	}

	for _, sub := range prior {
		if sub.Correct {
			return domain.SubmissionSummary{}, domain.ErrAlreadyCompleted
		}
	}
	if len(prior) >= s.maxAttempts {
		return domain.SubmissionSummary{}, domain.ErrAttemptsExceeded
	}

	correct, total := Grade(key, answer)
	attempt := len(prior) + 1
	submission := domain.Submission{
		QuizID:      quizID,
		UserID:      userID,
		Answer:      answer,
		Correct:     correct == total,
		Attempt:     attempt,
		SubmittedAt: s.now(),
	}

	// The insert strictly precedes the score increment: a call aborted before
	// the submission is persisted must not move the score.
	stored, err := s.submissions.InsertSubmission(ctx, submission)
	if err != nil {
		return domain.SubmissionSummary{}, storeFault("insert submission", err)
	}

	if correct > 0 {
		if err := s.scores.IncrementScore(ctx, userID, correct); err != nil {
			return domain.SubmissionSummary{}, storeFault("increment score", err)
		}
	}
	score, err := s.scores.GetScore(ctx, userID)
	if err != nil {
		return domain.SubmissionSummary{}, storeFault("read score", err)
	}

	if s.progress != nil {
		s.progress.Publish(domain.ProgressUpdate{
			UserID:  userID,
			QuizID:  quizID,
			Correct: stored.Correct,
			Attempt: attempt,
			Score:   score,
			At:      stored.SubmittedAt,
		})
	}

	return domain.SubmissionSummary{
		Message:        s.resultMessage(stored.Correct, attempt),
		CorrectAnswers: correct,
		TotalQuestions: total,
		Score:          score,
		Correct:        stored.Correct,
		Attempt:        attempt,
	}, nil
}

// Score returns the user's current cumulative score.
func (s *SubmissionService) Score(ctx context.Context, userID string) (int, error) {
	score, err := s.scores.GetScore(ctx, userID)
	if err != nil {
		return 0, storeFault("read score", err)
	}
	return score, nil
}

func (s *SubmissionService) resultMessage(correct bool, attempt int) string {
	if correct {
		return "Correct! You have successfully completed the quiz."
	}
	if attempt >= s.maxAttempts {
		return fmt.Sprintf("Incorrect. You have reached the maximum number of attempts. (Attempt %d of %d)", attempt, s.maxAttempts)
	}
	return fmt.Sprintf("Incorrect. Try again! (Attempt %d of %d)", attempt, s.maxAttempts)
}

// storeFault tags infra failures so callers can retry on ErrStoreUnavailable.
func storeFault(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, domain.ErrStoreUnavailable)
}
