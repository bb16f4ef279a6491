package app_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"lingua-quiz-service/internal/app"
	"lingua-quiz-service/internal/domain"
	"lingua-quiz-service/internal/infra/memory"
)

func TestEvaluateValidation(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(0)
	key := domain.AnswerKey{Type: domain.ShortAnswer, Text: "Bonjour"}

	if _, err := service.Evaluate(ctx, "", "quiz-1", domain.Answer{Text: "bonjour"}, key); !errors.Is(err, domain.ErrMissingUser) {
		t.Fatalf("expected missing user, got %v", err)
	}
	if _, err := service.Evaluate(ctx, "u1", "", domain.Answer{Text: "bonjour"}, key); !errors.Is(err, domain.ErrMissingFields) {
		t.Fatalf("expected missing fields, got %v", err)
	}
	if _, err := service.Evaluate(ctx, "u1", "quiz-1", domain.Answer{Text: "bonjour"}, domain.AnswerKey{}); !errors.Is(err, domain.ErrMissingFields) {
		t.Fatalf("expected missing fields for empty key, got %v", err)
	}
	if _, err := service.Evaluate(ctx, "u1", "quiz-1", domain.Answer{}, key); !errors.Is(err, domain.ErrMissingAnswers) {
		t.Fatalf("expected missing answers, got %v", err)
	}
}

func TestEvaluateCorrectFirstTry(t *testing.T) {
	ctx := context.Background()
	service, submissions, _ := newTestService(0)
	key := domain.AnswerKey{Type: domain.ShortAnswer, Text: "Bonjour"}

	summary, err := service.Evaluate(ctx, "u1", "quiz-1", domain.Answer{Text: "  bonjour  "}, key)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !summary.Correct || summary.CorrectAnswers != 1 || summary.TotalQuestions != 1 {
		t.Fatalf("expected 1/1 correct, got %+v", summary)
	}
	if summary.Score != 1 || summary.Attempt != 1 {
		t.Fatalf("expected score 1 on attempt 1, got %+v", summary)
	}
	if !strings.Contains(summary.Message, "Correct") {
		t.Fatalf("expected success message, got %q", summary.Message)
	}

	history, _ := submissions.FindSubmissions(ctx, "u1", "quiz-1")
	if len(history) != 1 || !history[0].Correct {
		t.Fatalf("expected one correct submission persisted, got %+v", history)
	}

	// Completion is sticky even with attempts remaining.
	if _, err := service.Evaluate(ctx, "u1", "quiz-1", domain.Answer{Text: "bonjour"}, key); !errors.Is(err, domain.ErrAlreadyCompleted) {
		t.Fatalf("expected already completed, got %v", err)
	}
	history, _ = submissions.FindSubmissions(ctx, "u1", "quiz-1")
	if len(history) != 1 {
		t.Fatalf("rejected call must not create a submission, got %d", len(history))
	}
}

func TestEvaluateAttemptCap(t *testing.T) {
	ctx := context.Background()
	service, submissions, _ := newTestService(0)
	key := domain.AnswerKey{
		Type: domain.Matching,
		Pairs: []domain.MatchPair{
			{Left: "chat", Right: "cat"},
			{Left: "chien", Right: "dog"},
		},
	}
	wrong := domain.Answer{Pairs: []domain.MatchPair{
		{Left: "chat", Right: "cat"},
		{Left: "chien", Right: "bird"},
	}}

	for attempt := 1; attempt <= 3; attempt++ {
		summary, err := service.Evaluate(ctx, "u1", "quiz-1", wrong, key)
		if err != nil {
			t.Fatalf("attempt %d: %v", attempt, err)
		}
		if summary.Correct || summary.CorrectAnswers != 0 || summary.TotalQuestions != 2 {
			t.Fatalf("attempt %d: expected 0/2 incorrect, got %+v", attempt, summary)
		}
		if summary.Attempt != attempt {
			t.Fatalf("expected attempt %d, got %d", attempt, summary.Attempt)
		}
		if attempt == 3 && !strings.Contains(summary.Message, "maximum") {
			t.Fatalf("expected final attempt message to flag the cap, got %q", summary.Message)
		}
	}

	if _, err := service.Evaluate(ctx, "u1", "quiz-1", wrong, key); !errors.Is(err, domain.ErrAttemptsExceeded) {
		t.Fatalf("expected attempts exceeded, got %v", err)
	}
	history, _ := submissions.FindSubmissions(ctx, "u1", "quiz-1")
	if len(history) != 3 {
		t.Fatalf("rejected 4th call must not persist, got %d submissions", len(history))
	}
}

func TestEvaluateScoreMonotonicity(t *testing.T) {
	ctx := context.Background()
	service, _, scores := newTestService(0)

	shortKey := domain.AnswerKey{Type: domain.ShortAnswer, Text: "merci"}
	matchKey := domain.AnswerKey{
		Type: domain.Matching,
		Pairs: []domain.MatchPair{
			{Left: "un", Right: "one"},
			{Left: "deux", Right: "two"},
			{Left: "trois", Right: "three"},
		},
	}

	if _, err := service.Evaluate(ctx, "u1", "quiz-1", domain.Answer{Text: "merci"}, shortKey); err != nil {
		t.Fatalf("evaluate short: %v", err)
	}
	if score, _ := scores.GetScore(ctx, "u1"); score != 1 {
		t.Fatalf("expected score 1, got %d", score)
	}

	// Wrong answer on another quiz leaves the score untouched.
	if _, err := service.Evaluate(ctx, "u1", "quiz-2", domain.Answer{Text: "oops"}, shortKey); err != nil {
		t.Fatalf("evaluate wrong: %v", err)
	}
	if score, _ := scores.GetScore(ctx, "u1"); score != 1 {
		t.Fatalf("incorrect attempt must not change score, got %d", score)
	}

	summary, err := service.Evaluate(ctx, "u1", "quiz-3", domain.Answer{Pairs: []domain.MatchPair{
		{Left: "un", Right: "one"},
		{Left: "deux", Right: "two"},
		{Left: "trois", Right: "three"},
	}}, matchKey)
	if err != nil {
		t.Fatalf("evaluate matching: %v", err)
	}
	if summary.Score != 4 {
		t.Fatalf("expected score 1+3=4, got %d", summary.Score)
	}
}

func TestEvaluateStoreFaultIsRetryable(t *testing.T) {
	ctx := context.Background()
	failing := &failingSubmissions{}
	service := app.NewSubmissionService(failing, memory.NewScoreStore(), nil, 0)

	_, err := service.Evaluate(ctx, "u1", "quiz-1", domain.Answer{Text: "bonjour"},
		domain.AnswerKey{Type: domain.ShortAnswer, Text: "bonjour"})
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable, got %v", err)
	}
}

func TestEvaluateSerializesPerPair(t *testing.T) {
	ctx := context.Background()
	service, submissions, _ := newTestService(0)
	key := domain.AnswerKey{Type: domain.ShortAnswer, Text: "bonjour"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = service.Evaluate(ctx, "u1", "quiz-1", domain.Answer{Text: "nope"}, key)
		}()
	}
	wg.Wait()

	history, _ := submissions.FindSubmissions(ctx, "u1", "quiz-1")
	if len(history) != 3 {
		t.Fatalf("expected exactly 3 accepted attempts under concurrency, got %d", len(history))
	}
	seen := map[int]bool{}
	for _, sub := range history {
		if seen[sub.Attempt] {
			t.Fatalf("duplicate attempt ordinal %d", sub.Attempt)
		}
		seen[sub.Attempt] = true
	}
}

func TestEvaluatePublishesProgress(t *testing.T) {
	ctx := context.Background()
	hub := app.NewProgressHub()
	service := app.NewSubmissionService(memory.NewSubmissionStore(), memory.NewScoreStore(), hub, 0)

	updates, cancel := hub.Subscribe("u1")
	defer cancel()

	if _, err := service.Evaluate(ctx, "u1", "quiz-1", domain.Answer{Text: "bonjour"},
		domain.AnswerKey{Type: domain.ShortAnswer, Text: "bonjour"}); err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	update := <-updates
	if update.QuizID != "quiz-1" || !update.Correct || update.Score != 1 || update.Attempt != 1 {
		t.Fatalf("unexpected progress update %+v", update)
	}
}

type failingSubmissions struct{}

func (f *failingSubmissions) FindSubmissions(context.Context, string, string) ([]domain.Submission, error) {
	return nil, errors.New("connection refused")
}

func (f *failingSubmissions) InsertSubmission(_ context.Context, sub domain.Submission) (domain.Submission, error) {
	return domain.Submission{}, errors.New("connection refused")
}

func (f *failingSubmissions) GetSubmission(context.Context, string) (domain.Submission, error) {
	return domain.Submission{}, errors.New("connection refused")
}

func (f *failingSubmissions) ListByUser(context.Context, string, int, int) (domain.SubmissionPage, error) {
	return domain.SubmissionPage{}, errors.New("connection refused")
}

func (f *failingSubmissions) SetFeedback(context.Context, string, string) error {
	return errors.New("connection refused")
}

func newTestService(maxAttempts int) (*app.SubmissionService, *memory.SubmissionStore, *memory.ScoreStore) {
	submissions := memory.NewSubmissionStore()
	scores := memory.NewScoreStore()
	return app.NewSubmissionService(submissions, scores, nil, maxAttempts), submissions, scores
}
