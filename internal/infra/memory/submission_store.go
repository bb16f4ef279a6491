package memory

import (
	"context"
	"strconv"
	"sync"

	"lingua-quiz-service/internal/domain"
)

// SubmissionStore is an in-memory implementation of app.SubmissionRepository,
// used in tests and when no Postgres URL is configured.
type SubmissionStore struct {
	mu     sync.RWMutex
	nextID int
	byID   map[string]*domain.Submission
	byUser map[string][]*domain.Submission // insertion order
}

func NewSubmissionStore() *SubmissionStore {
	return &SubmissionStore{
		nextID: 1,
		byID:   make(map[string]*domain.Submission),
		byUser: make(map[string][]*domain.Submission),
	}
}

func (s *SubmissionStore) FindSubmissions(_ context.Context, userID, quizID string) ([]domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Submission
	for _, sub := range s.byUser[userID] {
		if sub.QuizID == quizID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (s *SubmissionStore) InsertSubmission(_ context.Context, sub domain.Submission) (domain.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub.ID = "sub-" + strconv.Itoa(s.nextID)
	s.nextID++
	stored := sub
	s.byID[stored.ID] = &stored
	s.byUser[stored.UserID] = append(s.byUser[stored.UserID], &stored)
	return sub, nil
}

func (s *SubmissionStore) GetSubmission(_ context.Context, id string) (domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.byID[id]
	if !ok {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	return *sub, nil
}

func (s *SubmissionStore) ListByUser(_ context.Context, userID string, page, limit int) (domain.SubmissionPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.byUser[userID]
	total := len(all)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	out := make([]domain.Submission, 0, end-start)
	for _, sub := range all[start:end] {
		out = append(out, *sub)
	}
	return domain.SubmissionPage{Submissions: out, Total: total, Page: page, Limit: limit}, nil
}

func (s *SubmissionStore) SetFeedback(_ context.Context, id, feedback string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.byID[id]
	if !ok {
		return domain.ErrSubmissionNotFound
	}
	sub.Feedback = feedback
	return nil
}
