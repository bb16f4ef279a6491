package memory

import (
	"context"
	"sync"
)

// ScoreStore is an in-memory implementation of app.ScoreRepository.
type ScoreStore struct {
	mu     sync.RWMutex
	scores map[string]int
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{scores: make(map[string]int)}
}

func (s *ScoreStore) IncrementScore(_ context.Context, userID string, delta int) error {
	if delta <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[userID] += delta
	return nil
}

func (s *ScoreStore) GetScore(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scores[userID], nil
}
