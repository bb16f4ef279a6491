package app

import (
	"sync"

	"lingua-quiz-service/internal/domain"
)

// ProgressHub fans accepted evaluation results out to live subscribers,
// keyed by user so each learner only sees their own updates.
type ProgressHub struct {
	mu          sync.Mutex
	subscribers map[string]map[chan domain.ProgressUpdate]struct{}
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{
		subscribers: make(map[string]map[chan domain.ProgressUpdate]struct{}),
	}
}

// Subscribe returns a channel that receives progress updates for userID.
// The caller must invoke the returned cancel function to avoid leaks.
func (h *ProgressHub) Subscribe(userID string) (<-chan domain.ProgressUpdate, func()) {
	ch := make(chan domain.ProgressUpdate, 8)

	h.mu.Lock()
	if h.subscribers[userID] == nil {
		h.subscribers[userID] = make(map[chan domain.ProgressUpdate]struct{})
	}
	h.subscribers[userID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if subs, ok := h.subscribers[userID]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(h.subscribers, userID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers the update to every subscriber of the user. Slow readers
// have their oldest pending update dropped rather than blocking the caller.
func (h *ProgressHub) Publish(update domain.ProgressUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[update.UserID] {
		select {
		case ch <- update:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- update
		}
	}
}
