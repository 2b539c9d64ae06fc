package bot

import "sync"

// sessions keeps one pending value per Telegram user.
type sessions[T any] struct {
	mu     sync.Mutex
	values map[int64]T
}

func newSessions[T any]() *sessions[T] {
	return &sessions[T]{values: make(map[int64]T)}
}

func (s *sessions[T]) get(userID int64) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[userID]
	return v, ok
}

func (s *sessions[T]) put(userID int64, v T) {
	s.mu.Lock()
	s.values[userID] = v
	s.mu.Unlock()
}

func (s *sessions[T]) drop(userID int64) {
	s.mu.Lock()
	delete(s.values, userID)
	s.mu.Unlock()
}
