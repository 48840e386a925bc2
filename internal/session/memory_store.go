package session

import (
	"context"
	"sync"

	"felini_trivia/internal/domain"
	"felini_trivia/internal/game"
)

// MemoryStore is an in-memory Store for tests and single-process runs.
type MemoryStore struct {
	mu        sync.Mutex
	games     map[string]game.State
	questions map[string]domain.QuestionSession
	claims    map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games:     make(map[string]game.State),
		questions: make(map[string]domain.QuestionSession),
		claims:    make(map[string]struct{}),
	}
}

func (s *MemoryStore) Game(_ context.Context, sid string) (*game.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.games[sid]
	if !ok {
		return nil, nil
	}
	copy := st
	return &copy, nil
}

func (s *MemoryStore) SaveGame(_ context.Context, sid string, st *game.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[sid] = *st
	return nil
}

func (s *MemoryStore) Question(_ context.Context, sid string) (*domain.QuestionSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questions[sid]
	if !ok {
		return nil, nil
	}
	copy := q
	return &copy, nil
}

func (s *MemoryStore) SaveQuestion(_ context.Context, sid string, q *domain.QuestionSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions[sid] = *q
	return nil
}

func (s *MemoryStore) ClaimAnswer(_ context.Context, sid, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sid + ":" + token
	if _, taken := s.claims[key]; taken {
		return false, nil
	}
	s.claims[key] = struct{}{}
	return true, nil
}

func (s *MemoryStore) Clear(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, sid)
	delete(s.questions, sid)
	return nil
}
