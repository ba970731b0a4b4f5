package session

import (
	"context"
	"sync"

	"trustface/pkg/domain"
)

// InMemoryStore keeps sessions in a mutex-guarded map. It intentionally
// favors clarity over performance.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]Session
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[domain.SessionID]Session)}
}

func (s *InMemoryStore) Save(_ context.Context, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Own the event list so later service-side appends cannot alias.
	session.Verifications = append([]VerificationEvent(nil), session.Verifications...)
	s.sessions[session.ID] = session
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.SessionID) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if session, ok := s.sessions[id]; ok {
		session.Verifications = append([]VerificationEvent(nil), session.Verifications...)
		return session, nil
	}
	return Session{}, ErrNotFound
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID domain.UserID) ([]Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Session
	for _, session := range s.sessions {
		if session.UserID == userID {
			session.Verifications = append([]VerificationEvent(nil), session.Verifications...)
			out = append(out, session)
		}
	}
	return out, nil
}
