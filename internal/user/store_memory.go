package user

import (
	"context"
	"strings"
	"sync"

	"trustface/pkg/domain"
)

// InMemoryStore keeps accounts in mutex-guarded maps with a username index.
type InMemoryStore struct {
	mu     sync.RWMutex
	users  map[domain.UserID]User
	byName map[string]domain.UserID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:  make(map[domain.UserID]User),
		byName: make(map[string]domain.UserID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(u.Username)
	if _, taken := s.byName[key]; taken {
		return ErrUsernameTaken
	}
	s.users[u.ID] = u
	s.byName[key] = u.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.UserID) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return User{}, ErrNotFound
}

func (s *InMemoryStore) FindByUsername(_ context.Context, username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byName[strings.ToLower(username)]; ok {
		return s.users[id], nil
	}
	return User{}, ErrNotFound
}

func (s *InMemoryStore) SetFaceEnrolled(_ context.Context, id domain.UserID, enrolled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.FaceEnrolled = enrolled
	s.users[id] = u
	return nil
}
