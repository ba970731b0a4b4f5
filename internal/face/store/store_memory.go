package store

import (
	"context"
	"sync"
	"time"

	"trustface/pkg/domain"
)

// InMemoryTemplateStore keeps templates in a mutex-guarded map. The write
// lock makes enroll-as-replace atomic with respect to concurrent Find/All.
type InMemoryTemplateStore struct {
	mu        sync.RWMutex
	templates map[domain.UserID]Template
}

func NewInMemoryTemplateStore() *InMemoryTemplateStore {
	return &InMemoryTemplateStore{templates: make(map[domain.UserID]Template)}
}

func (s *InMemoryTemplateStore) Enroll(_ context.Context, tpl Template) error {
	if err := tpl.Descriptor.Validate(); err != nil {
		return err
	}
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = time.Now()
	}
	// Own a private copy so the caller's slice cannot mutate the template.
	tpl.Descriptor = tpl.Descriptor.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[tpl.UserID] = tpl
	return nil
}

func (s *InMemoryTemplateStore) Find(_ context.Context, userID domain.UserID) (Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if tpl, ok := s.templates[userID]; ok {
		// Hand out a copy; the stored descriptor is never aliased.
		tpl.Descriptor = tpl.Descriptor.Clone()
		return tpl, nil
	}
	return Template{}, ErrNotFound
}

func (s *InMemoryTemplateStore) All(_ context.Context) ([]Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Template, 0, len(s.templates))
	for _, tpl := range s.templates {
		tpl.Descriptor = tpl.Descriptor.Clone()
		out = append(out, tpl)
	}
	return out, nil
}

func (s *InMemoryTemplateStore) Clear(_ context.Context, userID domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[userID]; !ok {
		return ErrNotFound
	}
	delete(s.templates, userID)
	return nil
}
