package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"trustface/internal/face"
	"trustface/pkg/domain"
)

type InMemoryTemplateStoreSuite struct {
	suite.Suite
	store *InMemoryTemplateStore
	ctx   context.Context
}

func TestInMemoryTemplateStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryTemplateStoreSuite))
}

func (s *InMemoryTemplateStoreSuite) SetupTest() {
	s.store = NewInMemoryTemplateStore()
	s.ctx = context.Background()
}

func testDescriptor(first float64) face.Descriptor {
	d := make(face.Descriptor, face.DescriptorSize)
	d[0] = first
	return d
}

func (s *InMemoryTemplateStoreSuite) TestEnroll() {
	userID := domain.NewUserID()

	s.Run("rejects wrong dimensionality", func() {
		err := s.store.Enroll(s.ctx, Template{UserID: userID, Descriptor: face.Descriptor{1, 2}})
		s.Require().Error(err)
	})

	s.Run("stores and finds a template", func() {
		s.Require().NoError(s.store.Enroll(s.ctx, Template{UserID: userID, Descriptor: testDescriptor(0.1)}))
		tpl, err := s.store.Find(s.ctx, userID)
		s.Require().NoError(err)
		s.Equal(userID, tpl.UserID)
		s.Equal(0.1, tpl.Descriptor[0])
		s.False(tpl.CreatedAt.IsZero())
	})

	s.Run("re-enrollment replaces the prior template", func() {
		s.Require().NoError(s.store.Enroll(s.ctx, Template{UserID: userID, Descriptor: testDescriptor(0.1)}))
		s.Require().NoError(s.store.Enroll(s.ctx, Template{UserID: userID, Descriptor: testDescriptor(0.9)}))

		tpl, err := s.store.Find(s.ctx, userID)
		s.Require().NoError(err)
		s.Equal(0.9, tpl.Descriptor[0])

		all, err := s.store.All(s.ctx)
		s.Require().NoError(err)
		s.Len(all, 1, "exactly one live template per identity")
	})

	s.Run("mutating a returned descriptor does not corrupt the store", func() {
		s.Require().NoError(s.store.Enroll(s.ctx, Template{UserID: userID, Descriptor: testDescriptor(0.7)}))

		tpl, err := s.store.Find(s.ctx, userID)
		s.Require().NoError(err)
		tpl.Descriptor[0] = 99

		again, err := s.store.Find(s.ctx, userID)
		s.Require().NoError(err)
		s.Equal(0.7, again.Descriptor[0])

		all, err := s.store.All(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(all, 1)
		all[0].Descriptor[0] = 99

		again, err = s.store.Find(s.ctx, userID)
		s.Require().NoError(err)
		s.Equal(0.7, again.Descriptor[0])
	})

	s.Run("caller slice mutation does not leak into the store", func() {
		d := testDescriptor(0.5)
		s.Require().NoError(s.store.Enroll(s.ctx, Template{UserID: userID, Descriptor: d}))
		d[0] = 42
		tpl, err := s.store.Find(s.ctx, userID)
		s.Require().NoError(err)
		s.Equal(0.5, tpl.Descriptor[0])
	})
}

func (s *InMemoryTemplateStoreSuite) TestClear() {
	userID := domain.NewUserID()

	s.Run("clearing an unknown identity fails", func() {
		s.Require().ErrorIs(s.store.Clear(s.ctx, userID), ErrNotFound)
	})

	s.Run("clearing removes the template", func() {
		s.Require().NoError(s.store.Enroll(s.ctx, Template{UserID: userID, Descriptor: testDescriptor(0.1)}))
		s.Require().NoError(s.store.Clear(s.ctx, userID))
		_, err := s.store.Find(s.ctx, userID)
		s.Require().ErrorIs(err, ErrNotFound)
	})
}

func (s *InMemoryTemplateStoreSuite) TestAllIsRestartableSnapshot() {
	for range 3 {
		s.Require().NoError(s.store.Enroll(s.ctx, Template{UserID: domain.NewUserID(), Descriptor: testDescriptor(0.2)}))
	}
	first, err := s.store.All(s.ctx)
	s.Require().NoError(err)
	second, err := s.store.All(s.ctx)
	s.Require().NoError(err)
	s.Len(first, 3)
	s.Len(second, 3)
}

// Concurrent re-enrollment against one identity must never surface a
// half-written template to readers.
func (s *InMemoryTemplateStoreSuite) TestConcurrentEnrollAndRead() {
	userID := domain.NewUserID()
	s.Require().NoError(s.store.Enroll(s.ctx, Template{UserID: userID, Descriptor: testDescriptor(1)}))

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(v float64) {
			defer wg.Done()
			_ = s.store.Enroll(s.ctx, Template{UserID: userID, Descriptor: testDescriptor(v)})
		}(float64(i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			tpl, err := s.store.Find(s.ctx, userID)
			if err == nil {
				_ = tpl.Descriptor.Validate()
			}
		}()
	}
	wg.Wait()

	tpl, err := s.store.Find(s.ctx, userID)
	s.Require().NoError(err)
	s.Require().NoError(tpl.Descriptor.Validate())
}
