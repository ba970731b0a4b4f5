//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"trustface/internal/face"
	"trustface/internal/face/store"
	"trustface/pkg/domain"
	"trustface/pkg/testutil/containers"
)

type PostgresTemplateStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresTemplateStore
}

func TestPostgresTemplateStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresTemplateStoreSuite))
}

func (s *PostgresTemplateStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgresTemplateStore(s.postgres.DB)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresTemplateStoreSuite) TearDownSuite() {
	s.postgres.Terminate(context.Background())
}

func (s *PostgresTemplateStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "face_templates"))
}

func pgTestDescriptor(first float64) face.Descriptor {
	d := make(face.Descriptor, face.DescriptorSize)
	d[0] = first
	return d
}

func (s *PostgresTemplateStoreSuite) TestEnrollFindClear() {
	ctx := context.Background()
	userID := domain.NewUserID()

	s.Require().NoError(s.store.Enroll(ctx, store.Template{UserID: userID, Descriptor: pgTestDescriptor(0.3)}))

	tpl, err := s.store.Find(ctx, userID)
	s.Require().NoError(err)
	s.Equal(userID, tpl.UserID)
	s.Equal(0.3, tpl.Descriptor[0])

	s.Require().NoError(s.store.Clear(ctx, userID))
	_, err = s.store.Find(ctx, userID)
	s.Require().ErrorIs(err, store.ErrNotFound)
	s.Require().ErrorIs(s.store.Clear(ctx, userID), store.ErrNotFound)
}

func (s *PostgresTemplateStoreSuite) TestReEnrollReplaces() {
	ctx := context.Background()
	userID := domain.NewUserID()

	s.Require().NoError(s.store.Enroll(ctx, store.Template{UserID: userID, Descriptor: pgTestDescriptor(0.1)}))
	s.Require().NoError(s.store.Enroll(ctx, store.Template{UserID: userID, Descriptor: pgTestDescriptor(0.9)}))

	tpl, err := s.store.Find(ctx, userID)
	s.Require().NoError(err)
	s.Equal(0.9, tpl.Descriptor[0])

	all, err := s.store.All(ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

// Concurrent upserts on one identity must leave exactly one intact template.
func (s *PostgresTemplateStoreSuite) TestConcurrentEnroll() {
	ctx := context.Background()
	userID := domain.NewUserID()
	const goroutines = 25

	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)
		go func(v float64) {
			defer wg.Done()
			_ = s.store.Enroll(ctx, store.Template{UserID: userID, Descriptor: pgTestDescriptor(v)})
		}(float64(i))
	}
	wg.Wait()

	all, err := s.store.All(ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
	s.Require().NoError(all[0].Descriptor.Validate())
}
