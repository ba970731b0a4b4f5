package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"trustface/internal/audit"
	"trustface/internal/extract"
	"trustface/internal/face"
	facestore "trustface/internal/face/store"
	"trustface/internal/user"
	dErrors "trustface/pkg/domain-errors"
)

// stubExtractor maps image bytes to a canned descriptor or error, so tests
// control exactly what "the camera saw".
type stubExtractor struct {
	descriptors map[string]face.Descriptor
	err         error
}

func (e stubExtractor) Extract(_ context.Context, image []byte) (face.Descriptor, error) {
	if e.err != nil {
		return nil, e.err
	}
	if d, ok := e.descriptors[string(image)]; ok {
		return d.Clone(), nil
	}
	return nil, extract.ErrNoFace
}

type ServiceSuite struct {
	suite.Suite
	ctx       context.Context
	templates *facestore.InMemoryTemplateStore
	users     *user.Service
	trail     *audit.InMemoryStore
	extractor stubExtractor
	service   *Service
	alice     user.User
	bob       user.User
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func descriptorAt(v float64) face.Descriptor {
	d := make(face.Descriptor, face.DescriptorSize)
	d[0] = v
	return d
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	logger := slog.New(slog.DiscardHandler)
	s.templates = facestore.NewInMemoryTemplateStore()
	s.users = user.NewService(user.NewInMemoryStore(), logger)
	s.trail = audit.NewInMemoryStore()
	s.extractor = stubExtractor{descriptors: map[string]face.Descriptor{
		"alice.jpg":       descriptorAt(0),
		"bob.jpg":         descriptorAt(10),
		"alice-again.jpg": descriptorAt(0.2),
		"nobody.jpg":      descriptorAt(100),
	}}
	s.service = NewService(s.extractor, s.templates, s.users, audit.NewPublisher(s.trail), nil, logger, 0.6)

	var err error
	s.alice, err = s.users.Register(s.ctx, "alice", "correct-horse", "Alice", "")
	s.Require().NoError(err)
	s.bob, err = s.users.Register(s.ctx, "bob", "battery-staple", "Bob", "")
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestEnroll() {
	s.Run("stores the extracted template and flips the account flag", func() {
		tpl, err := s.service.Enroll(s.ctx, s.alice.ID, []byte("alice.jpg"))
		s.Require().NoError(err)
		s.Equal(s.alice.ID, tpl.UserID)

		account, err := s.users.Get(s.ctx, s.alice.ID)
		s.Require().NoError(err)
		s.True(account.FaceEnrolled)

		status, err := s.service.Status(s.ctx, s.alice.ID)
		s.Require().NoError(err)
		s.True(status.Enrolled)
		s.False(status.EnrolledAt.IsZero())
	})

	s.Run("re-enrollment overwrites the template", func() {
		_, err := s.service.Enroll(s.ctx, s.alice.ID, []byte("alice-again.jpg"))
		s.Require().NoError(err)

		tpl, err := s.templates.Find(s.ctx, s.alice.ID)
		s.Require().NoError(err)
		s.Equal(0.2, tpl.Descriptor[0])
	})

	s.Run("extraction failure enrolls nothing", func() {
		_, err := s.service.Enroll(s.ctx, s.bob.ID, []byte("blurry.jpg"))
		s.Require().ErrorIs(err, extract.ErrNoFace)

		status, err := s.service.Status(s.ctx, s.bob.ID)
		s.Require().NoError(err)
		s.False(status.Enrolled)
	})
}

func (s *ServiceSuite) TestClear() {
	_, err := s.service.Enroll(s.ctx, s.alice.ID, []byte("alice.jpg"))
	s.Require().NoError(err)

	s.Require().NoError(s.service.Clear(s.ctx, s.alice.ID))

	status, err := s.service.Status(s.ctx, s.alice.ID)
	s.Require().NoError(err)
	s.False(status.Enrolled)

	account, err := s.users.Get(s.ctx, s.alice.ID)
	s.Require().NoError(err)
	s.False(account.FaceEnrolled)

	s.Require().ErrorIs(s.service.Clear(s.ctx, s.alice.ID), facestore.ErrNotFound)
}

func (s *ServiceSuite) TestIdentify() {
	s.Run("empty gallery fails closed", func() {
		_, err := s.service.Identify(s.ctx, []byte("alice.jpg"))
		s.Require().ErrorIs(err, ErrFaceNotRecognized)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	_, err := s.service.Enroll(s.ctx, s.alice.ID, []byte("alice.jpg"))
	s.Require().NoError(err)
	_, err = s.service.Enroll(s.ctx, s.bob.ID, []byte("bob.jpg"))
	s.Require().NoError(err)

	s.Run("close probe identifies the right user", func() {
		matched, err := s.service.Identify(s.ctx, []byte("alice-again.jpg"))
		s.Require().NoError(err)
		s.Equal(s.alice.ID, matched.ID)
	})

	s.Run("distant probe is rejected", func() {
		_, err := s.service.Identify(s.ctx, []byte("nobody.jpg"))
		s.Require().ErrorIs(err, ErrFaceNotRecognized)
	})

	s.Run("accepted login is audited", func() {
		_, err := s.service.Identify(s.ctx, []byte("alice.jpg"))
		s.Require().NoError(err)

		events, err := s.trail.ListByUser(s.ctx, s.alice.ID.String())
		s.Require().NoError(err)
		var logins int
		for _, e := range events {
			if e.Action == audit.ActionFaceLogin {
				logins++
				s.Equal(audit.DecisionAccepted, e.Decision)
			}
		}
		s.Positive(logins)
	})
}

// Two enrolled identities equidistant from the probe must not log anyone in.
func (s *ServiceSuite) TestIdentifyTieFailsClosed() {
	carol, err := s.users.Register(s.ctx, "carol", "correct-horse", "Carol", "")
	s.Require().NoError(err)

	left := descriptorAt(0)
	right := descriptorAt(0.4)
	s.Require().NoError(s.templates.Enroll(s.ctx, facestore.Template{UserID: s.alice.ID, Descriptor: left}))
	s.Require().NoError(s.templates.Enroll(s.ctx, facestore.Template{UserID: carol.ID, Descriptor: right}))

	s.extractor.descriptors["probe.jpg"] = descriptorAt(0.2)

	_, err = s.service.Identify(s.ctx, []byte("probe.jpg"))
	s.Require().ErrorIs(err, ErrFaceNotRecognized)
}
