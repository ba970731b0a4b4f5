// Package service orchestrates the face pipeline: descriptor extraction,
// template enrollment, and 1:N identification for face login.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"trustface/internal/audit"
	"trustface/internal/extract"
	"trustface/internal/face/match"
	facestore "trustface/internal/face/store"
	"trustface/internal/platform/metrics"
	"trustface/internal/user"
	"trustface/pkg/domain"
	dErrors "trustface/pkg/domain-errors"
)

// ErrFaceNotRecognized is the single failure answer for face login. It
// deliberately does not distinguish "no match" from "ambiguous match".
var ErrFaceNotRecognized = dErrors.New(dErrors.CodeUnauthorized, "face not recognized")

// Status reports whether an identity has a live template.
type Status struct {
	Enrolled   bool
	EnrolledAt time.Time
}

// Service wires the extractor, template store, and matcher together.
type Service struct {
	extractor extract.Extractor
	templates facestore.TemplateStore
	users     *user.Service
	audit     *audit.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
	threshold float64
}

func NewService(extractor extract.Extractor, templates facestore.TemplateStore, users *user.Service, auditPub *audit.Publisher, m *metrics.Metrics, logger *slog.Logger, threshold float64) *Service {
	if threshold <= 0 {
		threshold = match.DefaultThreshold
	}
	return &Service{
		extractor: extractor,
		templates: templates,
		users:     users,
		audit:     auditPub,
		metrics:   m,
		logger:    logger,
		tracer:    otel.Tracer("trustface/face"),
		threshold: threshold,
	}
}

// Enroll extracts a descriptor from the image and stores it as the user's
// template, replacing any prior one. The account's enrollment flag follows.
func (s *Service) Enroll(ctx context.Context, userID domain.UserID, image []byte) (facestore.Template, error) {
	descriptor, err := s.extractor.Extract(ctx, image)
	if err != nil {
		return facestore.Template{}, err
	}

	template := facestore.Template{UserID: userID, Descriptor: descriptor, CreatedAt: time.Now()}
	if err := s.templates.Enroll(ctx, template); err != nil {
		return facestore.Template{}, err
	}
	if err := s.users.SetFaceEnrolled(ctx, userID, true); err != nil {
		s.logger.ErrorContext(ctx, "enrollment flag update failed", "user_id", userID.String(), "error", err)
	}

	s.emit(ctx, audit.Event{UserID: userID, Action: audit.ActionFaceEnrolled})
	s.logger.InfoContext(ctx, "face template enrolled", "user_id", userID.String())
	return template, nil
}

// Clear removes the user's template. Further session starts are refused
// until a new enrollment.
func (s *Service) Clear(ctx context.Context, userID domain.UserID) error {
	if err := s.templates.Clear(ctx, userID); err != nil {
		return err
	}
	if err := s.users.SetFaceEnrolled(ctx, userID, false); err != nil {
		s.logger.ErrorContext(ctx, "enrollment flag update failed", "user_id", userID.String(), "error", err)
	}

	s.emit(ctx, audit.Event{UserID: userID, Action: audit.ActionFaceCleared})
	s.logger.InfoContext(ctx, "face template cleared", "user_id", userID.String())
	return nil
}

func (s *Service) Status(ctx context.Context, userID domain.UserID) (Status, error) {
	template, err := s.templates.Find(ctx, userID)
	if err != nil {
		if errors.Is(err, facestore.ErrNotFound) {
			return Status{}, nil
		}
		return Status{}, err
	}
	return Status{Enrolled: true, EnrolledAt: template.CreatedAt}, nil
}

// Identify runs face login: extract a probe from the image and search every
// enrolled template. Anything short of a unique sub-threshold match fails
// closed with ErrFaceNotRecognized.
func (s *Service) Identify(ctx context.Context, image []byte) (user.User, error) {
	ctx, span := s.tracer.Start(ctx, "face.Identify")
	defer span.End()

	probe, err := s.extractor.Extract(ctx, image)
	if err != nil {
		return user.User{}, err
	}

	templates, err := s.templates.All(ctx)
	if err != nil {
		return user.User{}, err
	}
	candidates := make([]match.Candidate, 0, len(templates))
	for _, t := range templates {
		candidates = append(candidates, match.Candidate{UserID: t.UserID, Descriptor: t.Descriptor})
	}
	span.SetAttributes(attribute.Int("gallery.size", len(candidates)))

	started := time.Now()
	identification, err := match.Decide1toN(ctx, probe, candidates, s.threshold)
	if err != nil {
		if errors.Is(err, match.ErrEmptyGallery) {
			s.metrics.RecordMatch("1toN", false, time.Since(started).Seconds())
			return user.User{}, ErrFaceNotRecognized
		}
		return user.User{}, err
	}
	s.metrics.RecordMatch("1toN", identification != nil, time.Since(started).Seconds())

	if identification == nil {
		s.logger.InfoContext(ctx, "face login rejected")
		return user.User{}, ErrFaceNotRecognized
	}

	matched, err := s.users.Get(ctx, identification.UserID)
	if err != nil {
		return user.User{}, err
	}

	s.emit(ctx, audit.Event{
		UserID:   matched.ID,
		Action:   audit.ActionFaceLogin,
		Decision: audit.DecisionAccepted,
	})
	s.logger.InfoContext(ctx, "face login accepted",
		"user_id", matched.ID.String(),
		"distance", identification.Distance,
	)
	return matched, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
