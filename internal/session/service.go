package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"trustface/internal/audit"
	"trustface/internal/face"
	"trustface/internal/face/match"
	facestore "trustface/internal/face/store"
	"trustface/internal/platform/metrics"
	"trustface/pkg/domain"
)

// VerifyResult reports one mid-exam verification attempt. A rejected match
// is a normal outcome, not an error: Accepted is false and the session's
// Verified flag keeps whatever value it had.
type VerifyResult struct {
	Accepted bool
	Distance float64
	Session  Session
}

// Service is the session registry. It enforces the Active→Ended state
// machine, owner-scoped authorization, and at-most-one in-flight transition
// per session.
type Service struct {
	sessions  Store
	templates facestore.TemplateStore
	audit     *audit.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
	threshold float64

	locks keyedLocks
}

func NewService(sessions Store, templates facestore.TemplateStore, auditPub *audit.Publisher, m *metrics.Metrics, logger *slog.Logger, threshold float64) *Service {
	if threshold <= 0 {
		threshold = match.DefaultThreshold
	}
	return &Service{
		sessions:  sessions,
		templates: templates,
		audit:     auditPub,
		metrics:   m,
		logger:    logger,
		tracer:    otel.Tracer("trustface/session"),
		threshold: threshold,
		locks:     newKeyedLocks(),
	}
}

// Start creates an Active session for an identity that has a live face
// template. The raw User-Agent is condensed into a device label for proctor
// review.
func (s *Service) Start(ctx context.Context, userID domain.UserID, examID domain.ExamID, rawUserAgent string) (Session, error) {
	if _, err := s.templates.Find(ctx, userID); err != nil {
		if errors.Is(err, facestore.ErrNotFound) {
			return Session{}, ErrNoEnrolledFace
		}
		return Session{}, err
	}

	session := Session{
		ID:        domain.NewSessionID(),
		UserID:    userID,
		ExamID:    examID,
		Device:    ParseUserAgent(rawUserAgent),
		StartedAt: time.Now(),
		Active:    true,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return Session{}, err
	}

	s.metrics.IncSessionsStarted()
	s.emit(ctx, audit.Event{UserID: userID, SessionID: session.ID, Action: audit.ActionSessionStarted})
	s.logger.InfoContext(ctx, "exam session started",
		"session_id", session.ID.String(),
		"exam_id", examID.String(),
	)
	return session, nil
}

// Verify runs a 1:1 check of the probe against the session owner's enrolled
// template and records the attempt on the session. The whole state change is
// one Save: an attempt aborted before it leaves the session untouched.
func (s *Service) Verify(ctx context.Context, sessionID domain.SessionID, requester domain.UserID, probe face.Descriptor) (VerifyResult, error) {
	ctx, span := s.tracer.Start(ctx, "session.Verify",
		trace.WithAttributes(attribute.String("session.id", sessionID.String())))
	defer span.End()

	unlock := s.locks.lock(sessionID)
	defer unlock()

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return VerifyResult{}, err
	}
	if err := s.authorize(ctx, session, requester, audit.ActionSessionVerified); err != nil {
		return VerifyResult{}, err
	}
	if !session.Active {
		return VerifyResult{}, ErrNotActive
	}

	template, err := s.templates.Find(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, facestore.ErrNotFound) {
			return VerifyResult{}, ErrNoEnrolledFace
		}
		return VerifyResult{}, err
	}

	started := time.Now()
	decision, err := match.Decide1to1(probe, template.Descriptor, s.threshold)
	if err != nil {
		return VerifyResult{}, err
	}
	s.metrics.RecordMatch("1to1", decision.Accepted, time.Since(started).Seconds())

	if err := ctx.Err(); err != nil {
		// Aborted before the atomic update: no partial increment.
		return VerifyResult{}, err
	}

	now := time.Now()
	session.VerificationCount++
	session.LastVerifiedAt = &now
	session.Verified = session.Verified || decision.Accepted
	session.Verifications = append(session.Verifications, VerificationEvent{
		At:       now,
		Accepted: decision.Accepted,
		Distance: decision.Distance,
	})
	if err := s.sessions.Save(ctx, session); err != nil {
		return VerifyResult{}, err
	}

	s.metrics.RecordVerification(decision.Accepted)
	outcome := audit.DecisionRejected
	if decision.Accepted {
		outcome = audit.DecisionAccepted
	}
	s.emit(ctx, audit.Event{
		UserID:    session.UserID,
		SessionID: session.ID,
		Action:    audit.ActionSessionVerified,
		Decision:  outcome,
	})
	s.logger.InfoContext(ctx, "session verification",
		"session_id", session.ID.String(),
		"accepted", decision.Accepted,
		"verification_count", session.VerificationCount,
	)
	return VerifyResult{Accepted: decision.Accepted, Distance: decision.Distance, Session: session}, nil
}

// End transitions the session to its terminal state. Ending an already-ended
// session is an error and leaves the original EndedAt intact.
func (s *Service) End(ctx context.Context, sessionID domain.SessionID, requester domain.UserID) (Session, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if err := s.authorize(ctx, session, requester, audit.ActionSessionEnded); err != nil {
		return Session{}, err
	}
	if !session.Active {
		return Session{}, ErrNotActive
	}

	now := time.Now()
	session.EndedAt = &now
	session.Active = false
	if err := s.sessions.Save(ctx, session); err != nil {
		return Session{}, err
	}

	s.metrics.IncSessionsEnded()
	s.emit(ctx, audit.Event{UserID: session.UserID, SessionID: session.ID, Action: audit.ActionSessionEnded})
	s.logger.InfoContext(ctx, "exam session ended",
		"session_id", session.ID.String(),
		"verified", session.Verified,
	)
	return session, nil
}

// List returns the requester's own sessions.
func (s *Service) List(ctx context.Context, requester domain.UserID) ([]Session, error) {
	return s.sessions.ListByUser(ctx, requester)
}

// Get returns a session to its owner.
func (s *Service) Get(ctx context.Context, sessionID domain.SessionID, requester domain.UserID) (Session, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if session.UserID != requester {
		return Session{}, ErrNotAuthorized
	}
	return session, nil
}

// authorize enforces owner scoping and records mismatches as
// security-relevant events before any state is touched.
func (s *Service) authorize(ctx context.Context, session Session, requester domain.UserID, attempted string) error {
	if session.UserID == requester {
		return nil
	}
	s.emit(ctx, audit.Event{
		UserID:    requester,
		SessionID: session.ID,
		Action:    audit.ActionNotAuthorized,
		Reason:    attempted,
	})
	s.logger.WarnContext(ctx, "session authorization mismatch",
		"session_id", session.ID.String(),
		"requester", requester.String(),
		"attempted", attempted,
	)
	return ErrNotAuthorized
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

// keyedLocks serializes state transitions per session id. Entries are
// refcounted and removed when the last holder releases, so the map does not
// grow with session history.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[domain.SessionID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedLocks() keyedLocks {
	return keyedLocks{locks: make(map[domain.SessionID]*lockEntry)}
}

func (k *keyedLocks) lock(id domain.SessionID) (unlock func()) {
	k.mu.Lock()
	entry, ok := k.locks[id]
	if !ok {
		entry = &lockEntry{}
		k.locks[id] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}
