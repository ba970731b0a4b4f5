// Package session owns the exam session state machine: a session is created
// Active for exactly one identity, verified zero or more times, and ended
// exactly once.
package session

import (
	"time"

	"trustface/pkg/domain"
	dErrors "trustface/pkg/domain-errors"
)

var (
	// ErrNoEnrolledFace gates session creation: an exam session makes no
	// sense for an identity that cannot be verified later.
	ErrNoEnrolledFace = dErrors.New(dErrors.CodeInvalidInput, "no enrolled face template; enroll a face before starting an exam")

	// ErrNotActive rejects verify/end on a session that has already ended.
	ErrNotActive = dErrors.New(dErrors.CodeConflict, "exam session is not active")

	// ErrNotAuthorized rejects verify/end by anyone but the session owner.
	ErrNotAuthorized = dErrors.New(dErrors.CodeForbidden, "session belongs to a different user")
)

// VerificationEvent records one mid-exam check. The list is append-only so a
// later product decision about revoking a prior success has the raw data.
type VerificationEvent struct {
	At       time.Time `json:"at"`
	Accepted bool      `json:"accepted"`
	Distance float64   `json:"distance"`
}

// Session is an exam session. Verified is a monotonic OR over all
// verification attempts: once a check succeeds it never reverts, even if a
// later attempt fails.
type Session struct {
	ID                domain.SessionID
	UserID            domain.UserID
	ExamID            domain.ExamID
	Device            string
	StartedAt         time.Time
	EndedAt           *time.Time
	Active            bool
	Verified          bool
	VerificationCount int
	LastVerifiedAt    *time.Time
	Verifications     []VerificationEvent
}
