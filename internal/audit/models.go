// Package audit captures security-relevant events: session lifecycle,
// verification outcomes, and authorization mismatches. Events are
// append-only and transport-agnostic so stores and sinks can fan out.
package audit

import (
	"time"

	"trustface/pkg/domain"
)

// Actions emitted by the domain services.
const (
	ActionFaceEnrolled    = "face.enrolled"
	ActionFaceCleared     = "face.cleared"
	ActionFaceLogin       = "auth.face_login"
	ActionSessionStarted  = "session.started"
	ActionSessionVerified = "session.verified"
	ActionSessionEnded    = "session.ended"
	ActionNotAuthorized   = "security.not_authorized"
)

// Decisions attached to events that represent an accept/reject outcome.
const (
	DecisionAccepted = "accepted"
	DecisionRejected = "rejected"
)

// Event is emitted from domain logic to capture one key action.
type Event struct {
	Timestamp time.Time        `json:"timestamp"`
	UserID    domain.UserID    `json:"user_id"`
	SessionID domain.SessionID `json:"session_id,omitempty"`
	Action    string           `json:"action"`
	Decision  string           `json:"decision,omitempty"`
	Reason    string           `json:"reason,omitempty"`
}
