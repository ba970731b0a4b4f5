// Package domain holds the typed identifiers shared across services.
// IDs are distinct types over uuid.UUID so a session ID can never be passed
// where a user ID is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "trustface/pkg/domain-errors"
)

// UserID identifies a person in the user directory.
type UserID uuid.UUID

// SessionID identifies an exam session.
type SessionID uuid.UUID

// ExamID is the external exam reference a session is taken for. It is opaque
// to this service beyond being non-empty.
type ExamID string

func NewUserID() UserID       { return UserID(uuid.New()) }
func NewSessionID() SessionID { return SessionID(uuid.New()) }

func (id UserID) String() string    { return uuid.UUID(id).String() }
func (id SessionID) String() string { return uuid.UUID(id).String() }
func (id ExamID) String() string    { return string(id) }

func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ExamID) IsNil() bool    { return id == "" }

// Text marshalling keeps the canonical UUID form in JSON payloads and
// audit events.
func (id UserID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id SessionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(b []byte) error {
	parsed, err := ParseUserID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *SessionID) UnmarshalText(b []byte) error {
	parsed, err := ParseSessionID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseUserID validates and returns a UserID. Empty and nil UUIDs are
// rejected so a zero value can never slip through a trust boundary.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

// ParseSessionID validates and returns a SessionID.
func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s, "session id")
	return SessionID(u), err
}

// ParseExamID validates an exam reference.
func ParseExamID(s string) (ExamID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "exam id must not be empty")
	}
	if len(s) > 255 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "exam id too long")
	}
	return ExamID(s), nil
}

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" must not be nil")
	}
	return u, nil
}
