// Package user is the identity directory: account registration, password
// authentication, and the enrollment flag the face pipeline flips.
package user

import (
	"time"

	"trustface/pkg/domain"
	dErrors "trustface/pkg/domain-errors"
)

// Role controls what an account may do. Students sit exams; proctors review
// audit trails; admins manage accounts.
type Role string

const (
	RoleStudent Role = "student"
	RoleProctor Role = "proctor"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleProctor, RoleAdmin:
		return true
	}
	return false
}

var (
	ErrNotFound      = dErrors.New(dErrors.CodeNotFound, "user not found")
	ErrUsernameTaken = dErrors.New(dErrors.CodeConflict, "username already registered")

	// ErrInvalidCredentials covers both unknown-username and wrong-password
	// so login responses do not leak which accounts exist.
	ErrInvalidCredentials = dErrors.New(dErrors.CodeUnauthorized, "invalid username or password")
)

// User is one account. HashedPassword is a bcrypt digest and never leaves
// the package.
type User struct {
	ID             domain.UserID
	Username       string
	HashedPassword []byte
	FullName       string
	Role           Role
	FaceEnrolled   bool
	CreatedAt      time.Time
}
