// Package store owns the enrolled face templates: at most one live template
// per identity, replaced atomically on re-enrollment.
package store

import (
	"context"
	"time"

	"trustface/internal/face"
	"trustface/pkg/domain"
	dErrors "trustface/pkg/domain-errors"
)

// ErrNotFound keeps storage-specific 404s consistent across in-memory and
// postgres implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "face template not found")

// Template is the enrolled reference descriptor for one identity.
type Template struct {
	UserID     domain.UserID
	Descriptor face.Descriptor
	CreatedAt  time.Time
}

// TemplateStore is interface-driven so the matching and session layers stay
// testable and persistence can be swapped without rewiring business code.
type TemplateStore interface {
	// Enroll writes the identity's template, replacing any previous one in a
	// single atomic step; a concurrent reader never observes a half-written
	// descriptor.
	Enroll(ctx context.Context, tpl Template) error
	// Find returns the live template for an identity, or ErrNotFound.
	Find(ctx context.Context, userID domain.UserID) (Template, error)
	// All returns a point-in-time snapshot of every live template, used for
	// 1:N identification. Each call yields a fresh, restartable snapshot.
	All(ctx context.Context) ([]Template, error)
	// Clear removes the identity's template; ErrNotFound when none exists.
	Clear(ctx context.Context, userID domain.UserID) error
}
