package session

import (
	"context"

	"trustface/pkg/domain"
	dErrors "trustface/pkg/domain-errors"
)

// ErrNotFound keeps storage-specific 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "exam session not found")

// Store persists sessions. The service serializes per-session writes, so
// implementations only need atomic single-record upserts and point lookups.
type Store interface {
	Save(ctx context.Context, session Session) error
	FindByID(ctx context.Context, id domain.SessionID) (Session, error)
	ListByUser(ctx context.Context, userID domain.UserID) ([]Session, error)
}
