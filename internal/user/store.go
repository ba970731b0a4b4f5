package user

import (
	"context"

	"trustface/pkg/domain"
)

// Store persists accounts. Create must fail with ErrUsernameTaken on a
// duplicate username rather than overwrite.
type Store interface {
	Create(ctx context.Context, u User) error
	FindByID(ctx context.Context, id domain.UserID) (User, error)
	FindByUsername(ctx context.Context, username string) (User, error)
	SetFaceEnrolled(ctx context.Context, id domain.UserID, enrolled bool) error
}
