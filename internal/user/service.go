package user

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"trustface/pkg/domain"
	dErrors "trustface/pkg/domain-errors"
)

const minPasswordLength = 8

// Service owns account lifecycle and password checks.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Register creates an account with a bcrypt-hashed password. Usernames are
// case-insensitive and unique.
func (s *Service) Register(ctx context.Context, username, password, fullName string, role Role) (User, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" {
		return User{}, dErrors.New(dErrors.CodeInvalidInput, "username is required")
	}
	if len(password) < minPasswordLength {
		return User{}, dErrors.New(dErrors.CodeInvalidInput, "password must be at least 8 characters")
	}
	if role == "" {
		role = RoleStudent
	}
	if !role.Valid() {
		return User{}, dErrors.New(dErrors.CodeInvalidInput, "unknown role")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, dErrors.Wrap(dErrors.CodeInternal, "hash password", err)
	}

	u := User{
		ID:             domain.NewUserID(),
		Username:       username,
		HashedPassword: hash,
		FullName:       fullName,
		Role:           role,
		CreatedAt:      time.Now(),
	}
	if err := s.store.Create(ctx, u); err != nil {
		return User{}, err
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", u.ID.String(), "role", string(u.Role))
	return u, nil
}

// Authenticate checks a username/password pair. Unknown usernames and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	u, err := s.store.FindByUsername(ctx, strings.TrimSpace(strings.ToLower(username)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Burn a comparison anyway so timing does not reveal account existence.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword(u.HashedPassword, []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// dummyHash is a fixed bcrypt digest of an unguessable value, used to
// equalize Authenticate timing for unknown usernames.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

func (s *Service) Get(ctx context.Context, id domain.UserID) (User, error) {
	return s.store.FindByID(ctx, id)
}

// SetFaceEnrolled mirrors template store state onto the account record.
func (s *Service) SetFaceEnrolled(ctx context.Context, id domain.UserID, enrolled bool) error {
	return s.store.SetFaceEnrolled(ctx, id, enrolled)
}
