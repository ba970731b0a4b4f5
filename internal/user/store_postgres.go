package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"trustface/pkg/domain"
)

// PostgresStore persists accounts in PostgreSQL. Username uniqueness is
// enforced by the database, not by a read-then-write in application code.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userSchema = `
CREATE TABLE IF NOT EXISTS users (
	id              UUID PRIMARY KEY,
	username        TEXT NOT NULL UNIQUE,
	hashed_password BYTEA NOT NULL,
	full_name       TEXT NOT NULL DEFAULT '',
	role            TEXT NOT NULL,
	face_enrolled   BOOLEAN NOT NULL DEFAULT FALSE,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, userSchema); err != nil {
		return fmt.Errorf("ensure users schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, u User) error {
	query := `
		INSERT INTO users (id, username, hashed_password, full_name, role, face_enrolled, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (username) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(u.ID),
		strings.ToLower(u.Username),
		u.HashedPassword,
		u.FullName,
		string(u.Role),
		u.FaceEnrolled,
		u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if affected == 0 {
		return ErrUsernameTaken
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.UserID) (User, error) {
	return s.findWhere(ctx, `id = $1`, uuid.UUID(id))
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (User, error) {
	return s.findWhere(ctx, `username = $1`, strings.ToLower(username))
}

func (s *PostgresStore) findWhere(ctx context.Context, clause string, arg any) (User, error) {
	query := `
		SELECT id, username, hashed_password, full_name, role, face_enrolled, created_at
		FROM users WHERE ` + clause
	var (
		id   uuid.UUID
		role string
		out  User
	)
	err := s.db.QueryRowContext(ctx, query, arg).
		Scan(&id, &out.Username, &out.HashedPassword, &out.FullName, &role, &out.FaceEnrolled, &out.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("find user: %w", err)
	}
	out.ID = domain.UserID(id)
	out.Role = Role(role)
	return out, nil
}

func (s *PostgresStore) SetFaceEnrolled(ctx context.Context, id domain.UserID, enrolled bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET face_enrolled = $2 WHERE id = $1`, uuid.UUID(id), enrolled)
	if err != nil {
		return fmt.Errorf("set face_enrolled: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set face_enrolled: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
