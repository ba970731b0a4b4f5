package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/google/uuid"

	"trustface/internal/face"
	"trustface/pkg/domain"
)

// PostgresTemplateStore persists face templates in PostgreSQL. Descriptors
// are stored as their little-endian float64 byte encoding. The upsert makes
// re-enrollment a single atomic statement.
type PostgresTemplateStore struct {
	db *sql.DB
}

func NewPostgresTemplateStore(db *sql.DB) *PostgresTemplateStore {
	return &PostgresTemplateStore{db: db}
}

// Schema is applied by deployment tooling; kept here so the integration tests
// and a fresh database agree on the shape.
const templateSchema = `
CREATE TABLE IF NOT EXISTS face_templates (
	user_id    UUID PRIMARY KEY,
	descriptor BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// EnsureSchema creates the backing table when it does not exist yet.
func (s *PostgresTemplateStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, templateSchema); err != nil {
		return fmt.Errorf("ensure face_templates schema: %w", err)
	}
	return nil
}

func (s *PostgresTemplateStore) Enroll(ctx context.Context, tpl Template) error {
	if err := tpl.Descriptor.Validate(); err != nil {
		return err
	}
	query := `
		INSERT INTO face_templates (user_id, descriptor, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET
			descriptor = EXCLUDED.descriptor,
			created_at = now()
	`
	if _, err := s.db.ExecContext(ctx, query, uuid.UUID(tpl.UserID), tpl.Descriptor.Bytes()); err != nil {
		return fmt.Errorf("enroll template: %w", err)
	}
	return nil
}

func (s *PostgresTemplateStore) Find(ctx context.Context, userID domain.UserID) (Template, error) {
	query := `SELECT user_id, descriptor, created_at FROM face_templates WHERE user_id = $1`
	tpl, err := scanTemplate(s.db.QueryRowContext(ctx, query, uuid.UUID(userID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Template{}, ErrNotFound
		}
		return Template{}, fmt.Errorf("find template: %w", err)
	}
	return tpl, nil
}

func (s *PostgresTemplateStore) All(ctx context.Context) ([]Template, error) {
	query := `SELECT user_id, descriptor, created_at FROM face_templates`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}
	return out, nil
}

func (s *PostgresTemplateStore) Clear(ctx context.Context, userID domain.UserID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM face_templates WHERE user_id = $1`, uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("clear template: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("clear template: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (Template, error) {
	var (
		id        uuid.UUID
		raw       []byte
		createdAt sql.NullTime
	)
	if err := row.Scan(&id, &raw, &createdAt); err != nil {
		return Template{}, err
	}
	descriptor, err := face.DescriptorFromBytes(raw)
	if err != nil {
		return Template{}, err
	}
	return Template{
		UserID:     domain.UserID(id),
		Descriptor: descriptor,
		CreatedAt:  createdAt.Time,
	}, nil
}
