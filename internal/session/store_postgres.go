package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/google/uuid"

	"trustface/pkg/domain"
)

// PostgresStore persists exam sessions in PostgreSQL. The verification event
// list rides along as JSONB; the service serializes per-session writes, so a
// plain upsert is sufficient.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const sessionSchema = `
CREATE TABLE IF NOT EXISTS exam_sessions (
	id                 UUID PRIMARY KEY,
	user_id            UUID NOT NULL,
	exam_id            TEXT NOT NULL,
	device             TEXT NOT NULL DEFAULT '',
	started_at         TIMESTAMPTZ NOT NULL,
	ended_at           TIMESTAMPTZ,
	active             BOOLEAN NOT NULL,
	verified           BOOLEAN NOT NULL,
	verification_count INTEGER NOT NULL,
	last_verified_at   TIMESTAMPTZ,
	verifications      JSONB NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS exam_sessions_user_id_idx ON exam_sessions (user_id)`

// EnsureSchema creates the backing table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sessionSchema); err != nil {
		return fmt.Errorf("ensure exam_sessions schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, session Session) error {
	events, err := json.Marshal(session.Verifications)
	if err != nil {
		return fmt.Errorf("marshal verification events: %w", err)
	}
	query := `
		INSERT INTO exam_sessions
			(id, user_id, exam_id, device, started_at, ended_at, active, verified, verification_count, last_verified_at, verifications)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			ended_at = EXCLUDED.ended_at,
			active = EXCLUDED.active,
			verified = EXCLUDED.verified,
			verification_count = EXCLUDED.verification_count,
			last_verified_at = EXCLUDED.last_verified_at,
			verifications = EXCLUDED.verifications
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(session.ID),
		uuid.UUID(session.UserID),
		session.ExamID.String(),
		session.Device,
		session.StartedAt,
		session.EndedAt,
		session.Active,
		session.Verified,
		session.VerificationCount,
		session.LastVerifiedAt,
		events,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.SessionID) (Session, error) {
	query := selectSessions + ` WHERE id = $1`
	session, err := scanSession(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, fmt.Errorf("find session: %w", err)
	}
	return session, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID domain.UserID) ([]Session, error) {
	query := selectSessions + ` WHERE user_id = $1 ORDER BY started_at`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

const selectSessions = `
	SELECT id, user_id, exam_id, device, started_at, ended_at, active, verified, verification_count, last_verified_at, verifications
	FROM exam_sessions`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var (
		id     uuid.UUID
		userID uuid.UUID
		examID string
		events []byte
		ended  sql.NullTime
		last   sql.NullTime
		out    Session
	)
	err := row.Scan(&id, &userID, &examID, &out.Device, &out.StartedAt, &ended, &out.Active, &out.Verified, &out.VerificationCount, &last, &events)
	if err != nil {
		return Session{}, err
	}
	out.ID = domain.SessionID(id)
	out.UserID = domain.UserID(userID)
	out.ExamID = domain.ExamID(examID)
	if ended.Valid {
		out.EndedAt = &ended.Time
	}
	if last.Valid {
		out.LastVerifiedAt = &last.Time
	}
	if err := json.Unmarshal(events, &out.Verifications); err != nil {
		return Session{}, fmt.Errorf("unmarshal verification events: %w", err)
	}
	return out, nil
}
