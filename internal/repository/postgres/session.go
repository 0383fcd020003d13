package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/xid"

	"github.com/sakif/mpg-calculator/internal/apperror"
	"github.com/sakif/mpg-calculator/internal/model"
	"github.com/sakif/mpg-calculator/internal/repository"
)

var _ repository.SessionRepository = (*Store)(nil)

// Store implements repository.SessionRepository on a pgx pool.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New connects to PostgreSQL, applies pending migrations and returns a Store.
// The Store owns the pool; call Close when done.
func New(ctx context.Context, cfg *PoolConfig, logger *slog.Logger) (*Store, error) {
	pool, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	if err := runMigrations(ctx, pool, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}

	return &Store{pool: pool, logger: logger}, nil
}

// Close releases every pooled connection.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: ping: %w", mapPostgresError(err, ""))
	}
	return nil
}

// Create inserts a new session, assigning its id and timestamps.
func (s *Store) Create(ctx context.Context, session *model.Session) error {
	session.ID = xid.New().String()

	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	meta, err := session.Meta.Encode()
	if err != nil {
		return fmt.Errorf("postgres: creating session: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO sessions (id, user_id, meta, created_at, updated_at)
		 VALUES ($1, $2, $3::jsonb, $4, $5)`,
		session.ID,
		session.UserID,
		string(meta),
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: creating session: %w", mapPostgresError(err, session.ID))
	}

	s.logger.Debug("created session", "session_id", session.ID)
	return nil
}

// GetByID loads a session. A missing row is apperror.NotFound.
func (s *Store) GetByID(ctx context.Context, id string) (*model.Session, error) {
	var (
		session model.Session
		meta    []byte
	)

	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, meta, created_at, updated_at
		 FROM sessions
		 WHERE id = $1`,
		id,
	).Scan(
		&session.ID,
		&session.UserID,
		&meta,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("session", id)
		}
		return nil, fmt.Errorf("postgres: getting session %s: %w", id, mapPostgresError(err, id))
	}

	session.CreatedAt = session.CreatedAt.UTC()
	session.UpdatedAt = session.UpdatedAt.UTC()
	session.Meta, err = model.DecodeMeta(meta)
	if err != nil {
		return nil, fmt.Errorf("postgres: getting session %s: %w", id, err)
	}

	return &session, nil
}

// UpdateMeta overwrites the session's meta document. Last writer wins.
func (s *Store) UpdateMeta(ctx context.Context, session *model.Session) error {
	meta, err := session.Meta.Encode()
	if err != nil {
		return fmt.Errorf("postgres: updating session %s: %w", session.ID, err)
	}

	session.UpdatedAt = time.Now().UTC()

	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions
		 SET meta = $1::jsonb, updated_at = $2
		 WHERE id = $3`,
		string(meta),
		session.UpdatedAt,
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("postgres: updating session %s: %w", session.ID, mapPostgresError(err, session.ID))
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("session", session.ID)
	}

	return nil
}

// DeleteAnonymousBefore removes anonymous sessions created before cutoff.
func (s *Store) DeleteAnonymousBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM sessions WHERE user_id IS NULL AND created_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("postgres: deleting expired sessions: %w", mapPostgresError(err, ""))
	}
	return tag.RowsAffected(), nil
}
