package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/mpg-calculator/internal/apperror"
	"github.com/sakif/mpg-calculator/internal/model"
	"github.com/sakif/mpg-calculator/internal/repository"
)

// COMPILE-TIME INTERFACE CHECK:
// The build fails here, not at the call site in server.New, if *DB ever stops
// satisfying repository.SessionRepository.
var _ repository.SessionRepository = (*DB)(nil)

// Create inserts a new session, assigning its id and timestamps.
//
// KEY CONCEPTS:
//
//  1. ID GENERATION WITH xid:
//     The id ends up in the signed cookie and in /sessions/{id} URLs, so it
//     must be URL-safe and unguessable enough that ids are not enumerable by
//     counting. xid gives 20 URL-safe characters with a random component.
//
//  2. UTC TIMESTAMPS:
//     The driver writes time.Time as text, and DeleteAnonymousBefore compares
//     that text with <. Text only orders like time when every row shares a
//     zone, so everything is converted to UTC before it is written.
//
//  3. META AS ONE COLUMN:
//     Meta is encoded to JSON and stored whole. Nothing queries inside it,
//     so there is no reason to split it into columns.
func (db *DB) Create(ctx context.Context, session *model.Session) error {
	session.ID = xid.New().String()

	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	meta, err := session.Meta.Encode()
	if err != nil {
		return fmt.Errorf("sqlite: creating session: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, meta, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		string(meta),
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating session: %w", err)
	}

	return nil
}

// GetByID loads a session. A missing row is apperror.NotFound.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Session, error) {
	var (
		session model.Session
		userID  sql.NullString
		meta    string
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, meta, created_at, updated_at
		 FROM sessions
		 WHERE id = ?`,
		id,
	).Scan(
		&session.ID,
		&userID,
		&meta,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("session", id)
		}
		return nil, fmt.Errorf("sqlite: getting session %s: %w", id, err)
	}

	if userID.Valid {
		session.UserID = &userID.String
	}
	session.Meta, err = model.DecodeMeta([]byte(meta))
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting session %s: %w", id, err)
	}

	return &session, nil
}

// UpdateMeta overwrites the session's meta document.
//
// LAST WRITER WINS:
// There is no version column and no read-modify-write. Two tabs saving at the
// same moment both succeed, and whichever UPDATE commits second is what the
// next GET sees.
//
// RowsAffected distinguishes "no such session" from success; UPDATE on a
// missing id is not an SQL error.
func (db *DB) UpdateMeta(ctx context.Context, session *model.Session) error {
	meta, err := session.Meta.Encode()
	if err != nil {
		return fmt.Errorf("sqlite: updating session %s: %w", session.ID, err)
	}

	session.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE sessions
		 SET meta = ?, updated_at = ?
		 WHERE id = ?`,
		string(meta),
		session.UpdatedAt,
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating session %s: %w", session.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("session", session.ID)
	}

	return nil
}

// DeleteAnonymousBefore removes anonymous sessions created before cutoff and
// returns how many rows went. Sessions with a user_id are never swept.
// The created_at index keeps this from scanning the whole table.
func (db *DB) DeleteAnonymousBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM sessions WHERE user_id IS NULL AND created_at < ?`,
		cutoff.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting expired sessions: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n, nil
}
