// Package repository declares the storage contracts the service layer depends on.
// Implementations live in the sqlite and postgres subpackages.
package repository

import (
	"context"
	"time"

	"github.com/sakif/mpg-calculator/internal/model"
)

// SessionRepository persists visitor sessions.
//
// WHY AN INTERFACE?
// The service layer never names a database. server.New picks SQLite or
// PostgreSQL at startup, and service tests swap in an in-memory mock; both
// work because SessionService only sees this contract.
//
// Implementations assign ids and timestamps in Create, report a missing row
// as apperror.NotFound, and store Meta as one opaque document.
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	// UpdateMeta replaces the stored meta document and bumps UpdatedAt.
	UpdateMeta(ctx context.Context, session *model.Session) error
	// DeleteAnonymousBefore removes sessions with no user created before cutoff.
	DeleteAnonymousBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Ping(ctx context.Context) error
}
