// Package service contains the business logic between the HTTP handlers and
// the repositories.
//
//	Handler (HTTP)    → parses requests, writes responses
//	Service (rules)   → resolves, creates and rewrites sessions
//	Repository (data) → reads/writes SQLite or PostgreSQL
//
// Services take repository interfaces, never concrete stores, so tests run
// against an in-memory fake and the server picks the backend at startup.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/mpg-calculator/internal/apperror"
	"github.com/sakif/mpg-calculator/internal/model"
	"github.com/sakif/mpg-calculator/internal/repository"
)

// AnonymousSessionTTL is how long an anonymous session lives. It matches the
// cookie lifetime: once the browser has forgotten the cookie nobody can reach
// the row again.
const AnonymousSessionTTL = 365 * 24 * time.Hour

// SessionService manages visitor sessions.
type SessionService struct {
	repo   repository.SessionRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewSessionService creates a SessionService.
func NewSessionService(repo repository.SessionRepository, logger *slog.Logger) *SessionService {
	return &SessionService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Create starts a new anonymous session with an empty meta document.
func (s *SessionService) Create(ctx context.Context) (*model.Session, error) {
	session := &model.Session{}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("session created", "session_id", session.ID)
	return session, nil
}

// Get fetches a session by id. Unknown ids are apperror.NotFound.
func (s *SessionService) Get(ctx context.Context, id string) (*model.Session, error) {
	if id == "" {
		return nil, apperror.NotFound("session", id)
	}
	return s.repo.GetByID(ctx, id)
}

// Resolve returns the session the cookie points at, creating a fresh one when
// the id is empty or no longer exists. created reports which happened.
//
// Storage errors other than NotFound are returned as-is: a database outage
// must not silently hand every visitor a new, empty session.
func (s *SessionService) Resolve(ctx context.Context, id string) (session *model.Session, created bool, err error) {
	if id != "" {
		session, err = s.repo.GetByID(ctx, id)
		switch {
		case err == nil:
			return session, false, nil
		case !errors.Is(err, apperror.ErrNotFound):
			return nil, false, fmt.Errorf("resolving session %s: %w", id, err)
		}
		s.logger.Debug("session cookie points at missing session", "session_id", id)
	}

	session, err = s.Create(ctx)
	if err != nil {
		return nil, false, err
	}
	return session, true, nil
}

// ReplaceMeta overwrites a session's meta document with meta.
//
// The whole document is replaced; keys absent from meta are gone afterwards.
// Two concurrent writers race and the last commit wins.
func (s *SessionService) ReplaceMeta(ctx context.Context, id string, meta model.Meta) (*model.Session, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	session.Meta = meta
	if err := s.repo.UpdateMeta(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("session meta replaced",
		"session_id", session.ID,
		"has_calculator", meta.MPGCalculator != nil,
	)
	return session, nil
}

// Cleanup deletes anonymous sessions older than AnonymousSessionTTL.
func (s *SessionService) Cleanup(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-AnonymousSessionTTL)

	n, err := s.repo.DeleteAnonymousBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleaning up sessions: %w", err)
	}

	s.logger.Info("expired sessions removed", "count", n, "cutoff", cutoff)
	return n, nil
}

// Ping reports whether the backing store is reachable.
func (s *SessionService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
