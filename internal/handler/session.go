// Package handler contains the HTTP handlers. Handlers parse requests, call
// a service and write JSON; they hold no business rules of their own.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/mpg-calculator/internal/apperror"
	"github.com/sakif/mpg-calculator/internal/auth"
	"github.com/sakif/mpg-calculator/internal/model"
)

// maxMetaBytes caps a PATCH body. A full calculator document is well under 1KB.
const maxMetaBytes = 64 << 10

// SessionService is the part of service.SessionService the handlers use.
type SessionService interface {
	Get(ctx context.Context, id string) (*model.Session, error)
	ReplaceMeta(ctx context.Context, id string, meta model.Meta) (*model.Session, error)
}

// SessionHandler serves /sessions.
type SessionHandler struct {
	sessions SessionService
	logger   *slog.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(sessions SessionService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, logger: logger}
}

// sessionIDResponse is the body of GET /sessions.
type sessionIDResponse struct {
	ID string `json:"id"`
}

// HandleCurrent returns the id of the caller's session.
//
// HTTP: GET /sessions
//
// The auth.SessionCookie middleware has already resolved or created the
// session and refreshed the cookie; this only reports the id.
func (h *SessionHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, errors.New("session middleware not installed"))
		return
	}
	writeJSON(w, http.StatusOK, sessionIDResponse{ID: session.ID})
}

// HandleShow returns the full session document.
//
// HTTP: GET /sessions/{id}
//
// Anyone holding the id can read the session; ids are unguessable and only
// ever handed to the browser that owns the cookie.
func (h *SessionHandler) HandleShow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	session, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// updateRequest is the PATCH body: {"session": {"meta": {...}}}.
type updateRequest struct {
	Session *struct {
		Meta json.RawMessage `json:"meta"`
	} `json:"session"`
}

// HandleUpdate replaces the session's meta document.
//
// HTTP: PATCH /sessions/{id}
// REQUEST BODY: {"session": {"meta": {"mpg_calculator": {...}}}}
//
// The document is replaced, not merged. A body without session or meta
// clears the stored meta. Success is 200 with an empty body.
func (h *SessionHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	meta, err := decodeMeta(http.MaxBytesReader(w, r.Body, maxMetaBytes))
	if err != nil {
		h.logger.Warn("rejected session meta",
			slog.String("session_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	if _, err := h.sessions.ReplaceMeta(r.Context(), id, meta); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// decodeMeta reads a PATCH body into a Meta. Every failure is a validation error.
func decodeMeta(body io.Reader) (model.Meta, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return model.Meta{}, apperror.ValidationFailed("session", "request body too large")
		}
		return model.Meta{}, apperror.ValidationFailed("session", "unreadable request body")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return model.Meta{}, nil
	}

	var req updateRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return model.Meta{}, apperror.ValidationFailed("session", "request body must be a JSON object")
	}
	if req.Session == nil {
		return model.Meta{}, nil
	}

	meta, err := model.DecodeMeta(req.Session.Meta)
	if err != nil {
		return model.Meta{}, apperror.ValidationFailed("session.meta", err.Error())
	}
	return meta, nil
}
