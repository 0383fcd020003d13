package auth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/mpg-calculator/internal/model"
)

// contextKey keeps this package's context values private.
type contextKey string

const sessionKey contextKey = "session"

// DefaultCookieName is the session cookie's name.
const DefaultCookieName = "_mpg_session"

// SessionResolver finds the session a cookie points at, creating one when needed.
type SessionResolver interface {
	Resolve(ctx context.Context, id string) (session *model.Session, created bool, err error)
}

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool // set in production, where the site is served over HTTPS
	MaxAge time.Duration
}

func (c CookieConfig) withDefaults() CookieConfig {
	if c.Name == "" {
		c.Name = DefaultCookieName
	}
	if c.MaxAge == 0 {
		c.MaxAge = SessionTokenTTL
	}
	return c
}

// SessionCookie guarantees every request it wraps has a session.
//
// A missing, expired or forged cookie is not an error here: the visitor just
// gets a new anonymous session. The cookie is re-issued on every request, so
// an active visitor's session never expires under them.
//
// Only storage failures stop the request, with a 500.
func SessionCookie(tokens *TokenService, sessions SessionResolver, cfg CookieConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	cfg = cfg.withDefaults()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := sessionIDFromCookie(r, tokens, cfg.Name, logger)

			session, created, err := sessions.Resolve(r.Context(), id)
			if err != nil {
				logger.Error("resolving session", "error", err)
				writeUnavailable(w)
				return
			}

			token, err := tokens.Generate(session.ID)
			if err != nil {
				logger.Error("signing session cookie", "error", err, "session_id", session.ID)
				writeUnavailable(w)
				return
			}

			http.SetCookie(w, &http.Cookie{
				Name:     cfg.Name,
				Value:    token,
				Path:     "/",
				MaxAge:   int(cfg.MaxAge / time.Second),
				HttpOnly: true,
				Secure:   cfg.Secure,
				SameSite: http.SameSiteLaxMode,
			})

			if created {
				logger.Debug("session cookie issued", "session_id", session.ID)
			}

			ctx := context.WithValue(r.Context(), sessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the session SessionCookie attached to the request.
func SessionFromContext(ctx context.Context) (*model.Session, bool) {
	s, ok := ctx.Value(sessionKey).(*model.Session)
	return s, ok && s != nil
}

// sessionIDFromCookie returns the session id in a valid cookie, or "".
func sessionIDFromCookie(r *http.Request, tokens *TokenService, name string, logger *slog.Logger) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}

	id, err := tokens.Validate(cookie.Value)
	if err != nil {
		logger.Debug("discarding session cookie", "error", err)
		return ""
	}
	return id
}

func writeUnavailable(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	w.Write([]byte(`{"error":"internal_error","message":"session store unavailable"}`))
}
