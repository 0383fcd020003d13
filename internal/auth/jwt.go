// Package auth binds browsers to server-side sessions.
//
// SESSION COOKIE FLOW:
//  1. A request arrives without a cookie (or with one that fails validation)
//  2. The middleware creates an anonymous session and signs its id into a JWT
//  3. The JWT goes back in an HttpOnly cookie; the browser never sees anything else
//  4. Later requests carry the cookie, the middleware validates it and loads
//     the session into the request context
//
// The cookie only carries the session id. Meta lives in the database, so the
// cookie stays small and rewriting the meta never requires a new cookie.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/mpg-calculator/internal/apperror"
)

const (
	// SessionTokenTTL is how long a session cookie stays valid.
	SessionTokenTTL = 365 * 24 * time.Hour

	issuer         = "mpg-calculator"
	sessionPurpose = "mpg-calculator session cookie"
)

// TokenService signs and validates session tokens with HS256.
type TokenService struct {
	key []byte
}

// NewTokenService derives the session signing key from the secret key base.
func NewTokenService(secretKeyBase string) (*TokenService, error) {
	key, err := DeriveKey(secretKeyBase, sessionPurpose)
	if err != nil {
		return nil, err
	}
	return &TokenService{key: key}, nil
}

type claims struct {
	jwt.RegisteredClaims
}

// Generate signs a token for sessionID that expires after SessionTokenTTL.
func (s *TokenService) Generate(sessionID string) (string, error) {
	return s.GenerateWithDuration(sessionID, SessionTokenTTL)
}

// GenerateWithDuration signs a token with a custom lifetime. Tests use a
// negative duration to mint expired tokens.
func (s *TokenService) GenerateWithDuration(sessionID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies a token and returns the session id in its subject.
// Every failure is an apperror.ErrUnauthorized.
//
// Only HS256 is accepted. Without jwt.WithValidMethods a token claiming
// "alg": "none" could slip through.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.key, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", apperror.Unauthorized("auth: token expired")
		}
		return "", apperror.Unauthorized(fmt.Sprintf("auth: invalid token: %v", err))
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", apperror.Unauthorized("auth: invalid token claims")
	}
	if c.Subject == "" {
		return "", apperror.Unauthorized("auth: token has no subject")
	}

	return c.Subject, nil
}
