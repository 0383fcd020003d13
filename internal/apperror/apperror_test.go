package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{"NotFound wraps ErrNotFound", NotFound("session", "abc123"), ErrNotFound, true},
		{"ValidationFailed wraps ErrValidation", ValidationFailed("meta", "meta must be a JSON object"), ErrValidation, true},
		{"Conflict wraps ErrConflict", Conflict("session", "abc123"), ErrConflict, true},
		{"Unauthorized wraps ErrUnauthorized", Unauthorized("session cookie expired"), ErrUnauthorized, true},
		{"NotFound is not a validation error", NotFound("session", "abc123"), ErrValidation, false},
		{"Unauthorized is not NotFound", Unauthorized("bad signature"), ErrNotFound, false},
		// Storage layers wrap AppErrors with context; the sentinel must survive that.
		{"wrapped NotFound still matches", fmt.Errorf("sqlite: %w", NotFound("session", "x")), ErrNotFound, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err         *AppError
		wantMessage string
	}{
		{NotFound("session", "abc123"), "session not found with id abc123"},
		{ValidationFailed("meta", "meta must be a JSON object"), "meta must be a JSON object"},
		{Conflict("session", "abc123"), "session conflict with id abc123"},
		{Unauthorized("session cookie expired"), "session cookie expired"},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.wantMessage {
			t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
		}
	}
}

func TestErrorsAs(t *testing.T) {
	var err error = fmt.Errorf("decoding body: %w", ValidationFailed("session.meta", "not a number"))

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("errors.As did not find *AppError in %v", err)
	}
	if appErr.Field != "session.meta" {
		t.Errorf("Field = %q, want %q", appErr.Field, "session.meta")
	}
	if appErr.Unwrap() != ErrValidation {
		t.Errorf("Unwrap() = %v, want %v", appErr.Unwrap(), ErrValidation)
	}
}
