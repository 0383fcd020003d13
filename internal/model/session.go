// Package model defines the data structures shared by the storage, service
// and HTTP layers.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sakif/mpg-calculator/internal/calculator"
)

// Session is a visitor's server-side record.
//
// Anonymous sessions have a nil UserID. The id is the only thing the browser
// learns about a session; everything else stays on the server and is reached
// through the signed session cookie.
type Session struct {
	ID        string    `json:"id"`
	UserID    *string   `json:"user_id"`
	Meta      Meta      `json:"meta"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Anonymous reports whether the session belongs to no user.
func (s *Session) Anonymous() bool {
	return s.UserID == nil
}

// Meta is the free-form document a session carries.
//
// Only the mpg_calculator key is known. Documents are replaced whole: writing
// a Meta without a key drops whatever that key held before.
type Meta struct {
	MPGCalculator *calculator.Saved `json:"mpg_calculator,omitempty"`
}

// DecodeMeta parses a stored or submitted meta document.
// Empty input and JSON null decode to an empty Meta; unknown keys are dropped.
func DecodeMeta(raw []byte) (Meta, error) {
	var m Meta
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return m, nil
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return Meta{}, fmt.Errorf("model: decoding meta: %w", err)
	}
	return m, nil
}

// Encode serializes the meta document for storage. An empty Meta encodes as {}.
func (m Meta) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("model: encoding meta: %w", err)
	}
	return data, nil
}

// CalculatorInput returns the saved calculator input, or nil when none was saved.
func (m Meta) CalculatorInput() *calculator.Input {
	if m.MPGCalculator == nil {
		return nil
	}
	in := m.MPGCalculator.Input
	return &in
}
