// Package client drives the calculator the way the browser page does: it
// seeds the form, tracks staleness, computes results and saves the input to
// the session API in the background.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sakif/mpg-calculator/internal/calculator"
	"github.com/sakif/mpg-calculator/internal/model"
)

// saveTimeout bounds one background save.
const saveTimeout = 10 * time.Second

// Persister stores calculator input somewhere durable without blocking the caller.
type Persister interface {
	SaveAsync(saved calculator.Saved)
}

// Saver writes calculator input to a session through the HTTP API.
//
// A save is two requests: GET /sessions resolves the session bound to the
// cookie jar, then PATCH /sessions/{id} replaces its meta. The jar keeps the
// cookie, so every save from one Saver lands in the same session.
type Saver struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewSaver creates a Saver for the server at baseURL. A nil httpClient gets a
// fresh client with its own cookie jar.
func NewSaver(baseURL string, httpClient *http.Client, logger *slog.Logger) (*Saver, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("client: invalid server url %q: %w", baseURL, err)
	}
	if httpClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("client: creating cookie jar: %w", err)
		}
		httpClient = &http.Client{Jar: jar}
	}

	return &Saver{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger,
	}, nil
}

type updateRequest struct {
	Session struct {
		Meta model.Meta `json:"meta"`
	} `json:"session"`
}

// Save resolves the session and replaces its meta with saved.
func (s *Saver) Save(ctx context.Context, saved calculator.Saved) error {
	id, err := s.sessionID(ctx)
	if err != nil {
		return err
	}

	var body updateRequest
	body.Session.Meta = model.Meta{MPGCalculator: &saved}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("client: encoding meta: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch,
		s.baseURL+"/sessions/"+url.PathEscape(id), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("client: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: saving session %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("client: saving session %s: unexpected status %d", id, resp.StatusCode)
	}
	return nil
}

func (s *Saver) sessionID(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/sessions", nil)
	if err != nil {
		return "", fmt.Errorf("client: building request: %w", err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("client: resolving session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("client: resolving session: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("client: decoding session: %w", err)
	}
	if body.ID == "" {
		return "", fmt.Errorf("client: resolving session: empty id")
	}
	return body.ID, nil
}

// SaveAsync saves in a goroutine and returns immediately. Failures are
// logged and dropped; there is no retry and the caller is never told.
func (s *Saver) SaveAsync(saved calculator.Saved) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()

		if err := s.Save(ctx, saved); err != nil {
			s.logger.Error("saving calculator input failed", slog.String("error", err.Error()))
			return
		}
		s.logger.Debug("calculator input saved",
			slog.Time("last_calculated_at", saved.LastCalculatedAt))
	}()
}

// Wait blocks until every SaveAsync call has finished.
func (s *Saver) Wait() {
	s.wg.Wait()
}
