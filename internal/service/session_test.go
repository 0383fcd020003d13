package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/sakif/mpg-calculator/internal/apperror"
	"github.com/sakif/mpg-calculator/internal/calculator"
	"github.com/sakif/mpg-calculator/internal/model"
)

// mockSessionRepo is an in-memory repository.SessionRepository.
// Setting err makes every call fail with it, to simulate an outage.
type mockSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	nextID   int
	err      error
	cutoff   time.Time
}

func newMockRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]*model.Session)}
}

func (m *mockSessionRepo) Create(_ context.Context, session *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.nextID++
	session.ID = fmt.Sprintf("mock-%d", m.nextID)
	session.CreatedAt = time.Now().UTC()
	session.UpdatedAt = session.CreatedAt
	stored := *session
	m.sessions[session.ID] = &stored
	return nil
}

func (m *mockSessionRepo) GetByID(_ context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	session, ok := m.sessions[id]
	if !ok {
		return nil, apperror.NotFound("session", id)
	}
	result := *session
	return &result, nil
}

func (m *mockSessionRepo) UpdateMeta(_ context.Context, session *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.sessions[session.ID]; !ok {
		return apperror.NotFound("session", session.ID)
	}
	session.UpdatedAt = time.Now().UTC()
	stored := *session
	m.sessions[session.ID] = &stored
	return nil
}

func (m *mockSessionRepo) DeleteAnonymousBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.cutoff = cutoff
	var n int64
	for id, s := range m.sessions {
		if s.UserID == nil && s.CreatedAt.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *mockSessionRepo) Ping(context.Context) error {
	return m.err
}

func newTestService(t *testing.T) (*SessionService, *mockSessionRepo) {
	t.Helper()
	repo := newMockRepo()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewSessionService(repo, logger), repo
}

func TestCreate(t *testing.T) {
	svc, _ := newTestService(t)

	session, err := svc.Create(context.Background())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if session.ID == "" {
		t.Error("expected session to have an ID")
	}
	if !session.Anonymous() {
		t.Error("new sessions must be anonymous")
	}
	if session.Meta.MPGCalculator != nil {
		t.Errorf("new session meta = %+v, want empty", session.Meta)
	}
}

func TestResolve(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	existing, err := svc.Create(ctx)
	if err != nil {
		t.Fatalf("setup: Create() error = %v", err)
	}

	tests := []struct {
		name        string
		id          string
		wantCreated bool
		wantSameID  bool
	}{
		{"no cookie starts a session", "", true, false},
		{"known id resumes", existing.ID, false, true},
		{"deleted id starts over", "mock-999", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, created, err := svc.Resolve(ctx, tt.id)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if created != tt.wantCreated {
				t.Errorf("created = %v, want %v", created, tt.wantCreated)
			}
			if (session.ID == existing.ID) != tt.wantSameID {
				t.Errorf("session id = %s, existing = %s, wantSame %v", session.ID, existing.ID, tt.wantSameID)
			}
		})
	}
}

func TestResolve_StorageErrorIsNotASilentNewSession(t *testing.T) {
	svc, repo := newTestService(t)
	repo.err = errors.New("disk on fire")

	_, _, err := svc.Resolve(context.Background(), "mock-1")
	if err == nil {
		t.Fatal("Resolve() should surface storage errors")
	}
	if errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, must not look like NotFound", err)
	}
}

func TestGet_EmptyID(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Get(context.Background(), "")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestReplaceMeta(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	session, _ := svc.Create(ctx)
	meta := model.Meta{MPGCalculator: &calculator.Saved{
		Input: calculator.Input{CurrentCar: calculator.CurrentCar{MPG: calculator.Some(30)}},
	}}

	if _, err := svc.ReplaceMeta(ctx, session.ID, meta); err != nil {
		t.Fatalf("ReplaceMeta() error = %v", err)
	}

	found, err := svc.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	in := found.Meta.CalculatorInput()
	if in == nil || !in.CurrentCar.MPG.Equal(calculator.Some(30)) {
		t.Errorf("stored input = %+v, want current mpg 30", in)
	}

	// An empty document clears the calculator key.
	if _, err := svc.ReplaceMeta(ctx, session.ID, model.Meta{}); err != nil {
		t.Fatalf("ReplaceMeta() error = %v", err)
	}
	found, _ = svc.Get(ctx, session.ID)
	if found.Meta.MPGCalculator != nil {
		t.Errorf("meta after clear = %+v, want empty", found.Meta)
	}
}

func TestReplaceMeta_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ReplaceMeta(context.Background(), "nonexistent", model.Meta{})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestReplaceMeta_LastWriteWins(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	session, _ := svc.Create(ctx)

	var wg sync.WaitGroup
	for i := 1; i <= 10; i++ {
		wg.Add(1)
		go func(mpg float64) {
			defer wg.Done()
			meta := model.Meta{MPGCalculator: &calculator.Saved{
				Input: calculator.Input{CurrentCar: calculator.CurrentCar{MPG: calculator.Some(mpg)}},
			}}
			if _, err := svc.ReplaceMeta(ctx, session.ID, meta); err != nil {
				t.Errorf("ReplaceMeta() error = %v", err)
			}
		}(float64(i))
	}
	wg.Wait()

	found, err := svc.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	// Some writer won; the document is one writer's whole value, never a blend.
	if in := found.Meta.CalculatorInput(); in == nil || !in.CurrentCar.MPG.Present() {
		t.Errorf("stored input = %+v, want one writer's value", in)
	}
}

func TestCleanup(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	old, _ := svc.Create(ctx)
	repo.sessions[old.ID].CreatedAt = fixed.Add(-AnonymousSessionTTL - time.Hour)
	recent, _ := svc.Create(ctx)
	repo.sessions[recent.ID].CreatedAt = fixed.Add(-time.Hour)

	n, err := svc.Cleanup(ctx)
	if err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Cleanup() removed %d, want 1", n)
	}
	if want := fixed.Add(-AnonymousSessionTTL); !repo.cutoff.Equal(want) {
		t.Errorf("cutoff = %v, want %v", repo.cutoff, want)
	}
	if _, err := svc.Get(ctx, recent.ID); err != nil {
		t.Errorf("recent session removed: %v", err)
	}
}

func TestCleanup_Error(t *testing.T) {
	svc, repo := newTestService(t)
	repo.err = errors.New("connection refused")

	if _, err := svc.Cleanup(context.Background()); err == nil {
		t.Fatal("Cleanup() should return storage errors")
	}
	if err := svc.Ping(context.Background()); err == nil {
		t.Fatal("Ping() should return storage errors")
	}
}
