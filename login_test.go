package goSession

import (
	"context"
	"errors"
	"testing"

	"github.com/MrEthical07/goSession/credstore"
)

func TestLoginSuccess(t *testing.T) {
	api := newFakeAPI()
	store := credstore.NewMemoryStore()
	m := newTestManager(t, api, store)

	user, err := m.Login(context.Background(), "alice@example.com", "correct-password-123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user.ID != "u1" {
		t.Fatalf("unexpected user %+v", user)
	}
	if m.Status() != StatusAuthenticated {
		t.Fatalf("unexpected status %v", m.Status())
	}
	if got := m.CurrentToken(); got != "T1" {
		t.Fatalf("unexpected token %q", got)
	}
	if got := m.RememberedLogin(); got != "alice@example.com" {
		t.Fatalf("unexpected remembered login %q", got)
	}

	rec, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("store load failed: %v", err)
	}
	if rec.AccessToken != "T1" || rec.RefreshToken != "R1" {
		t.Fatalf("unexpected persisted record %+v", rec)
	}

	if got := m.MetricsSnapshot().Counters[MetricLoginSuccess]; got != 1 {
		t.Fatalf("expected 1 login success, got %d", got)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	api := newFakeAPI()
	api.loginErr = &APIError{Kind: KindInvalidCredentials, Detail: "bad password"}
	store := credstore.NewMemoryStore()
	m := newTestManager(t, api, store)

	_, err := m.Login(context.Background(), "alice@example.com", "wrong-password-123")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if m.Status() != StatusUnauthenticated {
		t.Fatalf("unexpected status %v", m.Status())
	}
	if _, err := store.Load(context.Background()); !errors.Is(err, credstore.ErrNoCredentials) {
		t.Fatalf("expected empty store, got %v", err)
	}
}

func TestLoginValidationRejectsLocally(t *testing.T) {
	api := newFakeAPI()
	m := newTestManager(t, api, nil)

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"empty email", "", "correct-password-123"},
		{"malformed email", "not-an-email", "correct-password-123"},
		{"empty password", "alice@example.com", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.Login(context.Background(), tc.email, tc.password)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}

	if got := api.loginCalls.Load(); got != 0 {
		t.Fatalf("expected no upstream calls, got %d", got)
	}
	if m.Status() != StatusUnauthenticated {
		t.Fatalf("unexpected status %v", m.Status())
	}
}

func TestLoginWhileAuthenticatedBusy(t *testing.T) {
	api := newFakeAPI()
	m := newTestManager(t, api, nil)
	mustLogin(t, m)

	_, err := m.Login(context.Background(), "alice@example.com", "correct-password-123")
	if !errors.Is(err, ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy, got %v", err)
	}
	// The established session is untouched.
	if m.Status() != StatusAuthenticated {
		t.Fatalf("unexpected status %v", m.Status())
	}
}

func TestLoginStoreFailureStillSucceeds(t *testing.T) {
	api := newFakeAPI()
	store := &failingStore{
		inner:   credstore.NewMemoryStore(),
		saveErr: credstore.ErrStoreUnavailable,
	}
	m := newTestManager(t, api, store)

	user, err := m.Login(context.Background(), "alice@example.com", "correct-password-123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user == nil || m.Status() != StatusAuthenticated {
		t.Fatalf("session not established: %v", m.Status())
	}
	if got := m.MetricsSnapshot().Counters[MetricStoreFailure]; got != 1 {
		t.Fatalf("expected 1 store failure, got %d", got)
	}
}

func TestLoginNetworkFailure(t *testing.T) {
	api := newFakeAPI()
	api.loginErr = &APIError{Kind: KindNetwork, Detail: "connection refused"}
	m := newTestManager(t, api, nil)

	_, err := m.Login(context.Background(), "alice@example.com", "correct-password-123")
	if !errors.Is(err, ErrNetworkUnavailable) {
		t.Fatalf("expected ErrNetworkUnavailable, got %v", err)
	}
	if m.Status() != StatusUnauthenticated {
		t.Fatalf("unexpected status %v", m.Status())
	}
}

func TestRegisterSuccess(t *testing.T) {
	api := newFakeAPI()
	store := credstore.NewMemoryStore()
	m := newTestManager(t, api, store)

	user, err := m.Register(context.Background(), RegisterInput{
		Email:       "bob@example.com",
		Password:    "correct-password-123",
		DisplayName: "Bob",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.ID != "u1" {
		t.Fatalf("unexpected user %+v", user)
	}
	if m.Status() != StatusAuthenticated {
		t.Fatalf("unexpected status %v", m.Status())
	}
	if got := m.RememberedLogin(); got != "bob@example.com" {
		t.Fatalf("unexpected remembered login %q", got)
	}

	rec, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("store load failed: %v", err)
	}
	if !rec.HasTokens() {
		t.Fatalf("expected persisted tokens, got %+v", rec)
	}
}

func TestRegisterAccountExists(t *testing.T) {
	api := newFakeAPI()
	api.registerErr = &APIError{Kind: KindAccountExists}
	m := newTestManager(t, api, nil)

	_, err := m.Register(context.Background(), RegisterInput{
		Email:    "bob@example.com",
		Password: "correct-password-123",
	})
	if !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
	if m.Status() != StatusUnauthenticated {
		t.Fatalf("unexpected status %v", m.Status())
	}
}

func TestRegisterValidationRejectsWeakPassword(t *testing.T) {
	api := newFakeAPI()
	m := newTestManager(t, api, nil)

	_, err := m.Register(context.Background(), RegisterInput{
		Email:    "bob@example.com",
		Password: "short",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if got := api.registerCalls.Load(); got != 0 {
		t.Fatalf("expected no upstream calls, got %d", got)
	}
}
