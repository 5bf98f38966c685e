package goSession

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/credstore"
)

// fakeAPI is an in-process auth backend with per-operation failure
// injection and atomic call counters.
type fakeAPI struct {
	mu  sync.Mutex
	seq int

	loginCalls    atomic.Int64
	registerCalls atomic.Int64
	refreshCalls  atomic.Int64
	profileCalls  atomic.Int64

	loginErr    error
	registerErr error
	refreshErr  error
	profileErr  error

	// profileFailFor rejects FetchProfile for this one access token with
	// an unauthorized APIError; any other token succeeds.
	profileFailFor string

	// refreshGate, when set, blocks Refresh until the channel is closed.
	refreshGate chan struct{}

	user UserProfile
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		user: UserProfile{ID: "u1", DisplayName: "Alice", Role: "member"},
	}
}

func (a *fakeAPI) mint() TokenPair {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seq++
	return TokenPair{
		AccessToken:  fmt.Sprintf("T%d", a.seq),
		RefreshToken: fmt.Sprintf("R%d", a.seq),
	}
}

func (a *fakeAPI) Login(ctx context.Context, email, password string) (*Credentials, error) {
	a.loginCalls.Add(1)
	if a.loginErr != nil {
		return nil, a.loginErr
	}
	return &Credentials{TokenPair: a.mint(), User: a.user}, nil
}

func (a *fakeAPI) Register(ctx context.Context, input RegisterInput) (*Credentials, error) {
	a.registerCalls.Add(1)
	if a.registerErr != nil {
		return nil, a.registerErr
	}
	return &Credentials{TokenPair: a.mint(), User: a.user}, nil
}

func (a *fakeAPI) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	a.refreshCalls.Add(1)
	if gate := a.refreshGate; gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if a.refreshErr != nil {
		return nil, a.refreshErr
	}
	pair := a.mint()
	return &pair, nil
}

func (a *fakeAPI) FetchProfile(ctx context.Context, accessToken string) (*UserProfile, error) {
	a.profileCalls.Add(1)
	if a.profileErr != nil {
		return nil, a.profileErr
	}
	if a.profileFailFor != "" && accessToken == a.profileFailFor {
		return nil, &APIError{Kind: KindUnauthorized, Detail: "access token rejected"}
	}
	user := a.user
	return &user, nil
}

// failingStore wraps a Store and injects errors per operation.
type failingStore struct {
	inner    credstore.Store
	saveErr  error
	clearErr error
}

func (s *failingStore) Save(ctx context.Context, rec credstore.Record) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.inner.Save(ctx, rec)
}

func (s *failingStore) Load(ctx context.Context) (credstore.Record, error) {
	return s.inner.Load(ctx)
}

func (s *failingStore) Clear(ctx context.Context) error {
	if s.clearErr != nil {
		return s.clearErr
	}
	return s.inner.Clear(ctx)
}

func newTestManager(t *testing.T, api AuthAPI, store credstore.Store) *Manager {
	t.Helper()

	if store == nil {
		store = credstore.NewMemoryStore()
	}

	manager, err := New().
		WithAPI(api).
		WithStore(store).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(manager.Close)
	return manager
}

func mustLogin(t *testing.T, m *Manager) string {
	t.Helper()

	if _, err := m.Login(context.Background(), "alice@example.com", "correct-password-123"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	return m.CurrentToken()
}

func waitForStatus(t *testing.T, m *Manager, want Status) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.Status() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("status never reached %v, still %v", want, m.Status())
}

func TestManagerClosedOperations(t *testing.T) {
	api := newFakeAPI()
	m := newTestManager(t, api, nil)
	m.Close()

	if _, err := m.Login(context.Background(), "alice@example.com", "correct-password-123"); err != ErrManagerClosed {
		t.Fatalf("expected ErrManagerClosed, got %v", err)
	}
	if _, err := m.EnsureFreshToken(context.Background()); err != ErrManagerClosed {
		t.Fatalf("expected ErrManagerClosed, got %v", err)
	}
	if err := m.Init(context.Background()); err != ErrManagerClosed {
		t.Fatalf("expected ErrManagerClosed, got %v", err)
	}
}

func TestSubscribeReceivesTransitions(t *testing.T) {
	api := newFakeAPI()
	m := newTestManager(t, api, nil)

	updates, cancel := m.Subscribe()
	defer cancel()

	mustLogin(t, m)

	var statuses []Status
	timeout := time.After(2 * time.Second)
	for len(statuses) < 2 {
		select {
		case snap := <-updates:
			statuses = append(statuses, snap.Status)
		case <-timeout:
			t.Fatalf("timed out waiting for transitions, got %v", statuses)
		}
	}

	if statuses[0] != StatusAuthenticating || statuses[1] != StatusAuthenticated {
		t.Fatalf("unexpected transition order: %v", statuses)
	}
}

func TestSubscribeCancelClosesChannel(t *testing.T) {
	api := newFakeAPI()
	m := newTestManager(t, api, nil)

	updates, cancel := m.Subscribe()
	cancel()

	if _, ok := <-updates; ok {
		t.Fatal("expected closed channel after cancel")
	}
}

func TestSlowSubscriberNeverBlocksOperations(t *testing.T) {
	api := newFakeAPI()
	m := newTestManager(t, api, nil)

	// Never read from this subscription.
	_, cancel := m.Subscribe()
	defer cancel()

	for i := 0; i < 100; i++ {
		mustLogin(t, m)
		m.Logout(context.Background())
	}

	if m.Status() != StatusUnauthenticated {
		t.Fatalf("unexpected status %v", m.Status())
	}
}
