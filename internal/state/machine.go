package state

import (
	"errors"
	"sync"
)

// ErrBusy is returned when a transition contradicts an operation that is
// already in flight (login during refresh, concurrent logins, and so on).
var ErrBusy = errors.New("session busy")

// ErrNotAuthenticated is returned when a transition requires an
// authenticated session and there is none.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrNotRefreshing is returned when a refresh settles after the session
// already left the refreshing state (logout raced the refresh).
var ErrNotRefreshing = errors.New("session not refreshing")

// Status is the authentication state of the session.
type Status uint8

const (
	StatusUnauthenticated Status = iota
	StatusAuthenticating
	StatusAuthenticated
	StatusRefreshing
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusAuthenticating:
		return "authenticating"
	case StatusAuthenticated:
		return "authenticated"
	case StatusRefreshing:
		return "refreshing"
	case StatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// User is the profile record attached to an authenticated session.
type User struct {
	ID             string
	DisplayName    string
	Role           string
	OrganizationID string
}

// Snapshot is a read-only copy of the session handed to observers.
type Snapshot struct {
	Status        Status
	User          *User
	AccessToken   string
	Bootstrapping bool
}

// Machine owns the single mutable Session and every transition on it.
// All other components read and mutate the session exclusively through
// Machine methods; there is no direct field access from the outside.
//
// The notify callback runs with the machine lock held so observers see
// transitions in the order they happened. It must not call back into the
// machine and must not block.
type Machine struct {
	mu            sync.Mutex
	status        Status
	accessToken   string
	refreshToken  string
	user          *User
	bootstrapping bool
	tokenStale    bool
	notify        func(Snapshot)
}

// New creates a Machine in the unauthenticated state.
func New(notify func(Snapshot)) *Machine {
	return &Machine{
		status: StatusUnauthenticated,
		notify: notify,
	}
}

func (m *Machine) snapshotLocked() Snapshot {
	snap := Snapshot{
		Status:        m.status,
		AccessToken:   m.accessToken,
		Bootstrapping: m.bootstrapping,
	}
	if m.user != nil {
		u := *m.user
		snap.User = &u
	}
	return snap
}

func (m *Machine) notifyLocked() {
	if m.notify != nil {
		m.notify(m.snapshotLocked())
	}
}

// Snapshot returns a consistent copy of the current session.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Status returns the current authentication state.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// RefreshToken returns the refresh token held by the session, if any.
func (m *Machine) RefreshToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshToken
}

// TokenStale reports whether the current access token has been reported
// rejected by a consumer and should be refreshed before reuse.
func (m *Machine) TokenStale() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokenStale
}

// MarkTokenRejected records that a consumer received an auth rejection for
// the given access token. Reports about tokens the session no longer holds
// are ignored so a late 401 cannot poison a freshly rotated token.
func (m *Machine) MarkTokenRejected(token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if token == "" || token != m.accessToken {
		return false
	}
	if m.status != StatusAuthenticated && m.status != StatusRefreshing {
		return false
	}
	m.tokenStale = true
	return true
}

// BeginAuthenticating enters the authenticating state for a login, a
// registration, or the startup bootstrap. Any in-flight or established
// session makes this a contradictory intent and returns ErrBusy.
func (m *Machine) BeginAuthenticating(bootstrapping bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.status {
	case StatusUnauthenticated, StatusExpired:
	default:
		return ErrBusy
	}

	m.status = StatusAuthenticating
	m.bootstrapping = bootstrapping
	m.notifyLocked()
	return nil
}

// AdoptCredentials installs persisted tokens during the bootstrap gap:
// the session is authenticating, holds tokens, and has no user yet. This
// is the only window in which tokens may exist without a profile.
func (m *Machine) AdoptCredentials(accessToken, refreshToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != StatusAuthenticating {
		return ErrNotAuthenticated
	}
	m.accessToken = accessToken
	m.refreshToken = refreshToken
	return nil
}

// CompleteAuthentication settles a successful login/register/bootstrap.
func (m *Machine) CompleteAuthentication(accessToken, refreshToken string, user User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != StatusAuthenticating {
		return ErrNotAuthenticated
	}

	m.status = StatusAuthenticated
	m.accessToken = accessToken
	m.refreshToken = refreshToken
	m.user = &user
	m.bootstrapping = false
	m.tokenStale = false
	m.notifyLocked()
	return nil
}

// FailAuthentication returns a failed login/register/bootstrap to the
// unauthenticated state. Nothing is persisted by the caller in this path.
func (m *Machine) FailAuthentication() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != StatusAuthenticating {
		return
	}
	m.clearLocked()
	m.notifyLocked()
}

// BeginRefresh enters the refreshing state. Only an authenticated session
// can refresh; a second concurrent refresh returns ErrBusy.
func (m *Machine) BeginRefresh() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.status {
	case StatusAuthenticated:
	case StatusRefreshing:
		return ErrBusy
	default:
		return ErrNotAuthenticated
	}

	m.status = StatusRefreshing
	m.notifyLocked()
	return nil
}

// CompleteRefresh installs the rotated token pair. If a logout raced the
// refresh the session is no longer refreshing and the result is discarded
// with ErrNotRefreshing; a logged-out session is never resurrected.
func (m *Machine) CompleteRefresh(accessToken, refreshToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != StatusRefreshing {
		return ErrNotRefreshing
	}

	m.status = StatusAuthenticated
	m.accessToken = accessToken
	m.refreshToken = refreshToken
	m.tokenStale = false
	m.notifyLocked()
	return nil
}

// FailRefresh returns a retryably-failed refresh to the authenticated
// state. The stale mark is kept so the next EnsureFreshToken tries again.
func (m *Machine) FailRefresh() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != StatusRefreshing {
		return ErrNotRefreshing
	}

	m.status = StatusAuthenticated
	m.notifyLocked()
	return nil
}

// Expire marks the session expired after a non-retryable refresh failure.
// The caller must follow up with Reset; Expire exists so observers see the
// expired edge before the forced logout. A session that already left the
// live states (a user logout won the race) is left alone so observers do
// not see a replayed expired edge.
func (m *Machine) Expire() {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.status {
	case StatusAuthenticated, StatusRefreshing:
	default:
		return
	}

	m.status = StatusExpired
	m.accessToken = ""
	m.refreshToken = ""
	m.user = nil
	m.tokenStale = false
	m.notifyLocked()
}

// Reset tears the session down to unauthenticated. It never fails and is
// a no-op when the session is already unauthenticated and empty.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status == StatusUnauthenticated && m.accessToken == "" && m.user == nil {
		return
	}
	m.clearLocked()
	m.notifyLocked()
}

func (m *Machine) clearLocked() {
	m.status = StatusUnauthenticated
	m.accessToken = ""
	m.refreshToken = ""
	m.user = nil
	m.bootstrapping = false
	m.tokenStale = false
}
