package goSession

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goSession/credstore"
	"github.com/MrEthical07/goSession/internal/flight"
	"github.com/MrEthical07/goSession/internal/state"
)

// Manager defines a public type used by goSession APIs.
//
// A Manager owns one client session end to end: the in-memory state
// machine, the persistent credential record, the single-flight refresh
// coordinator, and the observer fan-out. All methods are safe for
// concurrent use.
type Manager struct {
	config     Config
	api        AuthAPI
	store      credstore.Store
	state      *state.Machine
	audit      *auditDispatcher
	metrics    *Metrics
	instanceID string

	refreshFlight flight.Group

	// persistMu serializes Save and Clear on the credential store so a
	// logout can never be overwritten by a slower persist.
	persistMu sync.Mutex

	subMu     sync.Mutex
	subs      map[uint64]chan Snapshot
	nextSubID uint64

	rememberMu sync.Mutex
	remembered string

	closed atomic.Bool
}

/*
====================================
READ SURFACE
====================================
*/

// Status returns the current authentication state.
func (m *Manager) Status() Status {
	return m.state.Status()
}

// Snapshot returns a consistent copy of the current session.
func (m *Manager) Snapshot() Snapshot {
	return m.state.Snapshot()
}

// CurrentUser returns the authenticated user's profile, or nil.
func (m *Manager) CurrentUser() *UserProfile {
	return m.state.Snapshot().User
}

// CurrentToken returns the access token held by the session, if any. A
// caller about to use it should prefer EnsureFreshToken.
func (m *Manager) CurrentToken() string {
	return m.state.Snapshot().AccessToken
}

// IsAuthenticated reports whether a session is established. A refreshing
// session counts as authenticated.
func (m *Manager) IsAuthenticated() bool {
	switch m.state.Status() {
	case StatusAuthenticated, StatusRefreshing:
		return true
	default:
		return false
	}
}

// IsBootstrapping reports whether the startup hydration is in flight.
func (m *Manager) IsBootstrapping() bool {
	return m.state.Snapshot().Bootstrapping
}

// RememberedLogin returns the last successfully logged-in identifier, if
// remembering is enabled. It survives logout.
func (m *Manager) RememberedLogin() string {
	m.rememberMu.Lock()
	defer m.rememberMu.Unlock()
	return m.remembered
}

func (m *Manager) setRememberedLogin(login string) {
	if !m.config.Credentials.RememberLogin || login == "" {
		return
	}
	m.rememberMu.Lock()
	m.remembered = login
	m.rememberMu.Unlock()
}

// MetricsSnapshot returns a point-in-time copy of every instrument.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	return m.metrics.TakeSnapshot()
}

// Metrics exposes the manager's instrument set for exporters.
func (m *Manager) Metrics() *Metrics {
	return m.metrics
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (m *Manager) AuditDropped() uint64 {
	return m.audit.Dropped()
}

/*
====================================
OBSERVERS
====================================
*/

// Subscribe registers an observer channel that receives a Snapshot on
// every state transition. The returned cancel function unregisters the
// observer and closes the channel.
//
// Delivery never blocks a session operation: when a subscriber's buffer
// is full the oldest queued snapshot is dropped so the latest one always
// lands.
func (m *Manager) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, m.config.Notify.BufferSize)

	m.subMu.Lock()
	id := m.nextSubID
	m.nextSubID++
	if m.subs != nil {
		m.subs[id] = ch
	} else {
		// Manager already closed; hand back a closed channel.
		close(ch)
	}
	m.subMu.Unlock()

	cancel := func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		if sub, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// broadcast runs as the state machine's notify callback, with the
// machine lock held. It must never block.
func (m *Manager) broadcast(snap Snapshot) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for _, ch := range m.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

/*
====================================
LIFECYCLE
====================================
*/

// Close shuts the manager down: observers are unregistered, the audit
// queue is drained, and every subsequent operation returns
// ErrManagerClosed. The session state and the persisted record are left
// as they are; Close is not a logout.
func (m *Manager) Close() {
	if !m.closed.CompareAndSwap(false, true) {
		return
	}

	m.subMu.Lock()
	for id, ch := range m.subs {
		delete(m.subs, id)
		close(ch)
	}
	m.subs = nil
	m.subMu.Unlock()

	m.audit.Close()
}

func (m *Manager) isClosed() bool {
	return m.closed.Load()
}

/*
====================================
HELPERS
====================================
*/

// clearStore erases the persisted record under the same lock that gates
// Save, so the clear settles after any write already in flight.
func (m *Manager) clearStore(ctx context.Context) error {
	m.persistMu.Lock()
	defer m.persistMu.Unlock()
	return m.store.Clear(ctx)
}

// holdsToken reports whether the session currently carries the given
// access token, in any live state including the bootstrap adoption gap.
func (m *Manager) holdsToken(accessToken string) bool {
	snap := m.state.Snapshot()
	switch snap.Status {
	case StatusAuthenticating, StatusAuthenticated, StatusRefreshing:
		return snap.AccessToken == accessToken
	default:
		return false
	}
}

func (m *Manager) emitAudit(ctx context.Context, eventType, userID string, success bool, cause error, metadata map[string]string) {
	if m.audit == nil {
		return
	}
	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		ClientID:  m.instanceID,
		UserID:    userID,
		Status:    m.state.Status().String(),
		Success:   success,
		Metadata:  metadata,
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	m.audit.Emit(ctx, event)
}

func (m *Manager) opContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
