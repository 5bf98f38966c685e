package goSession

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/internal/state"
)

// MarkTokenRejected records that a consumer got an auth rejection for the
// given access token, so the next EnsureFreshToken rotates instead of
// returning it again. Reports about tokens the session no longer holds
// are ignored and return false.
func (m *Manager) MarkTokenRejected(token string) bool {
	if m.isClosed() {
		return false
	}
	return m.state.MarkTokenRejected(token)
}

// EnsureFreshToken returns an access token believed to be valid, rotating
// the pair first when the current one is stale or locally expired.
//
// Concurrent callers coalesce into one upstream refresh: the first caller
// leads, later arrivals wait for the same result. The refresh itself runs
// detached from any single caller's context and is bounded by the
// configured refresh timeout; a caller whose own ctx ends while waiting
// gets ctx.Err() while the refresh continues for the others.
//
// ErrRefreshRejected means the refresh token was revoked upstream; the
// session has already been logged out and the record cleared.
func (m *Manager) EnsureFreshToken(ctx context.Context) (string, error) {
	if m.isClosed() {
		return "", ErrManagerClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}

	snap := m.state.Snapshot()
	switch snap.Status {
	case StatusAuthenticated:
		if !m.state.TokenStale() && !m.tokenNeedsRefresh(snap.AccessToken) {
			return snap.AccessToken, nil
		}
	case StatusRefreshing:
		// Join the in-flight rotation below.
	case StatusAuthenticating:
		return "", ErrSessionBusy
	default:
		return "", ErrNotAuthenticated
	}

	res, started := m.refreshFlight.Do(ctx, m.config.Timeouts.Refresh, m.runRefresh)
	if !started {
		m.metrics.Inc(MetricRefreshCoalesced)
	}
	return res.Token, res.Err
}

func (m *Manager) tokenNeedsRefresh(accessToken string) bool {
	if !m.config.Token.LocalExpiryCheck {
		return false
	}
	return tokenExpired(accessToken, m.config.Token.ExpiryLeeway, time.Now())
}

// runRefresh executes one token rotation as the flight leader.
func (m *Manager) runRefresh(ctx context.Context) (string, error) {
	// The previous flight may have settled between this caller's snapshot
	// and its arrival at the group. A token that is already fresh must not
	// trigger a second rotation.
	snap := m.state.Snapshot()
	if snap.Status == StatusAuthenticated && !m.state.TokenStale() && !m.tokenNeedsRefresh(snap.AccessToken) {
		return snap.AccessToken, nil
	}

	start := time.Now()
	res := flows.RunRefresh(ctx, flows.RefreshDeps{
		Begin:        m.state.BeginRefresh,
		RefreshToken: m.state.RefreshToken,
		Call: func(ctx context.Context, refreshToken string) (flows.Grant, error) {
			pair, err := m.api.Refresh(ctx, refreshToken)
			if err != nil {
				return flows.Grant{}, err
			}
			return flows.Grant{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
		},
		Retryable:     retryableAPIError,
		Persist:       m.persistGrant(m.RememberedLogin()),
		Complete:      m.state.CompleteRefresh,
		FailRetryable: m.state.FailRefresh,
		ForceLogout:   m.forceLogout,
	})
	m.metrics.Observe(MetricRefreshLatency, time.Since(start))

	metadata := refreshMetadata(ctx)

	switch res.Failure {
	case flows.RefreshFailureNone:
		m.metrics.Inc(MetricRefreshSuccess)
		if res.StoreErr != nil {
			m.metrics.Inc(MetricStoreFailure)
		}
		m.emitAudit(ctx, "refresh", m.currentUserID(), true, res.StoreErr, metadata)
		return res.AccessToken, nil

	case flows.RefreshFailureNotAuthenticated:
		if errors.Is(res.Err, state.ErrBusy) {
			m.metrics.Inc(MetricSessionBusy)
			return "", fmt.Errorf("%w: %v", ErrSessionBusy, res.Err)
		}
		return "", fmt.Errorf("%w: %v", ErrNotAuthenticated, res.Err)

	case flows.RefreshFailureRejected:
		m.metrics.Inc(MetricRefreshRejected)
		m.emitAudit(ctx, "refresh", "", false, res.Err, metadata)
		if res.Err != nil {
			return "", fmt.Errorf("%w: %v", ErrRefreshRejected, res.Err)
		}
		return "", ErrRefreshRejected

	case flows.RefreshFailureInterrupted:
		// Logout raced the rotation; the rotated pair was discarded.
		m.emitAudit(ctx, "refresh", "", false, res.Err, metadata)
		return "", fmt.Errorf("%w: refresh interrupted by logout", ErrNotAuthenticated)

	default:
		m.metrics.Inc(MetricRefreshFailure)
		err := classifyAPIError(res.Err)
		m.emitAudit(ctx, "refresh", m.currentUserID(), false, err, metadata)
		return "", err
	}
}

// forceLogout tears the session down after a non-retryable refresh
// rejection. Observers see the expired edge before the reset.
func (m *Manager) forceLogout(ctx context.Context) {
	m.state.Expire()
	m.state.Reset()
	if err := m.clearStore(ctx); err != nil {
		m.metrics.Inc(MetricStoreFailure)
	}
}

func (m *Manager) currentUserID() string {
	if user := m.state.Snapshot().User; user != nil {
		return user.ID
	}
	return ""
}

func refreshMetadata(ctx context.Context) map[string]string {
	if reason := refreshReasonFromContext(ctx); reason != "" {
		return map[string]string{"reason": reason}
	}
	return nil
}
