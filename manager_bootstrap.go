package goSession

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goSession/credstore"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/internal/state"
)

// Init hydrates the session from the persisted credential record. Call it
// once at startup, before serving UI that depends on auth state.
//
// Expected outcomes return nil: no persisted record, a corrupt record
// (cleared), and persisted credentials the backend rejected (cleared,
// session unauthenticated). Init returns an error only when it could not
// find out, for transient store or network trouble, in which case the
// record is kept for the next start.
func (m *Manager) Init(ctx context.Context) error {
	if m.isClosed() {
		return ErrManagerClosed
	}

	ctx, cancel := m.opContext(ctx, m.config.Timeouts.Bootstrap)
	defer cancel()

	res := flows.RunBootstrap(ctx, flows.BootstrapDeps{
		Load: func(ctx context.Context) (flows.Grant, error) {
			rec, err := m.store.Load(ctx)
			// The remembered login rides along even when no tokens do.
			m.setRememberedLogin(rec.RememberedLogin)
			return flows.Grant{AccessToken: rec.AccessToken, RefreshToken: rec.RefreshToken}, err
		},
		IsNoCredentials: func(err error) bool { return errors.Is(err, credstore.ErrNoCredentials) },
		IsCorrupt:       func(err error) bool { return errors.Is(err, credstore.ErrCorruptRecord) },
		Begin:           func() error { return m.state.BeginAuthenticating(true) },
		Adopt:           m.state.AdoptCredentials,
		FetchProfile:    m.api.FetchProfile,
		IsAuthFailure:   authFailure,
		Refresh: func(ctx context.Context, refreshToken string) (flows.Grant, error) {
			pair, err := m.api.Refresh(ctx, refreshToken)
			if err != nil {
				return flows.Grant{}, err
			}
			return flows.Grant{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
		},
		Retryable: retryableAPIError,
		Persist:   m.persistGrant(m.RememberedLogin()),
		Complete:  m.completeAuthentication,
		Fail:      m.state.FailAuthentication,
		Clear:     m.clearStore,
	})

	switch res.Failure {
	case flows.BootstrapFailureNone:
		m.metrics.Inc(MetricBootstrapSuccess)
		if res.StoreErr != nil {
			m.metrics.Inc(MetricStoreFailure)
		}
		m.emitAudit(ctx, "bootstrap", res.User.ID, true, res.StoreErr, nil)
		return nil

	case flows.BootstrapFailureNoCredentials:
		return nil

	case flows.BootstrapFailureCorrupt:
		m.metrics.Inc(MetricBootstrapFailure)
		m.emitAudit(ctx, "bootstrap", "", false, res.Err, map[string]string{"outcome": "corrupt_record"})
		return nil

	case flows.BootstrapFailureRejected:
		m.metrics.Inc(MetricBootstrapFailure)
		if res.StoreErr != nil {
			m.metrics.Inc(MetricStoreFailure)
		}
		m.emitAudit(ctx, "bootstrap", "", false, res.Err, map[string]string{"outcome": "rejected"})
		return nil

	default:
		m.metrics.Inc(MetricBootstrapFailure)
		err := classifyBootstrapError(res.Err)
		m.emitAudit(ctx, "bootstrap", "", false, err, nil)
		return err
	}
}

func classifyBootstrapError(err error) error {
	switch {
	case err == nil:
		return ErrUnknown
	case errors.Is(err, credstore.ErrStoreUnavailable):
		return fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
	case errors.Is(err, state.ErrBusy):
		return fmt.Errorf("%w: %v", ErrSessionBusy, err)
	default:
		return classifyAPIError(err)
	}
}
