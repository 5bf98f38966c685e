package flows

import (
	"context"

	"github.com/MrEthical07/goSession/internal/state"
)

// BootstrapFailureKind classifies startup hydration outcomes.
type BootstrapFailureKind int

const (
	BootstrapFailureNone BootstrapFailureKind = iota
	// BootstrapFailureNoCredentials: nothing persisted; the session never
	// left unauthenticated.
	BootstrapFailureNoCredentials
	// BootstrapFailureCorrupt: a partial record was found and cleared.
	BootstrapFailureCorrupt
	// BootstrapFailureRejected: the persisted credentials were rejected
	// upstream; record cleared, session unauthenticated.
	BootstrapFailureRejected
	// BootstrapFailureUnavailable: transient store/network trouble. The
	// persisted record is kept so a later restart can try again.
	BootstrapFailureUnavailable
)

// BootstrapResult carries the hydrated session material or failure
// metadata.
type BootstrapResult struct {
	Failure     BootstrapFailureKind
	Err         error
	StoreErr    error
	AccessToken string
	User        *state.User
}

// BootstrapDeps captures startup hydration dependencies.
type BootstrapDeps struct {
	Load            func(context.Context) (Grant, error)
	IsNoCredentials func(error) bool
	IsCorrupt       func(error) bool
	Begin           func() error
	Adopt           func(accessToken, refreshToken string) error
	FetchProfile    func(context.Context, string) (*state.User, error)
	IsAuthFailure   func(error) bool
	Refresh         func(context.Context, string) (Grant, error)
	Retryable       func(error) bool
	Persist         func(context.Context, Grant) error
	Complete        func(Grant) error
	Fail            func()
	Clear           func(context.Context) error
}

// RunBootstrap hydrates the session from the persisted credential record.
//
// The session enters authenticating before the profile fetch so observers
// render a loading state instead of flashing logged-out. A profile fetch
// rejected for auth reasons gets exactly one refresh attempt with the
// persisted refresh token; if that is rejected too, the record is cleared
// and the session ends unauthenticated rather than stuck authenticating.
func RunBootstrap(ctx context.Context, deps BootstrapDeps) BootstrapResult {
	stored, err := deps.Load(ctx)
	if err != nil {
		switch {
		case deps.IsNoCredentials(err):
			return BootstrapResult{Failure: BootstrapFailureNoCredentials}
		case deps.IsCorrupt(err):
			return BootstrapResult{Failure: BootstrapFailureCorrupt, Err: err}
		default:
			return BootstrapResult{Failure: BootstrapFailureUnavailable, Err: err}
		}
	}

	if err := deps.Begin(); err != nil {
		return BootstrapResult{Failure: BootstrapFailureUnavailable, Err: err}
	}
	if err := deps.Adopt(stored.AccessToken, stored.RefreshToken); err != nil {
		deps.Fail()
		return BootstrapResult{Failure: BootstrapFailureUnavailable, Err: err}
	}

	user, err := deps.FetchProfile(ctx, stored.AccessToken)
	if err == nil {
		return settleBootstrap(deps, stored, user, nil)
	}

	if !deps.IsAuthFailure(err) {
		// Transient failure: keep the record, surface a loading-failed
		// state, and let the next start retry hydration.
		deps.Fail()
		return BootstrapResult{Failure: BootstrapFailureUnavailable, Err: err}
	}

	// Stale access token: one refresh attempt with the persisted refresh
	// token, then a second and final profile fetch.
	grant, err := deps.Refresh(ctx, stored.RefreshToken)
	if err != nil {
		if deps.Retryable(err) {
			deps.Fail()
			return BootstrapResult{Failure: BootstrapFailureUnavailable, Err: err}
		}
		return rejectBootstrap(ctx, deps, err)
	}

	// Adopt before persisting so the persistence gate sees the session
	// holding the rotated pair; a logout in between skips the write.
	if err := deps.Adopt(grant.AccessToken, grant.RefreshToken); err != nil {
		deps.Fail()
		return BootstrapResult{Failure: BootstrapFailureUnavailable, Err: err}
	}
	var storeErr error
	if deps.Persist != nil {
		storeErr = deps.Persist(ctx, grant)
	}

	user, err = deps.FetchProfile(ctx, grant.AccessToken)
	if err != nil {
		if deps.IsAuthFailure(err) {
			res := rejectBootstrap(ctx, deps, err)
			res.StoreErr = storeErr
			return res
		}
		deps.Fail()
		return BootstrapResult{Failure: BootstrapFailureUnavailable, Err: err, StoreErr: storeErr}
	}

	res := settleBootstrap(deps, grant, user, nil)
	if res.StoreErr == nil {
		res.StoreErr = storeErr
	}
	return res
}

func settleBootstrap(deps BootstrapDeps, grant Grant, user *state.User, storeErr error) BootstrapResult {
	grant.User = user
	if err := deps.Complete(grant); err != nil {
		return BootstrapResult{Failure: BootstrapFailureUnavailable, Err: err, StoreErr: storeErr}
	}
	return BootstrapResult{
		AccessToken: grant.AccessToken,
		User:        user,
		StoreErr:    storeErr,
	}
}

func rejectBootstrap(ctx context.Context, deps BootstrapDeps, cause error) BootstrapResult {
	clearErr := deps.Clear(ctx)
	deps.Fail()
	return BootstrapResult{
		Failure:  BootstrapFailureRejected,
		Err:      cause,
		StoreErr: clearErr,
	}
}
