package flows

import "context"

// RefreshFailureKind classifies refresh flow failures for root-level
// mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureNotAuthenticated
	RefreshFailureRejected
	RefreshFailureRetryable
	RefreshFailureInterrupted
)

// RefreshResult carries either the rotated token pair or failure metadata.
type RefreshResult struct {
	Failure      RefreshFailureKind
	Err          error
	StoreErr     error
	AccessToken  string
	RefreshToken string
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	Begin         func() error
	RefreshToken  func() string
	Call          func(context.Context, string) (Grant, error)
	Retryable     func(error) bool
	Persist       func(context.Context, Grant) error
	Complete      func(accessToken, refreshToken string) error
	FailRetryable func() error
	ForceLogout   func(context.Context)
}

// RunRefresh executes one token rotation. The caller (the single-flight
// coordinator) guarantees at most one RunRefresh per session at a time.
//
// A non-retryable upstream failure forces a full logout before returning:
// a rejected refresh token means server-side revocation and must never be
// retried. Retryable failures return the session to authenticated with
// the stale mark intact so a later attempt can try again.
func RunRefresh(ctx context.Context, deps RefreshDeps) RefreshResult {
	if err := deps.Begin(); err != nil {
		return RefreshResult{Failure: RefreshFailureNotAuthenticated, Err: err}
	}

	refreshToken := deps.RefreshToken()
	if refreshToken == "" {
		deps.ForceLogout(ctx)
		return RefreshResult{Failure: RefreshFailureRejected}
	}

	grant, err := deps.Call(ctx, refreshToken)
	if err != nil {
		if deps.Retryable(err) {
			_ = deps.FailRetryable()
			return RefreshResult{Failure: RefreshFailureRetryable, Err: err}
		}
		deps.ForceLogout(ctx)
		return RefreshResult{Failure: RefreshFailureRejected, Err: err}
	}

	// Settle in memory before persisting: if a logout raced the rotation
	// the result is discarded entirely and no record is left behind.
	if err := deps.Complete(grant.AccessToken, grant.RefreshToken); err != nil {
		return RefreshResult{Failure: RefreshFailureInterrupted, Err: err}
	}

	var storeErr error
	if deps.Persist != nil {
		storeErr = deps.Persist(ctx, grant)
	}

	return RefreshResult{
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		StoreErr:     storeErr,
	}
}
