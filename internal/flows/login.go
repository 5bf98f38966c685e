package flows

import (
	"context"

	"github.com/MrEthical07/goSession/internal/state"
)

// LoginFailureKind classifies authenticate-flow failures for root-level
// mapping. The same flow backs both login and registration; only the
// injected Validate and Call closures differ.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureValidation
	LoginFailureBusy
	LoginFailureAPI
	LoginFailureInterrupted
)

// LoginResult carries either the settled session material or failure
// metadata. StoreErr is set when authentication succeeded but persisting
// the credential record did not; the session is still valid in memory.
type LoginResult struct {
	Failure      LoginFailureKind
	Err          error
	StoreErr     error
	AccessToken  string
	RefreshToken string
	User         *state.User
}

// LoginDeps captures authenticate flow dependencies.
type LoginDeps struct {
	Validate func() error
	Begin    func() error
	Call     func(context.Context) (Grant, error)
	Persist  func(context.Context, Grant) error
	Complete func(Grant) error
	Fail     func()
}

// RunLogin executes a login or registration attempt. Local validation
// happens before any state transition or network call; a persistence
// failure after upstream success is reported but does not fail the login.
func RunLogin(ctx context.Context, deps LoginDeps) LoginResult {
	if deps.Validate != nil {
		if err := deps.Validate(); err != nil {
			return LoginResult{Failure: LoginFailureValidation, Err: err}
		}
	}

	if err := deps.Begin(); err != nil {
		return LoginResult{Failure: LoginFailureBusy, Err: err}
	}

	grant, err := deps.Call(ctx)
	if err != nil {
		deps.Fail()
		return LoginResult{Failure: LoginFailureAPI, Err: err}
	}

	// Settle in memory before persisting: if a logout raced the grant it
	// is dropped entirely and no record is left behind.
	if err := deps.Complete(grant); err != nil {
		return LoginResult{Failure: LoginFailureInterrupted, Err: err}
	}

	var storeErr error
	if deps.Persist != nil {
		storeErr = deps.Persist(ctx, grant)
	}

	return LoginResult{
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		User:         grant.User,
		StoreErr:     storeErr,
	}
}
