package goSession

import (
	"context"
	"fmt"

	"github.com/MrEthical07/goSession/credstore"
	"github.com/MrEthical07/goSession/internal/flows"
)

// Login authenticates with an email and password. On success the session
// becomes authenticated and the credential record is persisted; a store
// failure after upstream success does not fail the login.
//
// A login while another login, registration, bootstrap, or refresh is in
// flight returns ErrSessionBusy. Validation failures are rejected locally
// with ErrInvalidInput before any network call.
func (m *Manager) Login(ctx context.Context, email, password string) (*UserProfile, error) {
	if m.isClosed() {
		return nil, ErrManagerClosed
	}

	ctx, cancel := m.opContext(ctx, m.config.Timeouts.Login)
	defer cancel()

	res := flows.RunLogin(ctx, flows.LoginDeps{
		Validate: func() error { return validateLoginInput(email, password) },
		Begin:    func() error { return m.state.BeginAuthenticating(false) },
		Call: func(ctx context.Context) (flows.Grant, error) {
			creds, err := m.api.Login(ctx, email, password)
			if err != nil {
				return flows.Grant{}, err
			}
			return grantFromCredentials(creds), nil
		},
		Persist:  m.persistGrant(email),
		Complete: m.completeAuthentication,
		Fail:     m.state.FailAuthentication,
	})

	return m.settleAuthenticate(ctx, "login", email, res,
		MetricLoginSuccess, MetricLoginFailure)
}

// Register creates an account and, on success, establishes the session
// exactly as a login would.
func (m *Manager) Register(ctx context.Context, input RegisterInput) (*UserProfile, error) {
	if m.isClosed() {
		return nil, ErrManagerClosed
	}

	ctx, cancel := m.opContext(ctx, m.config.Timeouts.Login)
	defer cancel()

	res := flows.RunLogin(ctx, flows.LoginDeps{
		Validate: func() error { return validateRegisterInput(input) },
		Begin:    func() error { return m.state.BeginAuthenticating(false) },
		Call: func(ctx context.Context) (flows.Grant, error) {
			creds, err := m.api.Register(ctx, input)
			if err != nil {
				return flows.Grant{}, err
			}
			return grantFromCredentials(creds), nil
		},
		Persist:  m.persistGrant(input.Email),
		Complete: m.completeAuthentication,
		Fail:     m.state.FailAuthentication,
	})

	return m.settleAuthenticate(ctx, "register", input.Email, res,
		MetricRegisterSuccess, MetricRegisterFailure)
}

func grantFromCredentials(creds *Credentials) flows.Grant {
	user := creds.User
	return flows.Grant{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		User:         &user,
	}
}

// persistGrant returns the flow persistence hook. The write is gated:
// under persistMu the record is saved only while the session still holds
// the settled pair. Clear takes the same lock, so a logout landing
// between settle and save leaves the store empty instead of being
// overwritten by the late write.
func (m *Manager) persistGrant(login string) func(context.Context, flows.Grant) error {
	return func(ctx context.Context, grant flows.Grant) error {
		m.persistMu.Lock()
		defer m.persistMu.Unlock()

		if !m.holdsToken(grant.AccessToken) {
			// The session moved on; whoever moved it owns the record now.
			return nil
		}

		rec := credstore.Record{
			AccessToken:  grant.AccessToken,
			RefreshToken: grant.RefreshToken,
		}
		if m.config.Credentials.RememberLogin {
			rec.RememberedLogin = login
		}
		return m.store.Save(ctx, rec)
	}
}

func (m *Manager) completeAuthentication(grant flows.Grant) error {
	return m.state.CompleteAuthentication(grant.AccessToken, grant.RefreshToken, *grant.User)
}

func (m *Manager) settleAuthenticate(ctx context.Context, op, login string, res flows.LoginResult, successID, failureID MetricID) (*UserProfile, error) {
	switch res.Failure {
	case flows.LoginFailureNone:
		m.metrics.Inc(successID)
		if res.StoreErr != nil {
			m.metrics.Inc(MetricStoreFailure)
		}
		m.setRememberedLogin(login)
		m.emitAudit(ctx, op, res.User.ID, true, res.StoreErr, nil)
		user := *res.User
		return &user, nil

	case flows.LoginFailureValidation:
		m.metrics.Inc(MetricValidationRejected)
		return nil, res.Err

	case flows.LoginFailureBusy:
		m.metrics.Inc(MetricSessionBusy)
		return nil, fmt.Errorf("%w: %v", ErrSessionBusy, res.Err)

	case flows.LoginFailureInterrupted:
		// A logout raced the settled authentication; the grant was dropped.
		m.metrics.Inc(failureID)
		m.emitAudit(ctx, op, "", false, res.Err, nil)
		return nil, fmt.Errorf("%w: %s interrupted by logout", ErrNotAuthenticated, op)

	default:
		m.metrics.Inc(failureID)
		err := classifyAPIError(res.Err)
		m.emitAudit(ctx, op, "", false, err, nil)
		return nil, err
	}
}
