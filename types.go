package goSession

import (
	"context"

	"github.com/MrEthical07/goSession/internal/state"
)

// Status is the authentication state of the session.
type Status = state.Status

const (
	// StatusUnauthenticated: no session; tokens and user are absent.
	StatusUnauthenticated = state.StatusUnauthenticated
	// StatusAuthenticating: a login, registration, or startup bootstrap
	// is in flight.
	StatusAuthenticating = state.StatusAuthenticating
	// StatusAuthenticated: session established; user and tokens present.
	StatusAuthenticated = state.StatusAuthenticated
	// StatusRefreshing: a token rotation is in flight.
	StatusRefreshing = state.StatusRefreshing
	// StatusExpired: the refresh token was rejected upstream; a forced
	// logout follows immediately.
	StatusExpired = state.StatusExpired
)

// UserProfile is the profile record of the authenticated user.
type UserProfile = state.User

// Snapshot is a read-only copy of the session delivered to subscribers
// and returned by [Manager.Snapshot].
type Snapshot = state.Snapshot

// TokenPair is an access/refresh token pair minted by the auth API.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Credentials is the full grant returned by login and registration.
type Credentials struct {
	TokenPair
	User UserProfile
}

// RegisterInput is the profile submitted to [Manager.Register].
type RegisterInput struct {
	Email          string
	Password       string
	DisplayName    string
	OrganizationID string
}

// AuthAPI is the remote auth service collaborator. Implementations talk
// to the real backend; the Manager only interprets their outcomes.
// Failures should be reported as [*APIError] so the Manager can map them
// onto its error taxonomy; any other error is classified as unknown.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*Credentials, error)
	Register(ctx context.Context, input RegisterInput) (*Credentials, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	FetchProfile(ctx context.Context, accessToken string) (*UserProfile, error)
}

// ErrorKind classifies an [APIError].
type ErrorKind uint8

const (
	KindUnknown ErrorKind = iota
	// KindInvalidCredentials: the submitted email/password was rejected.
	KindInvalidCredentials
	// KindAccountExists: registration hit an existing account.
	KindAccountExists
	// KindUnauthorized: the presented token was rejected (401-class).
	KindUnauthorized
	// KindNetwork: the backend was unreachable.
	KindNetwork
	// KindServer: 5xx or malformed response.
	KindServer
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindAccountExists:
		return "account_exists"
	case KindUnauthorized:
		return "unauthorized"
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// APIError is the typed failure an [AuthAPI] implementation returns.
// Retryable marks transient conditions; a non-retryable rejection of a
// refresh token always forces a logout.
type APIError struct {
	Kind      ErrorKind
	Detail    string
	Retryable bool
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return "auth api: " + e.Kind.String()
	}
	return "auth api: " + e.Kind.String() + ": " + e.Detail
}
