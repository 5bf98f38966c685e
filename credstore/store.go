package credstore

import (
	"context"
	"errors"
)

// ErrNoCredentials is returned by Load when no token pair is persisted.
var ErrNoCredentials = errors.New("no stored credentials")

// ErrStoreUnavailable wraps backend failures (redis down, disk full).
var ErrStoreUnavailable = errors.New("credential store unavailable")

// ErrCorruptRecord is returned when a partial record was found. The store
// clears the remnant before returning, so a corrupt record is observed at
// most once.
var ErrCorruptRecord = errors.New("corrupt credential record")

// Persisted field keys. Every backend stores the record under these names
// so records survive a backend swap.
const (
	FieldAccessToken     = "access_token"
	FieldRefreshToken    = "refresh_token"
	FieldRememberedLogin = "remembered_login"
)

// Record is the persisted credential record: the token pair written on
// every successful login, registration, and refresh, plus the optional
// remembered login identifier. The token pair is erased on logout and on
// non-retryable refresh failure; the remembered login survives both.
type Record struct {
	AccessToken     string
	RefreshToken    string
	RememberedLogin string
}

// HasTokens reports whether the record carries a complete token pair.
func (r Record) HasTokens() bool {
	return r.AccessToken != "" && r.RefreshToken != ""
}

func (r Record) partial() bool {
	return (r.AccessToken == "") != (r.RefreshToken == "")
}

// Store persists the credential record. A Save must be atomic with
// respect to the token pair: a reader never observes an access token from
// one save paired with a refresh token from another. Load returns
// ErrNoCredentials when no pair is stored; the returned Record still
// carries the remembered login in that case. Clear erases the token pair
// but keeps the remembered login.
type Store interface {
	Save(ctx context.Context, rec Record) error
	Load(ctx context.Context) (Record, error)
	Clear(ctx context.Context) error
}
