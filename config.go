package goSession

import (
	"errors"
	"time"
)

// Config defines a public type used by goSession APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Credentials CredentialsConfig
	Token       TokenConfig
	Timeouts    TimeoutConfig
	Notify      NotifyConfig
	Audit       AuditConfig
	Metrics     MetricsConfig
}

/*
====================================
CREDENTIALS CONFIG
====================================
*/

// CredentialsConfig controls how the persistent credential record is kept.
type CredentialsConfig struct {
	// Namespace prefixes the store key. Empty falls back to "gosession".
	Namespace string
	// RememberLogin keeps the last successful login identifier across
	// logout so UIs can prefill the email field.
	RememberLogin bool
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig controls local access token inspection.
type TokenConfig struct {
	// LocalExpiryCheck inspects the access token's exp claim without
	// verifying the signature, so an obviously dead token triggers a
	// refresh before the first doomed API call. Opaque tokens are left
	// alone.
	LocalExpiryCheck bool
	// ExpiryLeeway treats a token expiring within this window as already
	// expired.
	ExpiryLeeway time.Duration
}

/*
====================================
TIMEOUT CONFIG
====================================
*/

// TimeoutConfig bounds the manager's network operations.
type TimeoutConfig struct {
	Login     time.Duration
	Refresh   time.Duration
	Bootstrap time.Duration
}

// NotifyConfig controls subscriber channel delivery.
type NotifyConfig struct {
	// BufferSize is the per-subscriber channel capacity. A subscriber
	// that falls behind loses intermediate snapshots, never the latest.
	BufferSize int
}

// AuditConfig defines a public type used by goSession APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by goSession APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the configuration the Builder starts from.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Credentials: CredentialsConfig{
			Namespace:     "gosession",
			RememberLogin: true,
		},
		Token: TokenConfig{
			LocalExpiryCheck: true,
			ExpiryLeeway:     10 * time.Second,
		},
		Timeouts: TimeoutConfig{
			Login:     15 * time.Second,
			Refresh:   10 * time.Second,
			Bootstrap: 15 * time.Second,
		},
		Notify: NotifyConfig{
			BufferSize: 16,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	if c.Token.ExpiryLeeway < 0 {
		return errors.New("Token ExpiryLeeway must be >= 0")
	}
	if c.Token.LocalExpiryCheck && c.Token.ExpiryLeeway > time.Hour {
		return errors.New("Token ExpiryLeeway must be <= 1h")
	}

	if c.Timeouts.Login < 0 {
		return errors.New("Timeouts Login must be >= 0")
	}
	if c.Timeouts.Refresh < 0 {
		return errors.New("Timeouts Refresh must be >= 0")
	}
	if c.Timeouts.Bootstrap < 0 {
		return errors.New("Timeouts Bootstrap must be >= 0")
	}

	if c.Notify.BufferSize <= 0 {
		return errors.New("Notify BufferSize must be > 0")
	}

	if c.Audit.Enabled {
		if c.Audit.BufferSize <= 0 {
			return errors.New("Audit BufferSize must be > 0 when audit is enabled")
		}
	}

	return nil
}
