// Package goSession provides a client-side session and credential lifecycle
// manager: login and registration, persistent credential storage, startup
// hydration, and single-flight access token refresh.
//
// The package is designed for concurrent client workloads: Manager methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Manager], [Builder], [Config],
// and value types (Snapshot, UserProfile, MetricsSnapshot, etc.). All internal
// coordination — state transitions, flow orchestration, refresh coalescing —
// lives under internal/ and is never exported. Credential persistence lives in
// the credstore sub-package so hosts can supply their own [credstore.Store].
//
// # What this package must NOT do
//
//   - Hold passwords beyond the duration of a Login or Register call.
//   - Verify token signatures; the backend is the sole authority and the local
//     expiry check reads only the unverified exp claim.
//   - Import any sub-package that re-imports goSession (no import cycles).
//
// # Concurrency contract
//
// EnsureFreshToken is the hot path. When the session is authenticated and the
// token is fresh it completes with one snapshot and no network round-trip.
// Concurrent refresh demands coalesce into exactly one upstream call, with
// every waiter receiving the same settled result.
package goSession
