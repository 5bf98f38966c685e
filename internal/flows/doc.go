// Package flows contains the session lifecycle flows (authenticate,
// refresh, bootstrap, logout) expressed over dependency structs. The root
// package injects state transitions, API calls, and persistence as
// closures and maps the returned failure kinds to its public error
// taxonomy, metrics, and audit events. Keeping the flows free of root
// dependencies makes every branch unit-testable in isolation.
package flows
