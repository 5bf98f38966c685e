// Package flight provides the single-flight primitive behind the refresh
// coordinator: any number of concurrent callers demanding the same
// operation are served by exactly one execution, and all of them receive
// its outcome.
package flight
