// Package metrics implements the lock-free in-process metrics system used
// by the session manager. Exporters under metrics/export render snapshots
// taken here; nothing in this package performs I/O.
package metrics
