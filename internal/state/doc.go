// Package state implements the session state machine.
//
// The Machine is the exclusive owner of the mutable Session record
// (status, token pair, user profile). Every other component — the refresh
// coordinator, the credential stores, the public Manager surface — goes
// through its transition methods and observes the session only via
// immutable Snapshot copies.
package state
