/*
Package play
File: errors.go
Description:
    Sentinel errors returned by session intents. The api package maps each
    one onto an HTTP status.
*/

package play

import "errors"

// Intent failures. Callers match with errors.Is; the api package maps each
// to an HTTP status.
var (
	ErrBadInput     = errors.New("invalid input")
	ErrUnknown      = errors.New("unknown entity")
	ErrInsufficient = errors.New("insufficient resources")
	ErrConflict     = errors.New("conflicting state")
	ErrNotReady     = errors.New("not ready yet")
	ErrLocked       = errors.New("locked")

	// ErrRejected means the engine refused an action the session let through.
	ErrRejected = errors.New("rejected by engine")
)
