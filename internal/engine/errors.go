package engine

import "errors"

// The engine's error taxonomy is a small closed set of sentinels rather
// than ad-hoc errors, so callers on latency-sensitive paths can compare
// with errors.Is and otherwise ignore non-nil returns.
var (
	// ErrInvalid marks an invalid argument: an unknown attribute, an End
	// of an attribute that was never Begun, or (reserved) a buffer that
	// required exact capacity it didn't have.
	ErrInvalid = errors.New("ctxtrace: invalid argument")

	// ErrBusy is reserved for a non-blocking acquisition path. The
	// current engine only ever blocks on its locks, so no operation
	// returns this today.
	ErrBusy = errors.New("ctxtrace: lock busy")

	// ErrNoMemory is declared for the attribute registry's index growth,
	// but no operation returns it: attribute.Store.Create has no error
	// result, and a failed allocation while growing its indices is a Go
	// runtime fatal error. Pool exhaustion is not represented here
	// either: it is fatal (see internal/pool), matching the spec's "abort
	// the process" semantics for the allocator.
	ErrNoMemory = errors.New("ctxtrace: out of memory")
)
