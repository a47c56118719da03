package engine

import (
	"sync"
	"sync/atomic"
)

// singleton holds the process-wide Engine instance, published by
// Instance's one-shot initializer. atomic.Pointer gives TryInstance a
// single relaxed atomic load with no mutex involved — the Go-native
// equivalent of the spec's sig_atomic_t-gated one-shot construction:
// there is no portable way to express "safe to call from a signal
// handler" in Go the way a sig_atomic_t flag does in C, since Go signal
// delivery runs on its own goroutine rather than interrupting the
// application goroutine in place, but the same contract — a lock-free
// read that never blocks and a one-time, mutex-guarded write — holds.
var singleton atomic.Pointer[Engine]

// singletonInit serializes the one-time construction race in Instance.
// sync.Once is deliberately not used here: Once.Do holds an internal
// mutex around every call until the first Do completes, which would
// make even the "already initialized" fast path take a lock; a plain
// mutex guarding only the slow path, checked against the same atomic
// pointer TryInstance reads, keeps the fast path lock-free.
var singletonInit sync.Mutex

// Instance returns the process-wide Engine, constructing it on first
// call under a one-shot mutex. Subsequent calls are a lock-free atomic
// read.
func Instance() *Engine {
	if e := singleton.Load(); e != nil {
		return e
	}

	singletonInit.Lock()
	defer singletonInit.Unlock()

	if e := singleton.Load(); e != nil {
		return e
	}
	e := New(Options{})
	singleton.Store(e)
	return e
}

// TryInstance returns the process-wide Engine if it has already been
// constructed, or nil otherwise. It performs a single atomic read and
// never blocks, making it the only Instance accessor safe to call from
// the engine's signal-path callers (see internal/sigtest).
func TryInstance() *Engine {
	return singleton.Load()
}

// resetSingletonForTest clears the singleton so tests can exercise
// Instance's construction path in isolation. It must only be called from
// tests in this module.
func resetSingletonForTest() {
	singletonInit.Lock()
	defer singletonInit.Unlock()
	singleton.Store(nil)
}
