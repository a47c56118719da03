// Package rwlock implements SigsafeRWLock: a reader/writer lock whose
// read path tolerates reentry from the goroutine that already holds it.
//
// The design is adapted from the atomic, lock-free state-packing
// technique used by intention locks: rather than a single mutex guarding
// a critical section, lock state lives in a handful of atomics that every
// caller reads and updates with compare-and-swap loops, so a reader that
// already holds the lock can recognize its own reentry without blocking
// behind a writer that is waiting for that very reader to drain.
package rwlock

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Lock is a reader/writer lock safe to reacquire for reading from a
// goroutine that already holds it — the scenario the engine relies on
// when a sampling callback running "as if" from a signal handler wants to
// read the context tree while the interrupted goroutine is itself mid
// read. Real POSIX signal handlers interrupt the holding thread in place;
// Go has no such model, so reentry here is keyed on goroutine identity
// instead of thread identity, which gives the same safety property for
// the one supported recursion this engine exposes (see Engine.Get and
// Context.GetContext).
//
// Lock has no timeout variants and writers are never starved: once a
// writer announces intent, new readers wait behind it, so the readers
// present at that moment are the last to drain before the writer runs.
type Lock struct {
	readers       atomic.Int64
	writerActive  atomic.Bool
	writerWaiting atomic.Bool

	depth sync.Map // goroutine id (int64) -> *int64 read-lock depth
}

// New returns a ready-to-use Lock.
func New() *Lock {
	return &Lock{}
}

// RLock acquires the lock for reading. If the calling goroutine already
// holds a read lock, RLock returns immediately without re-registering as
// a reader or waiting on a pending writer — this is the reentry guarantee
// signal-path callers depend on.
func (l *Lock) RLock() {
	d := l.enterDepth()
	if d > 1 {
		return
	}

	for {
		if l.writerActive.Load() || l.writerWaiting.Load() {
			runtime.Gosched()
			continue
		}
		l.readers.Add(1)
		if l.writerActive.Load() {
			// A writer snuck in between our checks; back off and retry.
			l.readers.Add(-1)
			runtime.Gosched()
			continue
		}
		return
	}
}

// RUnlock releases one read acquisition taken by RLock on this goroutine.
func (l *Lock) RUnlock() {
	if l.leaveDepth() > 0 {
		return
	}
	l.readers.Add(-1)
}

// Lock acquires the lock for writing, waiting for any active readers to
// drain and for any other writer to finish first.
func (l *Lock) Lock() {
	// Claim writerActive before waiting for readers to drain: RLock
	// registers as a reader before it re-checks writerActive, so once the
	// claim succeeds no new reader can get past that check.
	for {
		l.writerWaiting.Store(true)
		if l.writerActive.CompareAndSwap(false, true) {
			break
		}
		runtime.Gosched()
	}
	for l.readers.Load() != 0 {
		runtime.Gosched()
	}
	l.writerWaiting.Store(false)
}

// Unlock releases the write lock.
func (l *Lock) Unlock() {
	l.writerActive.Store(false)
}

// enterDepth increments and returns this goroutine's read-lock depth.
func (l *Lock) enterDepth() int64 {
	gid := goroutineID()
	v, _ := l.depth.LoadOrStore(gid, new(int64))
	ptr := v.(*int64)
	return atomic.AddInt64(ptr, 1)
}

// leaveDepth decrements this goroutine's read-lock depth and returns the
// depth remaining after the decrement. The map entry is removed once the
// depth reaches zero so the depth table does not grow with every
// goroutine that has ever taken a read lock.
func (l *Lock) leaveDepth() int64 {
	gid := goroutineID()
	v, ok := l.depth.Load(gid)
	if !ok {
		return 0
	}
	ptr := v.(*int64)
	remaining := atomic.AddInt64(ptr, -1)
	if remaining <= 0 {
		l.depth.Delete(gid)
	}
	return remaining
}
