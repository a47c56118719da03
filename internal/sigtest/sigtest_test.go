package sigtest_test

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kolkov/ctxtrace/internal/attribute"
	"github.com/kolkov/ctxtrace/internal/engine"
	"github.com/kolkov/ctxtrace/internal/sigtest"
)

// TestGetIsSafeUnderSignalPressure runs engine.Get and engine.GetContext
// from a real SIGUSR1 handler goroutine while a second goroutine
// continuously mutates the same environment's active path with
// Begin/End. The node tree's lock is the only thing standing between the
// two: if it ever let a writer and a reader interleave unsafely, this
// would show up as a panic (index out of range, nil dereference on a
// half-linked node) rather than a stale-but-consistent read.
func TestGetIsSafeUnderSignalPressure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("SIGUSR1 is not available on windows")
	}
	if testing.Short() {
		t.Skip("signal self-delivery is slow under -short")
	}

	e := engine.New(engine.Options{})
	fn := e.CreateAttribute("function", attribute.TypeString, attribute.PropDefault)
	const env = 0

	require.NoError(t, e.Begin(env, fn, []byte("main")))

	stopWriter := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		i := 0
		for {
			select {
			case <-stopWriter:
				return
			default:
				require.NoError(t, e.Begin(env, fn, []byte{byte(i)}))
				require.NoError(t, e.End(env, fn))
				i++
			}
		}
	}()

	buf := make([]uint64, 64)
	p := sigtest.Start(func() {
		_ = e.GetContext(env, buf)
		_ = e.Get(0)
	})

	time.Sleep(200 * time.Millisecond)

	close(stopWriter)
	<-writerDone
	p.Stop()

	require.Greater(t, p.Received(), int64(0), "no SIGUSR1 delivery was observed")
}

// TestTryInstanceNeverBlocksDuringConstruction exercises TryInstance from a
// signal handler while Instance is constructing the process singleton on
// another goroutine: TryInstance must return promptly (nil or the
// constructed Engine) rather than ever waiting on singletonInit's mutex.
func TestTryInstanceNeverBlocksDuringConstruction(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("SIGUSR1 is not available on windows")
	}
	if testing.Short() {
		t.Skip("signal self-delivery is slow under -short")
	}

	observedNil := false
	observedReady := false

	p := sigtest.Start(func() {
		if e := engine.TryInstance(); e == nil {
			observedNil = true
		} else {
			observedReady = true
		}
	})

	time.Sleep(10 * time.Millisecond)
	engine.Instance()
	time.Sleep(50 * time.Millisecond)

	p.Stop()
	require.True(t, observedReady, "TryInstance never observed the constructed singleton")
	_ = observedNil
}
