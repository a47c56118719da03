package rwlock

import "runtime"

// goroutineID returns an identifier for the calling goroutine.
//
// There is no supported Go API for this; we parse it out of the header
// line runtime.Stack prints ("goroutine 123 [running]:"), the same
// technique used for the slow-path fallback in Go race-detector-style
// tooling. It is called by every SigsafeRWLock.RLock and RUnlock to
// detect same-goroutine reentrancy, so Begin, Set and End pay for it on
// each call through the tree's FindChild and Get.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parseGoroutineID(buf[:n])
}

// parseGoroutineID extracts the decimal goroutine id from the leading
// "goroutine <id> [...]:" line written by runtime.Stack.
func parseGoroutineID(b []byte) int64 {
	const prefix = "goroutine "
	if len(b) <= len(prefix) {
		return -1
	}
	b = b[len(prefix):]

	var id int64
	i := 0
	for i < len(b) && b[i] >= '0' && b[i] <= '9' {
		id = id*10 + int64(b[i]-'0')
		i++
	}
	if i == 0 {
		return -1
	}
	return id
}
