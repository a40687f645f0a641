//go:build !windows

package govern

import "time"

var hiresEpoch = time.Now()

// hiresNow returns a high-resolution monotonic timestamp in nanoseconds.
func hiresNow() int64 {
	return time.Since(hiresEpoch).Nanoseconds()
}

// hiresSinceNs returns the elapsed nanoseconds since startNano.
func hiresSinceNs(startNano int64) int64 {
	return hiresNow() - startNano
}
