package oscore

import "sync/atomic"

// Fallback records whether a context desynchronization was detected and
// contexts must be re-derived. The zero value is not detected.
type Fallback struct {
	detected atomic.Bool
}

// Detected reports whether fallback is active.
func (f *Fallback) Detected() bool {
	return f.detected.Load()
}

// SetDetected raises or clears the fallback flag.
func (f *Fallback) SetDetected(detected bool) {
	f.detected.Store(detected)
}
