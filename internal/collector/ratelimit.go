package collector

import "time"

// Limiter keeps the remote call rate under the API quota. Two mechanisms
// work together: a rolling window that pauses every CallsPerWindow-th call
// until the window has fully elapsed, and a per-call micro delay that smooths
// bursts between individual requests. Both are deterministic given elapsed
// time; there is no jitter.
type Limiter struct {
	CallsPerWindow int
	Window         time.Duration
	CallDelay      time.Duration
	BatchBuffer    time.Duration
}

// DefaultLimiter returns a Limiter for the standard 60 calls/minute quota
func DefaultLimiter() *Limiter {
	return &Limiter{
		CallsPerWindow: 60,
		Window:         time.Minute,
		CallDelay:      time.Second,
		BatchBuffer:    2 * time.Second,
	}
}

// ShouldThrottle reports whether the call at the given zero-based index
// starts a new window and must wait out the remainder of the current one.
func (l *Limiter) ShouldThrottle(index int) bool {
	return index > 0 && index%l.CallsPerWindow == 0
}

// ComputeSleep returns how long to sleep given the time elapsed since the
// window started. Zero when the window has already passed.
func (l *Limiter) ComputeSleep(elapsed time.Duration) time.Duration {
	if elapsed >= l.Window {
		return 0
	}
	return l.Window - elapsed
}

// BatchFloor returns the minimum wall-clock time a batch of the given size
// must take before the next batch may start.
func (l *Limiter) BatchFloor(batchSize int, delay time.Duration) time.Duration {
	return time.Duration(batchSize)*delay + l.BatchBuffer
}
