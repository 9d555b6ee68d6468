// limiter.go - Iteration rate limiting
package peekpoke

import (
	"time"
)

// Limiter paces a loop to a fixed iteration rate. Each Wait sleeps for
// whatever remains of the current period, so work done inside the loop
// shortens the sleep. A loop that overruns its period does not sleep and
// does not try to catch up.
type Limiter struct {
	period time.Duration
	last   time.Time
}

// NewLimiter creates a limiter running at the given iterations per second
func NewLimiter(perSecond float64) *Limiter {
	if perSecond <= 0 {
		return &Limiter{}
	}
	return &Limiter{
		period: time.Duration(float64(time.Second) / perSecond),
		last:   time.Now(),
	}
}

// Period returns the configured iteration period
func (l *Limiter) Period() time.Duration {
	return l.period
}

// Wait sleeps until the current period has elapsed and starts the next
// one. Returns the time actually slept.
func (l *Limiter) Wait() time.Duration {
	if l.period == 0 {
		return 0
	}
	elapsed := time.Since(l.last)
	remaining := l.period - elapsed
	if remaining > 0 {
		time.Sleep(remaining)
	} else {
		remaining = 0
	}
	l.last = time.Now()
	return remaining
}
