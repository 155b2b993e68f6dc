package server

import (
	"sync"

	"golang.org/x/time/rate"
)

// connLimiter hands out one token-bucket limiter per remote host so a single
// noisy client cannot starve the others.
type connLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func newConnLimiter(requestsPerSecond, burst int) *connLimiter {
	return &connLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

// allow reports whether the keyed client may issue another request now.
func (l *connLimiter) allow(key string) bool {
	if l.rate <= 0 {
		return true
	}
	l.mu.Lock()
	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[key] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow()
}
