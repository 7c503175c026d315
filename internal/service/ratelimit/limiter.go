package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	visitorIdleTimeout = 5 * time.Minute
	cleanupInterval    = time.Minute
)

type visitor struct {
	lim  *rate.Limiter
	seen time.Time
}

// Limiter keeps one token bucket per client key. Idle entries are evicted
// so the map stays bounded by the set of recently active clients.
type Limiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
	ticker   *time.Ticker
	done     chan struct{}
}

// New creates a limiter allowing rps requests per second with the given
// burst per client key. Non-positive arguments fall back to a small
// default instead of locking everyone out.
func New(rps float64, burst int) *Limiter {
	if rps <= 0 {
		rps = 5
	}
	if burst < 1 {
		burst = 1
	}
	l := &Limiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		ticker:   time.NewTicker(cleanupInterval),
		done:     make(chan struct{}),
	}
	go l.cleanup()
	return l
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{lim: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[key] = v
	}
	v.seen = time.Now()
	lim := v.lim
	l.mu.Unlock()

	return lim.Allow()
}

func (l *Limiter) cleanup() {
	for {
		select {
		case <-l.done:
			return
		case <-l.ticker.C:
			cutoff := time.Now().Add(-visitorIdleTimeout)
			l.mu.Lock()
			for key, v := range l.visitors {
				if v.seen.Before(cutoff) {
					delete(l.visitors, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// Close stops the eviction loop.
func (l *Limiter) Close() error {
	l.ticker.Stop()
	close(l.done)
	return nil
}
