package server

import (
	"sync"
	"time"
)

// sweepThreshold bounds bucket map growth: once the map holds this many
// entries a full sweep of expired windows runs inline on the next check.
const sweepThreshold = 1024

type bucketKey struct {
	client string
	window int64
}

// rateLimiter implements fixed-window request counting keyed by a client
// identifier. Windows are minute-granular: every request increments the
// counter for (client, currentMinute) and the request is rejected once the
// counter exceeds the configured per-minute limit. Buckets for past
// minutes are evicted lazily.
type rateLimiter struct {
	mu      sync.Mutex
	limit   int // requests per minute; <= 0 disables the limiter
	buckets map[bucketKey]int

	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

func newRateLimiter(limit int) *rateLimiter {
	return &rateLimiter{
		limit:   limit,
		buckets: make(map[bucketKey]int),
		now:     time.Now,
	}
}

// allow increments the counter for clientKey's current window and reports
// whether the request is within the limit. The limiter is intentionally
// cheap: one lock, one map increment, so floods of rejected requests do
// not themselves become expensive.
func (l *rateLimiter) allow(clientKey string) bool {
	if l.limit <= 0 {
		return true
	}

	window := l.now().Unix() / 60

	l.mu.Lock()
	defer l.mu.Unlock()

	// Lazy eviction of this client's previous window.
	delete(l.buckets, bucketKey{client: clientKey, window: window - 1})

	if len(l.buckets) >= sweepThreshold {
		l.sweepLocked(window)
	}

	key := bucketKey{client: clientKey, window: window}
	l.buckets[key]++
	return l.buckets[key] <= l.limit
}

// sweepLocked drops all buckets from windows before current. Caller holds mu.
func (l *rateLimiter) sweepLocked(current int64) {
	for key := range l.buckets {
		if key.window < current {
			delete(l.buckets, key)
		}
	}
}

// reset discards all counters.
func (l *rateLimiter) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buckets = make(map[bucketKey]int)
}
