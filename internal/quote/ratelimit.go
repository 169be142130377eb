package quote

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ipLimiter hands out one token bucket per remote IP. Buckets idle for
// longer than the prune window are dropped so the map does not grow with
// every crawler that ever hit the form.
type ipLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucketEntry
	limit   rate.Limit
	burst   int
}

type bucketEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const pruneAfter = 30 * time.Minute

func newIPLimiter(perMinute, burst int) *ipLimiter {
	if perMinute <= 0 {
		perMinute = 6
	}
	if burst <= 0 {
		burst = 3
	}
	return &ipLimiter{
		buckets: map[string]*bucketEntry{},
		limit:   rate.Limit(float64(perMinute) / 60.0),
		burst:   burst,
	}
}

// allow reports whether a submission from ip may proceed.
func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	entry, ok := l.buckets[ip]
	if !ok {
		entry = &bucketEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[ip] = entry
	}
	entry.lastSeen = now

	if len(l.buckets) > 1024 {
		l.prune(now)
	}
	return entry.limiter.Allow()
}

func (l *ipLimiter) prune(now time.Time) {
	for ip, entry := range l.buckets {
		if now.Sub(entry.lastSeen) > pruneAfter {
			delete(l.buckets, ip)
		}
	}
}
