package api

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// rateLimiter is a sliding-window counter keyed by client IP. Each
// check drops timestamps older than the window before counting, so a
// client's slice never holds more than one window's worth of entries.
type rateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	period   time.Duration
}

func newRateLimiter(limit int, period time.Duration) *rateLimiter {
	return &rateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		period:   period,
	}
}

// allow records the request for clientID and reports whether it fits
// within the window.
func (rl *rateLimiter) allow(clientID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.period)

	kept := rl.requests[clientID][:0]
	for _, t := range rl.requests[clientID] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= rl.limit {
		rl.requests[clientID] = kept
		return false
	}

	rl.requests[clientID] = append(kept, now)
	return true
}

// clientIP extracts the caller's IP from RemoteAddr, stripping the port.
func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
