package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	rl := newRateLimiter(3, time.Minute)

	assert.True(t, rl.allow("1.2.3.4"))
	assert.True(t, rl.allow("1.2.3.4"))
	assert.True(t, rl.allow("1.2.3.4"))
	assert.False(t, rl.allow("1.2.3.4"))
}

func TestRateLimiterIsPerClient(t *testing.T) {
	rl := newRateLimiter(1, time.Minute)

	assert.True(t, rl.allow("1.2.3.4"))
	assert.False(t, rl.allow("1.2.3.4"))
	assert.True(t, rl.allow("5.6.7.8"))
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	rl := newRateLimiter(1, 30*time.Millisecond)

	assert.True(t, rl.allow("1.2.3.4"))
	assert.False(t, rl.allow("1.2.3.4"))

	time.Sleep(40 * time.Millisecond)
	assert.True(t, rl.allow("1.2.3.4"))
}

func TestRateLimiterEvictsExpiredTimestamps(t *testing.T) {
	rl := newRateLimiter(2, 30*time.Millisecond)

	rl.allow("1.2.3.4")
	rl.allow("1.2.3.4")
	time.Sleep(40 * time.Millisecond)
	rl.allow("1.2.3.4")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Len(t, rl.requests["1.2.3.4"], 1)
}
