package server

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestIPRateLimiter_Burst(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := newIPRateLimiter(1, 3, clock)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1"), "request %d within burst", i)
	}
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"), "other clients have their own bucket")

	clock.Advance(time.Second)
	assert.True(t, l.Allow("10.0.0.1"))
}

func TestIPRateLimiter_Disabled(t *testing.T) {
	l := newIPRateLimiter(0, 0, clockwork.NewFakeClock())
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("10.0.0.1"))
	}
}

func TestIPRateLimiter_Cleanup(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := newIPRateLimiter(5, 5, clock)

	l.Allow("10.0.0.1")
	clock.Advance(limiterIdleTimeout / 2)
	l.Allow("10.0.0.2")
	clock.Advance(limiterIdleTimeout/2 + time.Second)

	assert.Equal(t, 1, l.cleanup())
	assert.Equal(t, 1, l.Len())
}
