package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedRateLimiter_BurstThenDeny(t *testing.T) {
	limiter := New(0.001, 2)

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))
}

func TestKeyedRateLimiter_KeysAreIndependent(t *testing.T) {
	limiter := New(0.001, 1)

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))

	// A different key has its own bucket.
	assert.True(t, limiter.Allow("10.0.0.2"))
}
