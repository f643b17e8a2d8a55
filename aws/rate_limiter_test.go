package aws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllowsUpToMax(t *testing.T) {
	limiter := NewRateLimiter(3, time.Minute)

	for i := 1; i <= 3; i++ {
		exceeded, count, _ := limiter.CheckLimit("scan_table")
		assert.False(t, exceeded)
		assert.Equal(t, i, count)
	}

	exceeded, count, resetTime := limiter.CheckLimit("scan_table")
	assert.True(t, exceeded)
	assert.Equal(t, 4, count)
	assert.True(t, resetTime.After(time.Now()))
}

func TestRateLimiterKeysIndependent(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)

	limiter.CheckLimit("scan_table")
	exceeded, _, _ := limiter.CheckLimit("scan_table")
	assert.True(t, exceeded)

	exceeded, _, _ = limiter.CheckLimit("list_tables")
	assert.False(t, exceeded)
}

func TestRateLimiterWindowReset(t *testing.T) {
	limiter := NewRateLimiter(1, 10*time.Millisecond)

	limiter.CheckLimit("scan_table")
	exceeded, _, _ := limiter.CheckLimit("scan_table")
	assert.True(t, exceeded)

	time.Sleep(20 * time.Millisecond)

	exceeded, count, _ := limiter.CheckLimit("scan_table")
	assert.False(t, exceeded)
	assert.Equal(t, 1, count)
}
