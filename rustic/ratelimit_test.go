package rustic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(start time.Time) (*BucketLimiter, *time.Time) {
	now := start
	limiter := NewBucketLimiter()
	limiter.now = func() time.Time {
		return now
	}
	return limiter, &now
}

func TestBucketLimiterWindow(t *testing.T) {
	limiter, now := newTestLimiter(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	limiter.AddBucket("basic", 1, 5*time.Second)

	rv := limiter.Check("basic", "user-1")
	assert.True(t, rv.Allowed)

	// second call in the same window is rejected, with a retry duration
	// covering the rest of the window
	*now = now.Add(2 * time.Second)
	rv = limiter.Check("basic", "user-1")
	require.False(t, rv.Allowed)
	assert.Equal(t, 3*time.Second, rv.RetryAfter)

	// window elapsed, allowed again
	*now = now.Add(3 * time.Second)
	rv = limiter.Check("basic", "user-1")
	assert.True(t, rv.Allowed)
}

func TestBucketLimiterFirstTry(t *testing.T) {
	limiter, now := newTestLimiter(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	limiter.AddBucket("basic", 1, 5*time.Second)

	rv := limiter.Check("basic", "user-1")
	require.True(t, rv.Allowed)

	// Only the first rejection in a window flags FirstTry
	*now = now.Add(time.Second)
	rv = limiter.Check("basic", "user-1")
	require.False(t, rv.Allowed)
	assert.True(t, rv.FirstTry)

	*now = now.Add(time.Second)
	rv = limiter.Check("basic", "user-1")
	require.False(t, rv.Allowed)
	assert.False(t, rv.FirstTry)

	// New window resets the notice flag
	*now = now.Add(5 * time.Second)
	rv = limiter.Check("basic", "user-1")
	require.True(t, rv.Allowed)

	*now = now.Add(time.Second)
	rv = limiter.Check("basic", "user-1")
	require.False(t, rv.Allowed)
	assert.True(t, rv.FirstTry)
}

func TestBucketLimiterScopes(t *testing.T) {
	limiter, now := newTestLimiter(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	limiter.AddBucket("basic", 1, 5*time.Second)

	require.True(t, limiter.Check("basic", "user-1").Allowed)

	// other users are unaffected by user-1's window
	*now = now.Add(time.Second)
	assert.True(t, limiter.Check("basic", "user-2").Allowed)
	assert.False(t, limiter.Check("basic", "user-1").Allowed)
}

func TestBucketLimiterUnknownBucket(t *testing.T) {
	limiter, _ := newTestLimiter(time.Now())
	for i := 0; i < 10; i++ {
		assert.True(t, limiter.Check("nope", "user-1").Allowed)
	}
}

func TestBucketLimiterMultiUse(t *testing.T) {
	limiter, now := newTestLimiter(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	limiter.AddBucket("burst", 3, 10*time.Second)

	for i := 0; i < 3; i++ {
		*now = now.Add(time.Second)
		require.True(t, limiter.Check("burst", "user-1").Allowed, "call %d", i)
	}
	*now = now.Add(time.Second)
	assert.False(t, limiter.Check("burst", "user-1").Allowed)
}

func TestBucketLimiterSweep(t *testing.T) {
	limiter, now := newTestLimiter(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	limiter.AddBucket("basic", 1, 5*time.Second)

	require.True(t, limiter.Check("basic", "user-1").Allowed)
	require.True(t, limiter.Check("basic", "user-2").Allowed)

	// idle entries are dropped once two windows have passed and the sweep
	// interval has elapsed
	*now = now.Add(2 * time.Minute)
	require.True(t, limiter.Check("basic", "user-3").Allowed)

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.NotContains(t, limiter.scopes["basic"], "user-1")
	assert.NotContains(t, limiter.scopes["basic"], "user-2")
	assert.Contains(t, limiter.scopes["basic"], "user-3")
}

func TestCooldownSeconds(t *testing.T) {
	testCases := []struct {
		input    time.Duration
		expected int64
	}{
		{0, 1},
		{500 * time.Millisecond, 1},
		{time.Second, 1},
		{1500 * time.Millisecond, 2},
		{5 * time.Second, 5},
	}
	for _, tc := range testCases {
		assert.Equal(
			t, tc.expected, cooldownSeconds(tc.input), "input: %s", tc.input,
		)
	}
}
