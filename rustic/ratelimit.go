package rustic

import (
	"fmt"
	"sync"
	"time"
)

// BucketConfig is a named rate-limit policy: Limit calls per TimeSpan,
// tracked independently per scope (normally the invoking user).
type BucketConfig struct {
	Limit    int
	TimeSpan time.Duration
}

// RateLimitResult is the outcome of a single [BucketLimiter.Check] call.
// When Allowed is false, RetryAfter is the remaining wait until the window
// resets, and FirstTry reports whether this is the first rejection within
// the current window (the dispatcher only emits a cooldown notice for the
// first one, to avoid notice spam).
type RateLimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
	FirstTry   bool
}

type bucketWindow struct {
	windowStart time.Time
	count       int
	notified    bool
}

// BucketLimiter gates command invocations with a fixed-window quota per
// (bucket, scope) pair. Safe for concurrent use from dispatch goroutines.
//
// Scope entries are created lazily on first use, and swept opportunistically
// once they've been idle for at least two full windows.
type BucketLimiter struct {
	mu        sync.Mutex
	buckets   map[string]BucketConfig
	scopes    map[string]map[string]*bucketWindow
	lastSweep time.Time

	// now is a test hook; defaults to time.Now
	now func() time.Time
}

// NewBucketLimiter returns an empty limiter. Buckets must be registered
// with AddBucket before commands referencing them are dispatched.
func NewBucketLimiter() *BucketLimiter {
	return &BucketLimiter{
		buckets: map[string]BucketConfig{},
		scopes:  map[string]map[string]*bucketWindow{},
		now:     time.Now,
	}
}

// AddBucket registers (or replaces) a named bucket policy.
func (l *BucketLimiter) AddBucket(name string, limit int, timeSpan time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buckets[name] = BucketConfig{Limit: limit, TimeSpan: timeSpan}
}

// Check consumes one call from the given bucket for the given scope.
// Unknown buckets always allow - a command referencing an unregistered
// bucket is a wiring bug, not something to punish users for.
func (l *BucketLimiter) Check(bucket string, scope string) RateLimitResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	cfg, ok := l.buckets[bucket]
	if !ok {
		return RateLimitResult{Allowed: true}
	}

	now := l.now()
	l.sweepLocked(now)

	windows := l.scopes[bucket]
	if windows == nil {
		windows = map[string]*bucketWindow{}
		l.scopes[bucket] = windows
	}

	w := windows[scope]
	if w == nil || now.Sub(w.windowStart) >= cfg.TimeSpan {
		windows[scope] = &bucketWindow{windowStart: now, count: 1}
		return RateLimitResult{Allowed: true}
	}

	if w.count < cfg.Limit {
		w.count++
		return RateLimitResult{Allowed: true}
	}

	firstTry := !w.notified
	w.notified = true
	return RateLimitResult{
		Allowed:    false,
		RetryAfter: w.windowStart.Add(cfg.TimeSpan).Sub(now),
		FirstTry:   firstTry,
	}
}

// sweepLocked drops scope entries idle for at least two full windows.
// Runs at most once per minute. Caller must hold l.mu.
func (l *BucketLimiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < time.Minute {
		return
	}
	l.lastSweep = now
	for bucket, windows := range l.scopes {
		cfg := l.buckets[bucket]
		for scope, w := range windows {
			if now.Sub(w.windowStart) >= 2*cfg.TimeSpan {
				delete(windows, scope)
			}
		}
	}
}

// cooldownSeconds rounds a retry-after up to whole seconds for user-facing
// cooldown notices (a "0 second" cooldown would read like a bug).
func cooldownSeconds(d time.Duration) int64 {
	secs := int64(d / time.Second)
	if d%time.Second != 0 || secs == 0 {
		secs++
	}
	return secs
}

func (r RateLimitResult) String() string {
	if r.Allowed {
		return "allowed"
	}
	return fmt.Sprintf("rate limited (retry after %s)", r.RetryAfter)
}
