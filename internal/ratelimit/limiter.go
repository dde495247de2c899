// Package ratelimit throttles clients with per-IP token buckets. A bucket is
// created on first sight, refills continuously, and is dropped by a periodic
// sweep once the client goes idle. Process-local: every instance enforces its
// own budget.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

// Clock abstracts time.Now for refill and sweep tests.
type Clock func() time.Time

const (
	defaultSweepInterval = time.Minute
	defaultIdleAfter     = 10 * time.Minute
)

// Result reports one admission decision.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetAt is when the bucket is full again.
	ResetAt time.Time
	// RetryAfter is the whole seconds until the next token, 0 when allowed.
	RetryAfter int
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// Limiter hands out tokens per client key.
type Limiter struct {
	capacity        float64
	refillPerSecond float64
	idleAfter       time.Duration
	sweepInterval   time.Duration
	clock           Clock

	mu      sync.Mutex
	buckets map[string]*bucket

	stopOnce sync.Once
	stop     chan struct{}
}

// LimiterOption configures a Limiter.
type LimiterOption func(*Limiter)

// WithClock sets the clock function for testability.
func WithClock(clock Clock) LimiterOption {
	return func(l *Limiter) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// WithIdleAfter sets how long an untouched bucket survives a sweep.
func WithIdleAfter(d time.Duration) LimiterOption {
	return func(l *Limiter) {
		if d > 0 {
			l.idleAfter = d
		}
	}
}

// WithSweepInterval sets how often idle buckets are swept.
func WithSweepInterval(d time.Duration) LimiterOption {
	return func(l *Limiter) {
		if d > 0 {
			l.sweepInterval = d
		}
	}
}

// NewLimiter constructs a Limiter allowing bursts of capacity requests that
// refill at refillPerSecond, and starts the sweep loop. Call Stop to end it.
// Non-positive parameters are clamped to 1.
func NewLimiter(capacity int, refillPerSecond float64, opts ...LimiterOption) *Limiter {
	if capacity < 1 {
		capacity = 1
	}
	if refillPerSecond <= 0 {
		refillPerSecond = 1
	}
	l := &Limiter{
		capacity:        float64(capacity),
		refillPerSecond: refillPerSecond,
		idleAfter:       defaultIdleAfter,
		sweepInterval:   defaultSweepInterval,
		clock:           time.Now,
		buckets:         make(map[string]*bucket),
		stop:            make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	go l.run(l.sweepInterval)
	return l
}

// Allow takes one token from the key's bucket.
func (l *Limiter) Allow(key string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.capacity}
		l.buckets[key] = b
	} else if elapsed := now.Sub(b.lastSeen).Seconds(); elapsed > 0 {
		b.tokens = math.Min(l.capacity, b.tokens+elapsed*l.refillPerSecond)
	}
	b.lastSeen = now

	if b.tokens < 1 {
		wait := (1 - b.tokens) / l.refillPerSecond
		return Result{
			Limit:      int(l.capacity),
			ResetAt:    now.Add(l.untilFull(b)),
			RetryAfter: int(math.Ceil(wait)),
		}
	}

	b.tokens--
	return Result{
		Allowed:   true,
		Limit:     int(l.capacity),
		Remaining: int(b.tokens),
		ResetAt:   now.Add(l.untilFull(b)),
	}
}

// Size reports how many clients currently hold a bucket.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Stop ends the sweep loop. Idempotent.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Limiter) untilFull(b *bucket) time.Duration {
	missing := l.capacity - b.tokens
	return time.Duration(missing / l.refillPerSecond * float64(time.Second))
}

// sweep drops buckets idle past the cutoff and reports how many remain.
func (l *Limiter) sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.idleAfter)
	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
	return len(l.buckets)
}

func (l *Limiter) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.sweep(l.clock())
		}
	}
}
