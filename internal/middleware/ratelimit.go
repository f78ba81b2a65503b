package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/charlesng35/vimquiz/pkg/errors"
	"github.com/charlesng35/vimquiz/pkg/metrics"
	"github.com/charlesng35/vimquiz/pkg/response"
)

// defaultSweepInterval is how often expired windows are removed. The sweep
// bounds memory; it is time-based and independent of request traffic.
const defaultSweepInterval = 5 * time.Minute

// RateLimiter is a fixed-window request counter keyed by client identity.
// One instance is constructed per process and injected where needed so tests
// can run isolated limiters.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	tick    *time.Ticker
	done    chan struct{}
	clock   func() time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

// Result reports the outcome of a rate-limit check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Stat describes one live window for health reporting.
type Stat struct {
	Identifier string    `json:"identifier"`
	Count      int       `json:"count"`
	ResetAt    time.Time `json:"reset_at"`
}

// NewRateLimiter constructs a limiter and starts its background sweep.
func NewRateLimiter() *RateLimiter {
	l := &RateLimiter{
		windows: make(map[string]*window),
		tick:    time.NewTicker(defaultSweepInterval),
		done:    make(chan struct{}),
		clock:   time.Now,
	}
	go l.sweepLoop()
	return l
}

// Allow performs an atomic check-and-increment for the identifier. The
// first request, or one arriving after the stored window expired, resets
// the counter to 1 and opens a fresh window.
func (l *RateLimiter) Allow(identifier string, maxRequests int, windowLength time.Duration) Result {
	if windowLength <= 0 {
		windowLength = time.Minute
	}

	now := l.clock()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[identifier]
	if !ok || now.After(w.resetAt) {
		w = &window{count: 0, resetAt: now.Add(windowLength)}
		l.windows[identifier] = w
	}
	w.count++

	remaining := maxRequests - w.count
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   w.count <= maxRequests,
		Remaining: remaining,
		ResetAt:   w.resetAt,
	}
}

// Stats snapshots the live windows for health reporting.
func (l *RateLimiter) Stats() []Stat {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := make([]Stat, 0, len(l.windows))
	for id, w := range l.windows {
		stats = append(stats, Stat{Identifier: id, Count: w.count, ResetAt: w.resetAt})
	}
	return stats
}

// Stop halts the background sweep. Used by tests; the process-wide limiter
// lives for the lifetime of the server.
func (l *RateLimiter) Stop() {
	l.tick.Stop()
	close(l.done)
}

func (l *RateLimiter) sweepLoop() {
	for {
		select {
		case <-l.done:
			return
		case <-l.tick.C:
			now := l.clock()
			l.mu.Lock()
			for id, w := range l.windows {
				if now.After(w.resetAt) {
					delete(l.windows, id)
				}
			}
			l.mu.Unlock()
		}
	}
}

// RateLimit returns middleware that limits requests per client IP within a
// fixed window. Rate-limit headers are set on every response; rejected
// requests additionally carry Retry-After.
func RateLimit(limiter *RateLimiter, maxRequests int, windowLength time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || maxRequests <= 0 || windowLength <= 0 {
			c.Next()
			return
		}

		// Key by IP and route so the public and admin surfaces count
		// independently for the same client.
		result := limiter.Allow(c.ClientIP()+"|"+c.FullPath(), maxRequests, windowLength)

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", result.ResetAt.UTC().Format(time.RFC3339))

		if !result.Allowed {
			retryAfter := int(result.ResetAt.Sub(limiter.clock()).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			metrics.RateLimited.WithLabelValues(c.FullPath()).Inc()
			response.Error(c, apperrors.ErrRateLimit)
			c.Abort()
			return
		}

		c.Next()
	}
}
