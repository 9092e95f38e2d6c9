package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/akash12888/note-taking-app/pkg/errors"
	"github.com/akash12888/note-taking-app/pkg/response"
)

// RateLimiter counts requests per client IP within a fixed window. It is an
// in-memory limiter suitable for single-instance deployments and tests.
type RateLimiter struct {
	maxRequests int
	window      time.Duration

	mu   sync.Mutex
	data map[string]*rateCounter

	tick *time.Ticker
	done chan struct{}
	stop sync.Once
}

type rateCounter struct {
	count     int
	windowEnd time.Time
}

// NewRateLimiter constructs a limiter. A non-positive maxRequests or window
// disables limiting entirely.
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	l := &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		data:        make(map[string]*rateCounter),
	}

	if l.enabled() {
		l.tick = time.NewTicker(window)
		l.done = make(chan struct{})
		go l.cleanupLoop()
	}

	return l
}

func (l *RateLimiter) enabled() bool {
	return l.maxRequests > 0 && l.window > 0
}

// Stop halts the background cleanup goroutine. Safe to call more than once.
func (l *RateLimiter) Stop() {
	if l.tick == nil {
		return
	}
	l.stop.Do(func() {
		l.tick.Stop()
		close(l.done)
	})
}

func (l *RateLimiter) cleanupLoop() {
	for {
		select {
		case <-l.done:
			return
		case <-l.tick.C:
			now := time.Now()
			l.mu.Lock()
			for key, ct := range l.data {
				if now.After(ct.windowEnd) {
					delete(l.data, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

func (l *RateLimiter) increment(key string) (count int, resetIn time.Duration) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	ct, ok := l.data[key]
	if !ok || now.After(ct.windowEnd) {
		ct = &rateCounter{windowEnd: now.Add(l.window)}
		l.data[key] = ct
	}
	ct.count++

	return ct.count, time.Until(ct.windowEnd)
}

// Middleware returns the gin handler enforcing the limit.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.enabled() {
			c.Next()
			return
		}

		count, resetIn := l.increment(c.ClientIP())

		c.Header("X-RateLimit-Limit", strconv.Itoa(l.maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(0, l.maxRequests-count)))
		c.Header("X-RateLimit-Reset", strconv.Itoa(int(resetIn.Seconds())))

		if count > l.maxRequests {
			response.Error(c, apperrors.ErrRateLimit)
			c.Abort()
			return
		}

		c.Next()
	}
}

// RateLimit is a convenience wrapper for a process-lifetime limiter.
func RateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return NewRateLimiter(maxRequests, window).Middleware()
}
