package middleware

import (
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	// DefaultRatePerSecond is the default sustained rate per ledger user
	DefaultRatePerSecond = 5
	// DefaultBurstSize is the default burst size
	DefaultBurstSize = 10
	// CleanupInterval is how often idle buckets are swept
	CleanupInterval = 5 * time.Minute
	// LimiterTTL is how long an unused bucket is kept
	LimiterTTL = 10 * time.Minute
)

// RateLimiter keeps one token bucket per key (ledger user, client or address)
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	perSec   rate.Limit
	burst    int
	stopCh   chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Decision is the outcome of one request against its bucket
type Decision struct {
	Allowed   bool
	Remaining int
	// Reset is when the bucket will be full again
	Reset time.Time
}

// NewRateLimiter creates a RateLimiter with the default rate and burst
func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithConfig(DefaultRatePerSecond, DefaultBurstSize)
}

// NewRateLimiterWithConfig creates a RateLimiter. Non-positive values fall back to the defaults.
func NewRateLimiterWithConfig(requestsPerSecond float64, burstSize int) *RateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = DefaultRatePerSecond
	}
	if burstSize <= 0 {
		burstSize = DefaultBurstSize
	}
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		perSec:  rate.Limit(requestsPerSecond),
		burst:   burstSize,
		stopCh:  make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Take spends one token from key's bucket and reports what is left
func (r *RateLimiter) Take(key string) Decision {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(r.perSec, r.burst)}
		r.buckets[key] = b
	}
	b.lastSeen = now

	allowed := b.limiter.AllowN(now, 1)
	return r.decision(allowed, b.limiter.TokensAt(now), now)
}

func (r *RateLimiter) decision(allowed bool, tokens float64, now time.Time) Decision {
	tokens = math.Max(tokens, 0)
	missing := float64(r.burst) - tokens
	return Decision{
		Allowed:   allowed,
		Remaining: int(tokens),
		Reset:     now.Add(time.Duration(missing / float64(r.perSec) * float64(time.Second))),
	}
}

func (r *RateLimiter) sweep() {
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			r.evictIdle(now)
		case <-r.stopCh:
			return
		}
	}
}

// evictIdle drops buckets not used within LimiterTTL of now
func (r *RateLimiter) evictIdle(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for key, b := range r.buckets {
		if now.Sub(b.lastSeen) > LimiterTTL {
			delete(r.buckets, key)
			evicted++
		}
	}
	if evicted > 0 {
		log.Debug().Int("evicted", evicted).Int("active", len(r.buckets)).Msg("Swept idle rate limiters")
	}
}

// Stop ends the sweep goroutine. It is safe to call more than once.
func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// RateLimitKey picks the bucket for a request: the ledger user from the path when present,
// otherwise the authenticated client, otherwise the remote address.
func RateLimitKey(c echo.Context) string {
	if userID := c.Param("userID"); userID != "" {
		return "user:" + userID
	}
	if clientID := GetClientID(c); clientID != "" {
		return "client:" + clientID
	}
	return "ip:" + c.RealIP()
}

// RateLimitMiddleware returns an Echo middleware that applies rate limiting.
// It must run after routing so path parameters are available.
func RateLimitMiddleware(rl *RateLimiter) echo.MiddlewareFunc {
	limit := strconv.Itoa(rl.burst)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := RateLimitKey(c)
			d := rl.Take(key)

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))

			if d.Allowed {
				return next(c)
			}

			// time until one token is back
			retryAfter := int(math.Ceil(1 / float64(rl.perSec)))
			if retryAfter < 1 {
				retryAfter = 1
			}
			h.Set("Retry-After", strconv.Itoa(retryAfter))

			log.Warn().
				Str("key", key).
				Int("retry_after", retryAfter).
				Msg("Rate limit exceeded")

			return rateLimitError(c, fmt.Sprintf("Too many requests. Please retry after %d seconds.", retryAfter))
		}
	}
}
