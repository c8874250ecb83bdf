package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jamezpolley/stashboard/internal/utils"
)

// RateLimitConfig configures a per-client token bucket.
type RateLimitConfig struct {
	Burst         int           // bucket capacity
	RefillPerMin  int           // tokens added per minute
	MaxClients    int           // forces a sweep when reached, 0 = unbounded
	IdleTTL       time.Duration // buckets unused for this long are dropped
	TrustProxy    bool          // resolve the client IP from proxy headers
	SweepInterval time.Duration
	now           func() time.Time
}

type bucket struct {
	tokens  float64
	updated time.Time
}

type limiter struct {
	cfg       RateLimitConfig
	perSecond float64

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

func newLimiter(cfg RateLimitConfig) *limiter {
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.RefillPerMin < 1 {
		cfg.RefillPerMin = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	return &limiter{
		cfg:       cfg,
		perSecond: float64(cfg.RefillPerMin) / 60,
		buckets:   make(map[string]*bucket),
		lastSweep: cfg.now(),
	}
}

// take consumes one token for key. When none is left it returns the
// number of seconds until the next token.
func (l *limiter) take(key string) (ok bool, remaining, retryAfter int) {
	now := l.cfg.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.cfg.SweepInterval ||
		(l.cfg.MaxClients > 0 && len(l.buckets) >= l.cfg.MaxClients) {
		for k, b := range l.buckets {
			if now.Sub(b.updated) > l.cfg.IdleTTL {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, found := l.buckets[key]
	if !found {
		b = &bucket{tokens: float64(l.cfg.Burst), updated: now}
		l.buckets[key] = b
	}

	if elapsed := now.Sub(b.updated).Seconds(); elapsed > 0 {
		b.tokens = math.Min(float64(l.cfg.Burst), b.tokens+elapsed*l.perSecond)
		b.updated = now
	}

	if b.tokens < 1 {
		wait := int(math.Ceil((1 - b.tokens) / l.perSecond))
		return false, 0, max(wait, 1)
	}
	b.tokens--
	return true, int(b.tokens), 0
}

// RateLimit throttles requests per client IP and answers 429 with
// Retry-After once a client's bucket is empty.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	l := newLimiter(cfg)
	limit := strconv.Itoa(l.cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, remaining, retry := l.take(utils.ClientIP(r, l.cfg.TrustProxy))

			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
