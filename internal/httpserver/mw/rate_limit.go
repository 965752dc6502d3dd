package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/MrSnakeDoc/detailcal/internal/domain"
	"github.com/MrSnakeDoc/detailcal/internal/logger"
	"github.com/MrSnakeDoc/detailcal/internal/utils"
)

// RateLimitConfig tunes the token buckets guarding booking mutations.
type RateLimitConfig struct {
	Burst             int           // writes allowed back to back
	RefillPerIPPerMin int           // tokens regained per minute
	MaxEntries        int           // tracked clients before an early sweep (0 = unbounded)
	SweepInterval     time.Duration // how often idle buckets are dropped
	IdleTTL           time.Duration // a bucket unused this long is dropped
	TrustProxy        bool          // resolve IP from proxy headers when true
}

func (c RateLimitConfig) withDefaults() RateLimitConfig {
	if c.Burst < 1 {
		c.Burst = 1
	}
	if c.RefillPerIPPerMin < 1 {
		c.RefillPerIPPerMin = 1
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Minute
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = 15 * time.Minute
	}
	return c
}

type tokens struct {
	left     float64
	refilled time.Time
}

// writeLimiter holds one bucket per client key. mu guards clients and lastSweep.
type writeLimiter struct {
	cfg       RateLimitConfig
	perSecond float64

	mu        sync.Mutex
	clients   map[string]*tokens
	lastSweep time.Time
}

func newWriteLimiter(cfg RateLimitConfig, now time.Time) *writeLimiter {
	cfg = cfg.withDefaults()
	return &writeLimiter{
		cfg:       cfg,
		perSecond: float64(cfg.RefillPerIPPerMin) / 60,
		clients:   make(map[string]*tokens),
		lastSweep: now,
	}
}

// take spends one token of key. When none is left it reports how many
// seconds until the next one.
func (l *writeLimiter) take(key string, now time.Time) (ok bool, remaining, retryAfter int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.cfg.SweepInterval ||
		(l.cfg.MaxEntries > 0 && len(l.clients) >= l.cfg.MaxEntries) {
		l.sweep(now)
	}

	capacity := float64(l.cfg.Burst)
	t, found := l.clients[key]
	if !found {
		t = &tokens{left: capacity, refilled: now}
		l.clients[key] = t
	}
	if elapsed := now.Sub(t.refilled).Seconds(); elapsed > 0 {
		t.left = math.Min(capacity, t.left+elapsed*l.perSecond)
		t.refilled = now
	}

	if t.left >= 1 {
		t.left--
		return true, int(t.left), 0
	}
	wait := int(math.Ceil((1 - t.left) / l.perSecond))
	return false, 0, max(wait, 1)
}

// sweep drops buckets idle for longer than IdleTTL. l.mu must be held.
func (l *writeLimiter) sweep(now time.Time) {
	for key, t := range l.clients {
		if now.Sub(t.refilled) > l.cfg.IdleTTL {
			delete(l.clients, key)
		}
	}
	l.lastSweep = now
}

func (l *writeLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// limitKey identifies the client: the token subject when the caller
// authenticated, the client IP otherwise.
func limitKey(r *http.Request, trustProxy bool) string {
	if a := ActorFrom(r.Context()); a.ID != "" && a != domain.SystemActor {
		return "actor:" + a.ID
	}
	return "ip:" + utils.ClientIP(r, trustProxy)
}

// RateLimit throttles booking mutations per client to Burst writes,
// refilled at RefillPerIPPerMin. Rejected requests get 429 with Retry-After.
// It must run after Actor so authenticated staff are keyed by identity.
func RateLimit(cfg RateLimitConfig, log logger.Logger) func(http.Handler) http.Handler {
	l := newWriteLimiter(cfg, time.Now())
	limit := strconv.Itoa(l.cfg.Burst)
	log.Debugf("RateLimit: burst=%d refill=%d/min maxEntries=%d", l.cfg.Burst, l.cfg.RefillPerIPPerMin, l.cfg.MaxEntries)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := limitKey(r, l.cfg.TrustProxy)
			ok, remaining, retry := l.take(key, time.Now())

			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !ok {
				log.Warn("booking write rate limited",
					logger.String("client", key),
					logger.String("method", r.Method),
					logger.String("path", r.URL.Path),
					logger.Int("retry_after_sec", retry))
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				http.Error(w, "too many booking changes, slow down", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
