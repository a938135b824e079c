// Package ratelimit provides a per-client token bucket middleware for the
// credential endpoints, where unthrottled requests invite password guessing.
package ratelimit

import (
	"sync"
	"time"

	"github.com/goliatone/go-router"
	"golang.org/x/time/rate"
)

type Config struct {
	// RequestsPerSecond is the sustained refill rate per client.
	RequestsPerSecond float64
	// Burst is the bucket depth per client.
	Burst int
	// KeyFunc derives the bucket key from the request. Defaults to client IP
	// headers with an "unknown" fallback.
	KeyFunc func(router.Context) string
	// ErrorHandler renders the rejection. Defaults to a 429 JSON body.
	ErrorHandler router.ErrorHandler
	// TTL is how long idle buckets survive before the janitor drops them.
	TTL time.Duration
}

type bucket struct {
	lim *rate.Limiter
	ts  time.Time
}

type limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	cfg     Config
}

func defaultKeyFunc(c router.Context) string {
	if ip := c.GetString("X-Forwarded-For", ""); ip != "" {
		return ip
	}
	if ip := c.GetString("X-Real-IP", ""); ip != "" {
		return ip
	}
	return "unknown"
}

func defaultErrorHandler(c router.Context, _ error) error {
	return c.JSON(router.StatusTooManyRequests, map[string]string{
		"code":    "RateLimitError",
		"message": "too many requests, slow down",
	})
}

// New builds the middleware and starts a janitor goroutine that evicts idle
// buckets once per minute.
func New(cfg Config) router.MiddlewareFunc {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = defaultKeyFunc
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}

	l := &limiter{
		buckets: make(map[string]*bucket),
		cfg:     cfg,
	}

	ticker := time.NewTicker(1 * time.Minute)
	go func() {
		for range ticker.C {
			l.evict(time.Now())
		}
	}()

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if !l.allow(cfg.KeyFunc(ctx)) {
				return cfg.ErrorHandler(ctx, nil)
			}
			return ctx.Next()
		}
	}
}

func (l *limiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rate.Limit(l.cfg.RequestsPerSecond), l.cfg.Burst)}
		l.buckets[key] = b
	}
	b.ts = time.Now()

	return b.lim.Allow()
}

func (l *limiter) evict(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for k, b := range l.buckets {
		if now.Sub(b.ts) > l.cfg.TTL {
			delete(l.buckets, k)
		}
	}
}
