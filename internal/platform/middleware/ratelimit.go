package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// IdleTTL is how long an unused client limiter is kept.
	IdleTTL time.Duration
}

// DefaultRateLimitConfig returns default rate limiting settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		BurstSize:         200,
		IdleTTL:           10 * time.Minute,
	}
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore holds one limiter per client key and evicts idle ones on
// access.
type limiterStore struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	cfg       RateLimitConfig
	lastSweep time.Time
	now       func() time.Time
}

func newLimiterStore(cfg RateLimitConfig) *limiterStore {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultRateLimitConfig().IdleTTL
	}
	return &limiterStore{
		clients: make(map[string]*clientLimiter),
		cfg:     cfg,
		now:     time.Now,
	}
}

func (s *limiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) > s.cfg.IdleTTL {
		for k, cl := range s.clients {
			if now.Sub(cl.lastSeen) > s.cfg.IdleTTL {
				delete(s.clients, k)
			}
		}
		s.lastSweep = now
	}

	cl, ok := s.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(s.cfg.RequestsPerSecond), s.cfg.BurstSize)}
		s.clients[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

func (s *limiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// RateLimit limits each client IP to a token bucket. A zero
// RequestsPerSecond disables limiting.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	if cfg.RequestsPerSecond <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	store := newLimiterStore(cfg)
	limit := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', -1, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			lim := store.get(c.RealIP())
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)

			r := lim.Reserve()
			if !r.OK() {
				h.Set("Retry-After", "1")
				h.Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			if delay := r.Delay(); delay > 0 {
				r.Cancel()
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
				h.Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
