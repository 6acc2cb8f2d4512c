package http

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	apperrors "github.com/spec-kit/issue-tracker/pkg/util/errorutil"
)

// RateLimitConfig bounds requests per client IP.
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
}

type ipLimiter struct {
	limiters    sync.Map // map[string]*rate.Limiter
	rate        rate.Limit
	burst       int
	mu          sync.Mutex
	lastCleanup time.Time
}

func (l *ipLimiter) get(key string) *rate.Limiter {
	if limiter, ok := l.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}
	actual, _ := l.limiters.LoadOrStore(key, rate.NewLimiter(l.rate, l.burst))
	l.maybeCleanup()
	return actual.(*rate.Limiter)
}

// maybeCleanup drops limiters with a full bucket; their clients have been idle.
func (l *ipLimiter) maybeCleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if time.Since(l.lastCleanup) < 5*time.Minute {
		return
	}
	l.lastCleanup = time.Now()
	l.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(l.burst) {
			l.limiters.Delete(key)
		}
		return true
	})
}

// RateLimitByIP rejects clients exceeding cfg with 429 and a Retry-After hint.
func RateLimitByIP(cfg RateLimitConfig, logger *zap.Logger) fiber.Handler {
	if cfg.RequestsPerWindow <= 0 || cfg.Window <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.RequestsPerWindow
	}
	l := &ipLimiter{
		rate:        rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()),
		burst:       burst,
		lastCleanup: time.Now(),
	}
	return func(c *fiber.Ctx) error {
		limiter := l.get(c.IP())
		if limiter.Allow() {
			return c.Next()
		}
		reservation := limiter.Reserve()
		delay := reservation.Delay()
		reservation.Cancel()

		retryAfter := max(int(delay.Seconds()), 1)
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
		logger.Warn("rate limit exceeded", zap.String("ip", c.IP()), zap.String("path", c.Path()))
		return apperrors.NewTooManyRequests()
	}
}
