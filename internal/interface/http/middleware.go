package http

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/uv-australia/internal/infra/config"
	"github.com/yanqian/uv-australia/pkg/metrics"
)

func errorHandlingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		httpErr := asHTTPError(c.Errors.Last().Err)
		message := httpErr.Message
		if message == "" {
			message = httpErr.Error()
		}

		attrs := []any{"code", httpErr.Code, "status", httpErr.Status, "path", c.Request.URL.Path, "error", httpErr.Err}
		if id := c.Param("id"); id != "" {
			attrs = append(attrs, "session", id)
		}
		if httpErr.Status >= http.StatusInternalServerError {
			logger.Error("request failed", attrs...)
		} else {
			logger.Warn("request failed", attrs...)
		}

		c.JSON(httpErr.Status, gin.H{
			"error": gin.H{
				"code":    httpErr.Code,
				"message": message,
			},
		})
	}
}

// Health checks are never limited.
var unlimitedPaths = map[string]struct{}{
	"/healthz": {},
	"/metrics": {},
}

func rateLimitMiddleware(cfg config.RateLimitConfig, logger *slog.Logger) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RequestsPerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiter := newIPRateLimiter(cfg)
	retryAfter := strconv.Itoa(int(math.Ceil(60 / float64(cfg.RequestsPerMinute))))
	return func(c *gin.Context) {
		if _, skip := unlimitedPaths[c.Request.URL.Path]; skip {
			c.Next()
			return
		}
		ip := c.ClientIP()
		if limiter.allow(ip, time.Now()) {
			c.Next()
			return
		}
		metrics.RateLimited.Inc()
		logger.Warn("rate limit exceeded", "ip", ip, "path", c.Request.URL.Path)
		c.Header("Retry-After", retryAfter)
		abortWithError(c, NewHTTPError(http.StatusTooManyRequests, "rate_limit_exceeded", "too many requests", nil))
	}
}

// ipRateLimiter is a token bucket per client IP. Idle visitors are swept at
// most once per sweepEvery.
type ipRateLimiter struct {
	mu            sync.Mutex
	visitors      map[string]*visitor
	ratePerMinute float64
	burst         float64
	ttl           time.Duration
	sweepEvery    time.Duration
	lastSweep     time.Time
}

type visitor struct {
	tokens   float64
	lastSeen time.Time
}

func newIPRateLimiter(cfg config.RateLimitConfig) *ipRateLimiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &ipRateLimiter{
		visitors:      make(map[string]*visitor),
		ratePerMinute: float64(cfg.RequestsPerMinute),
		burst:         float64(burst),
		ttl:           5 * time.Minute,
		sweepEvery:    time.Minute,
	}
}

func (l *ipRateLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.sweepEvery {
		l.sweepLocked(now)
		l.lastSweep = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{tokens: l.burst, lastSeen: now}
		l.visitors[ip] = v
	} else if elapsed := now.Sub(v.lastSeen).Minutes(); elapsed > 0 {
		v.tokens = math.Min(l.burst, v.tokens+elapsed*l.ratePerMinute)
		v.lastSeen = now
	}
	if v.tokens < 1 {
		return false
	}
	v.tokens--
	return true
}

func (l *ipRateLimiter) sweepLocked(now time.Time) {
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.ttl {
			delete(l.visitors, ip)
		}
	}
}
