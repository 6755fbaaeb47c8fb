package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/uv-australia/internal/infra/config"
)

func TestIPRateLimiterRefills(t *testing.T) {
	limiter := newIPRateLimiter(config.RateLimitConfig{Enabled: true, RequestsPerMinute: 60, Burst: 2})
	now := time.Now()

	require.True(t, limiter.allow("1.1.1.1", now))
	require.True(t, limiter.allow("1.1.1.1", now))
	require.False(t, limiter.allow("1.1.1.1", now))
	require.True(t, limiter.allow("2.2.2.2", now), "buckets are per ip")

	require.True(t, limiter.allow("1.1.1.1", now.Add(2*time.Second)))
}

func TestIPRateLimiterSweepsIdleVisitors(t *testing.T) {
	limiter := newIPRateLimiter(config.RateLimitConfig{Enabled: true, RequestsPerMinute: 60, Burst: 1})
	now := time.Now()
	limiter.allow("1.1.1.1", now)
	limiter.allow("2.2.2.2", now.Add(10*time.Minute))

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	require.Len(t, limiter.visitors, 1)
	require.Contains(t, limiter.visitors, "2.2.2.2")
}

func TestRouter_RateLimitSkipsHealthChecks(t *testing.T) {
	server, _ := newRouterUnderTestWithConfig(t, &stubRefresher{}, config.HTTPConfig{
		Address:   ":0",
		RateLimit: config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1},
	})

	rec := performRequest(server, http.MethodGet, "/api/v1/skin-types", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = performRequest(server, http.MethodGet, "/api/v1/skin-types", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))

	for i := 0; i < 3; i++ {
		rec = performRequest(server, http.MethodGet, "/healthz", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	server, _ := newRouterUnderTest(t, &stubRefresher{})
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sessions", nil)
	req.Header.Set("Origin", "https://map.example")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PUT")
}
