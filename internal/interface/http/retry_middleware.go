package http

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/yanqian/uv-australia/internal/infra/config"
)

// withRetry replays idempotent GET requests that ended in an upstream outage.
func withRetry(handler http.Handler, cfg config.RetryConfig, logger *slog.Logger) http.Handler {
	if !cfg.Enabled || cfg.MaxAttempts <= 1 {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || excluded(r.URL.Path, cfg.Exclude) {
			handler.ServeHTTP(w, r)
			return
		}

		for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
			if attempt > 1 {
				delay := cfg.BaseBackoff * time.Duration(1<<(attempt-2))
				select {
				case <-r.Context().Done():
					return
				case <-time.After(delay):
				}
			}

			recorder := newRetryResponseRecorder(w)
			handler.ServeHTTP(recorder, r.Clone(r.Context()))
			if !recorder.retryable() || attempt == cfg.MaxAttempts {
				recorder.Commit()
				return
			}

			logger.Warn("upstream unavailable, retrying request", "path", r.URL.Path, "status", recorder.statusCode, "attempt", attempt)
		}
	})
}

// excluded matches exact paths, or any path below an entry ending in "/".
func excluded(path string, patterns []string) bool {
	for _, p := range patterns {
		if path == p || (strings.HasSuffix(p, "/") && strings.HasPrefix(path, p)) {
			return true
		}
	}
	return false
}

type retryResponseRecorder struct {
	dst        http.ResponseWriter
	header     http.Header
	body       bytes.Buffer
	statusCode int
	wroteHead  bool
}

func newRetryResponseRecorder(dst http.ResponseWriter) *retryResponseRecorder {
	return &retryResponseRecorder{
		dst:        dst,
		header:     make(http.Header),
		statusCode: http.StatusOK,
	}
}

func (r *retryResponseRecorder) Header() http.Header {
	return r.header
}

func (r *retryResponseRecorder) WriteHeader(status int) {
	if r.wroteHead {
		return
	}
	r.statusCode = status
	r.wroteHead = true
}

func (r *retryResponseRecorder) Write(b []byte) (int, error) {
	return r.body.Write(b)
}

func (r *retryResponseRecorder) Commit() {
	dstHeader := r.dst.Header()
	for k := range dstHeader {
		dstHeader.Del(k)
	}
	for k, values := range r.header {
		copied := make([]string, len(values))
		copy(copied, values)
		dstHeader[k] = copied
	}
	if !r.wroteHead {
		r.statusCode = http.StatusOK
	}
	r.dst.WriteHeader(r.statusCode)
	if r.body.Len() > 0 {
		_, _ = r.dst.Write(r.body.Bytes())
	}
}

// retryable covers upstream outages only; handler bugs are not retried.
func (r *retryResponseRecorder) retryable() bool {
	switch r.statusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func (r *retryResponseRecorder) Flush() {}
