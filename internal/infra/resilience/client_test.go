package resilience

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/require"
)

func testConfig(name string) Config {
	return Config{
		Name:            name,
		Timeout:         time.Second,
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
	}
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		require.Equal(t, "application/xml", r.Header.Get("Accept"))
		_, _ = w.Write([]byte("<stations/>"))
	}))
	defer srv.Close()

	client := NewClient(testConfig("retry"), discardLogger())
	body, err := client.Get(context.Background(), srv.URL, "application/xml")
	require.NoError(t, err)
	require.Equal(t, "<stations/>", string(body))
	require.Equal(t, int32(3), calls.Load())
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(testConfig("client-error"), discardLogger())
	_, err := client.Get(context.Background(), srv.URL, "")
	var status *StatusError
	require.True(t, errors.As(err, &status))
	require.Equal(t, http.StatusNotFound, status.StatusCode)
	require.Equal(t, int32(1), calls.Load())
	require.Equal(t, gobreaker.StateClosed, client.State())
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testConfig("breaker")
	cfg.FailureThreshold = 3
	client := NewClient(cfg, discardLogger())

	_, err := client.Get(context.Background(), srv.URL, "")
	require.Error(t, err)
	require.Equal(t, gobreaker.StateOpen, client.State())

	before := calls.Load()
	_, err = client.Get(context.Background(), srv.URL, "")
	require.ErrorIs(t, err, ErrCircuitOpen)
	require.Equal(t, before, calls.Load())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
