// Package resilience wraps upstream HTTP calls with retries and a circuit breaker.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"

	"github.com/yanqian/uv-australia/pkg/metrics"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

const maxBodyBytes = 4 << 20

// Config tunes one upstream client.
type Config struct {
	Name            string
	Timeout         time.Duration
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// Breaker trips after this many consecutive failures; 0 means 5.
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// StatusError is a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status=%d body=%s", e.StatusCode, e.Body)
}

// Client performs GET requests with bounded retries behind a circuit breaker.
type Client struct {
	cfg        Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     *slog.Logger
}

// NewClient fills zero values with defaults.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 200 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 5 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = time.Minute
	}
	log := logger.With("component", "resilience.client", "upstream", cfg.Name)
	threshold := cfg.FailureThreshold
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			var status *StatusError
			if errors.As(err, &status) {
				return status.StatusCode < 500
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "from", from.String(), "to", to.String())
		},
	})
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
		logger:     log,
	}
}

// Get fetches url and returns the body of a 2xx response. 5xx and network
// failures are retried with exponential backoff; 4xx responses are not.
func (c *Client) Get(ctx context.Context, url, accept string) ([]byte, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.InitialInterval
	bo.MaxInterval = c.cfg.MaxInterval
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.cfg.MaxRetries), ctx)

	var body []byte
	operation := func() error {
		started := time.Now()
		out, err := c.breaker.Execute(func() ([]byte, error) {
			return c.do(ctx, url, accept)
		})
		metrics.UpstreamLatency.WithLabelValues(c.cfg.Name).Observe(time.Since(started).Seconds())
		metrics.UpstreamCallsTotal.WithLabelValues(c.cfg.Name, outcome(err)).Inc()
		if err == nil {
			body = out
			return nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(ErrCircuitOpen)
		}
		var status *StatusError
		if errors.As(err, &status) && status.StatusCode < 500 {
			return backoff.Permanent(err)
		}
		c.logger.Debug("upstream call failed, retrying", "error", err)
		return err
	}
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return body, nil
}

// State exposes the breaker state for health reporting.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

func (c *Client) do(ctx context.Context, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", c.cfg.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(payload)}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s body: %w", c.cfg.Name, err)
	}
	return body, nil
}

func outcome(err error) string {
	var status *StatusError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &status):
		return strconv.Itoa(status.StatusCode)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "circuit_open"
	default:
		return "error"
	}
}
