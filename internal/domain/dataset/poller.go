package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yanqian/uv-australia/internal/domain/uvindex"
	"github.com/yanqian/uv-australia/pkg/metrics"
	"github.com/yanqian/uv-australia/pkg/util"
)

var (
	// ErrEmptyDataset marks a fetch that returned no readings.
	ErrEmptyDataset = errors.New("dataset: upstream returned no readings")
	// ErrMalformedDataset marks a fetch containing unidentifiable readings.
	ErrMalformedDataset = errors.New("dataset: upstream returned malformed readings")
)

const (
	defaultInterval = 1800 * time.Second
	defaultTimeout  = 15 * time.Second
)

// Fetcher retrieves the full reading set from an upstream.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]uvindex.Reading, error)
}

// SnapshotCache persists the last good snapshot across restarts.
type SnapshotCache interface {
	LoadSnapshot(ctx context.Context) (*uvindex.Snapshot, bool, error)
	SaveSnapshot(ctx context.Context, snapshot *uvindex.Snapshot) error
}

// Config tunes the poll loop.
type Config struct {
	Interval time.Duration
	Timeout  time.Duration
	Source   string
}

// Status describes the freshness of the held snapshot and the last attempt.
type Status struct {
	FetchedAt           time.Time `json:"fetchedAt,omitempty"`
	Count               int       `json:"count"`
	Source              string    `json:"source,omitempty"`
	LastAttempt         time.Time `json:"lastAttempt,omitempty"`
	Failing             bool      `json:"failing"`
	LastError           string    `json:"lastError,omitempty"`
	ConsecutiveFailures int       `json:"consecutiveFailures"`
	Seeded              bool      `json:"seeded"`
}

// Poller keeps the Holder fresh. At most one fetch is in flight at any time.
type Poller struct {
	cfg     Config
	fetcher Fetcher
	cache   SnapshotCache
	holder  *Holder
	logger  *slog.Logger
	now     func() time.Time

	group singleflight.Group

	mu     sync.RWMutex
	status Status
}

// NewPoller builds a poller. cache may be nil.
func NewPoller(cfg Config, fetcher Fetcher, cache SnapshotCache, holder *Holder, logger *slog.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Poller{
		cfg:     cfg,
		fetcher: fetcher,
		cache:   cache,
		holder:  holder,
		logger:  logger.With("component", "dataset.poller"),
		now:     util.NowUTC,
	}
}

// Run seeds from the cache, fetches once, then polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.Seed(ctx)
	if _, err := p.Refresh(ctx); err != nil {
		p.logger.Warn("initial uv fetch failed", "error", err)
	}

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller shutting down")
			return
		case <-ticker.C:
			if _, err := p.Refresh(ctx); err != nil {
				p.logger.Warn("uv poll failed", "error", err)
			}
		}
	}
}

// Seed loads the cached snapshot when nothing fresher is held.
func (p *Poller) Seed(ctx context.Context) {
	if p.cache == nil || p.holder.Current() != nil {
		return
	}
	snapshot, ok, err := p.cache.LoadSnapshot(ctx)
	if err != nil {
		p.logger.Warn("load cached snapshot failed", "error", err)
		return
	}
	if !ok || snapshot.Len() == 0 {
		return
	}
	p.holder.Store(snapshot)
	p.mu.Lock()
	p.status.FetchedAt = snapshot.FetchedAt
	p.status.Count = snapshot.Len()
	p.status.Source = snapshot.Source
	p.status.Seeded = true
	p.mu.Unlock()
	metrics.SnapshotReadings.Set(float64(snapshot.Len()))
	metrics.SnapshotAge.Set(float64(snapshot.FetchedAt.Unix()))
	p.logger.Info("seeded snapshot from cache", "readings", snapshot.Len(), "fetchedAt", snapshot.FetchedAt)
}

// Refresh fetches now. Concurrent callers share one upstream call. A failed
// fetch leaves the held snapshot untouched and is reported via Status.
func (p *Poller) Refresh(ctx context.Context) (Status, error) {
	ch := p.group.DoChan("refresh", func() (any, error) {
		return nil, p.fetch(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return p.Status(), ctx.Err()
	case res := <-ch:
		return p.Status(), res.Err
	}
}

// Status returns a copy of the current status.
func (p *Poller) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

func (p *Poller) fetch(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	started := p.now()
	readings, err := p.fetcher.FetchAll(ctx)
	if err == nil {
		err = validate(readings)
	}
	if err != nil {
		p.recordFailure(started, err)
		return err
	}

	snapshot := uvindex.NewSnapshot(readings, started, p.cfg.Source)
	p.holder.Store(snapshot)

	p.mu.Lock()
	p.status = Status{
		FetchedAt:   snapshot.FetchedAt,
		Count:       snapshot.Len(),
		Source:      snapshot.Source,
		LastAttempt: started,
	}
	p.mu.Unlock()

	metrics.PollsTotal.WithLabelValues("success").Inc()
	metrics.SnapshotReadings.Set(float64(snapshot.Len()))
	metrics.SnapshotAge.Set(float64(snapshot.FetchedAt.Unix()))
	p.logger.Info("uv snapshot refreshed", "readings", snapshot.Len(), "source", snapshot.Source)

	if p.cache != nil {
		if err := p.cache.SaveSnapshot(ctx, snapshot); err != nil {
			p.logger.Warn("cache snapshot failed", "error", err)
		}
	}
	return nil
}

func (p *Poller) recordFailure(at time.Time, err error) {
	outcome := "error"
	if errors.Is(err, ErrEmptyDataset) || errors.Is(err, ErrMalformedDataset) {
		outcome = "invalid"
	}
	metrics.PollsTotal.WithLabelValues(outcome).Inc()

	p.mu.Lock()
	p.status.LastAttempt = at
	p.status.Failing = true
	p.status.LastError = err.Error()
	p.status.ConsecutiveFailures++
	failures := p.status.ConsecutiveFailures
	p.mu.Unlock()

	p.logger.Error("uv fetch failed, keeping previous snapshot", "error", err, "consecutiveFailures", failures)
}

func validate(readings []uvindex.Reading) error {
	if len(readings) == 0 {
		return ErrEmptyDataset
	}
	for i, r := range readings {
		if strings.TrimSpace(r.LocationID) == "" {
			return fmt.Errorf("%w: reading %d has no location id", ErrMalformedDataset, i)
		}
	}
	return nil
}
