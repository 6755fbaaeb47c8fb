package dataset

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/uv-australia/internal/domain/uvindex"
)

func TestPollerEmptyFetchKeepsPreviousSnapshot(t *testing.T) {
	fetcher := &stubFetcher{results: [][]uvindex.Reading{fiveReadings(), {}}}
	holder := NewHolder()
	poller := newTestPoller(fetcher, nil, holder)

	_, err := poller.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, holder.Current().Len())
	require.False(t, poller.Status().Failing)

	status, err := poller.Refresh(context.Background())
	require.ErrorIs(t, err, ErrEmptyDataset)
	require.Equal(t, 5, holder.Current().Len())
	require.True(t, status.Failing)
	require.Equal(t, 5, status.Count)
	require.NotEmpty(t, status.LastError)
	require.Equal(t, 1, status.ConsecutiveFailures)
}

func TestPollerMalformedAndErrorFetchesAreFailures(t *testing.T) {
	bad := fiveReadings()
	bad[2].LocationID = " "
	fetcher := &stubFetcher{
		results: [][]uvindex.Reading{fiveReadings(), bad, nil},
		errs:    []error{nil, nil, errors.New("upstream down")},
	}
	holder := NewHolder()
	poller := newTestPoller(fetcher, nil, holder)

	_, err := poller.Refresh(context.Background())
	require.NoError(t, err)
	first := holder.Current()

	_, err = poller.Refresh(context.Background())
	require.ErrorIs(t, err, ErrMalformedDataset)
	require.Same(t, first, holder.Current())

	status, err := poller.Refresh(context.Background())
	require.ErrorContains(t, err, "upstream down")
	require.Same(t, first, holder.Current())
	require.Equal(t, 2, status.ConsecutiveFailures)
}

func TestPollerRecoveryClearsFailure(t *testing.T) {
	fetcher := &stubFetcher{
		results: [][]uvindex.Reading{nil, fiveReadings()},
		errs:    []error{errors.New("timeout"), nil},
	}
	poller := newTestPoller(fetcher, nil, NewHolder())

	status, err := poller.Refresh(context.Background())
	require.Error(t, err)
	require.True(t, status.Failing)

	status, err = poller.Refresh(context.Background())
	require.NoError(t, err)
	require.False(t, status.Failing)
	require.Empty(t, status.LastError)
	require.Zero(t, status.ConsecutiveFailures)
}

func TestPollerSeedsFromCacheAndWritesThrough(t *testing.T) {
	cached := uvindex.NewSnapshot(fiveReadings()[:3], time.Unix(100, 0).UTC(), "cache")
	cache := &stubCache{snapshot: cached}
	holder := NewHolder()
	poller := newTestPoller(&stubFetcher{results: [][]uvindex.Reading{fiveReadings()}}, cache, holder)

	poller.Seed(context.Background())
	require.Same(t, cached, holder.Current())
	require.True(t, poller.Status().Seeded)

	_, err := poller.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, holder.Current().Len())
	require.Equal(t, 1, cache.saves)
	require.Equal(t, 5, cache.snapshot.Len())

	// Seeding never overwrites a fresher snapshot.
	poller.Seed(context.Background())
	require.Equal(t, 5, holder.Current().Len())
}

func TestPollerCoalescesConcurrentRefreshes(t *testing.T) {
	release := make(chan struct{})
	fetcher := &blockingFetcher{release: release}
	poller := newTestPoller(fetcher, nil, NewHolder())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = poller.Refresh(context.Background())
		}()
	}
	require.Eventually(t, func() bool { return fetcher.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	require.Equal(t, int32(1), fetcher.calls.Load())
}

func TestPollerRunFetchesOnStartAndStops(t *testing.T) {
	fetcher := &stubFetcher{results: [][]uvindex.Reading{fiveReadings()}}
	holder := NewHolder()
	poller := NewPoller(Config{Interval: time.Hour, Timeout: time.Second, Source: "test"}, fetcher, nil, holder, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return holder.Current().Len() == 5 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func newTestPoller(fetcher Fetcher, cache SnapshotCache, holder *Holder) *Poller {
	p := NewPoller(Config{Interval: time.Hour, Timeout: time.Second, Source: "test"}, fetcher, cache, holder, discardLogger())
	p.now = func() time.Time { return time.Unix(1_700_000_000, 0).UTC() }
	return p
}

func fiveReadings() []uvindex.Reading {
	return []uvindex.Reading{
		{LocationID: "Adelaide", UV: 4.1},
		{LocationID: "Brisbane", UV: 8.3},
		{LocationID: "Melbourne", UV: 7.2},
		{LocationID: "Perth", UV: 2.2},
		{LocationID: "Sydney", UV: 5.5},
	}
}

type stubFetcher struct {
	mu      sync.Mutex
	results [][]uvindex.Reading
	errs    []error
	calls   int
}

func (s *stubFetcher) FetchAll(ctx context.Context) ([]uvindex.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	if err != nil {
		return nil, err
	}
	if i < len(s.results) {
		return s.results[i], nil
	}
	return nil, nil
}

type blockingFetcher struct {
	release chan struct{}
	calls   atomic.Int32
}

func (b *blockingFetcher) FetchAll(ctx context.Context) ([]uvindex.Reading, error) {
	b.calls.Add(1)
	<-b.release
	return fiveReadings(), nil
}

type stubCache struct {
	snapshot *uvindex.Snapshot
	saves    int
}

func (s *stubCache) LoadSnapshot(ctx context.Context) (*uvindex.Snapshot, bool, error) {
	return s.snapshot, s.snapshot != nil, nil
}

func (s *stubCache) SaveSnapshot(ctx context.Context, snapshot *uvindex.Snapshot) error {
	s.snapshot = snapshot
	s.saves++
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
