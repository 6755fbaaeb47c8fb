package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yanqian/uv-australia/internal/domain/dataset"
	"github.com/yanqian/uv-australia/internal/domain/locquery"
	"github.com/yanqian/uv-australia/internal/domain/uvindex"
)

// MemoryStore keeps the snapshot and search trends in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshot  *uvindex.Snapshot
	expiresAt time.Time
	ttl       time.Duration
	trending  map[string]int64
	displays  map[string]string
}

// NewMemoryStore constructs a store backed by process memory. ttl <= 0 never expires.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		trending: make(map[string]int64),
		displays: make(map[string]string),
	}
}

// LoadSnapshot implements dataset.SnapshotCache.
func (s *MemoryStore) LoadSnapshot(_ context.Context) (*uvindex.Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil || hasExpired(s.expiresAt) {
		return nil, false, nil
	}
	return s.snapshot, true, nil
}

// SaveSnapshot implements dataset.SnapshotCache.
func (s *MemoryStore) SaveSnapshot(_ context.Context, snapshot *uvindex.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot
	s.expiresAt = time.Time{}
	if s.ttl > 0 {
		s.expiresAt = time.Now().Add(s.ttl)
	}
	return nil
}

// IncrementQuery bumps the counter for a canonical query and records a display string.
func (s *MemoryStore) IncrementQuery(_ context.Context, canonical, display string) error {
	if canonical == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trending[canonical]++
	if _, exists := s.displays[canonical]; !exists {
		s.displays[canonical] = display
	}
	return nil
}

// TopQueries returns the most frequent searches.
func (s *MemoryStore) TopQueries(_ context.Context, limit int) ([]locquery.TrendingQuery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = len(s.trending)
	}
	items := make([]locquery.TrendingQuery, 0, len(s.trending))
	for canonical, count := range s.trending {
		display := s.displays[canonical]
		if display == "" {
			display = canonical
		}
		items = append(items, locquery.TrendingQuery{Query: display, Count: count})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count == items[j].Count {
			return items[i].Query < items[j].Query
		}
		return items[i].Count > items[j].Count
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func hasExpired(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return ts.Before(time.Now())
}

var (
	_ dataset.SnapshotCache = (*MemoryStore)(nil)
	_ locquery.TrendStore   = (*MemoryStore)(nil)
)
