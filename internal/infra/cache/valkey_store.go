package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/uv-australia/internal/domain/dataset"
	"github.com/yanqian/uv-australia/internal/domain/locquery"
	"github.com/yanqian/uv-australia/internal/domain/uvindex"
)

// ValkeyStore persists the snapshot and search trends in a Valkey-compatible database.
type ValkeyStore struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string, ttl time.Duration) *ValkeyStore {
	if prefix == "" {
		prefix = "uvau"
	}
	return &ValkeyStore{client: client, prefix: prefix, ttl: ttl}
}

// LoadSnapshot implements dataset.SnapshotCache.
func (s *ValkeyStore) LoadSnapshot(ctx context.Context) (*uvindex.Snapshot, bool, error) {
	payload, err := s.client.Do(ctx, s.client.B().Get().Key(s.snapshotKey()).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var snapshot uvindex.Snapshot
	if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
		return nil, false, fmt.Errorf("decode cached snapshot: %w", err)
	}
	return &snapshot, true, nil
}

// SaveSnapshot implements dataset.SnapshotCache.
func (s *ValkeyStore) SaveSnapshot(ctx context.Context, snapshot *uvindex.Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return s.setString(ctx, s.snapshotKey(), string(payload), s.ttl)
}

// IncrementQuery implements locquery.TrendStore.
func (s *ValkeyStore) IncrementQuery(ctx context.Context, canonical, display string) error {
	if canonical == "" {
		return nil
	}
	if err := s.client.Do(ctx, s.client.B().Zincrby().Key(s.trendingKey()).Increment(1).Member(canonical).Build()).Error(); err != nil {
		return err
	}
	if display != "" {
		_ = s.client.Do(ctx, s.client.B().Set().Key(s.displayKey(canonical)).Value(display).Nx().Build()).Error()
	}
	return nil
}

// TopQueries implements locquery.TrendStore.
func (s *ValkeyStore) TopQueries(ctx context.Context, limit int) ([]locquery.TrendingQuery, error) {
	if limit <= 0 {
		limit = 10
	}
	resp := s.client.Do(ctx, s.client.B().Zrevrange().Key(s.trendingKey()).Start(0).Stop(int64(limit-1)).Withscores().Build())
	arr, err := resp.ToArray()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]locquery.TrendingQuery, 0, len(arr))
	for i := 0; i < len(arr); {
		var (
			member string
			score  float64
		)
		if tuple, tupleErr := arr[i].ToArray(); tupleErr == nil && len(tuple) == 2 {
			// RESP3 returns [member, score] per element
			if member, err = tuple[0].ToString(); err != nil {
				return nil, err
			}
			if score, err = tuple[1].ToFloat64(); err != nil {
				return nil, err
			}
			i++
		} else {
			// RESP2 returns a flat alternating array.
			if i+1 >= len(arr) {
				break
			}
			if member, err = arr[i].ToString(); err != nil {
				return nil, err
			}
			if score, err = arr[i+1].ToFloat64(); err != nil {
				return nil, err
			}
			i += 2
		}
		out = append(out, locquery.TrendingQuery{Query: s.fetchDisplay(ctx, member), Count: int64(score)})
	}
	return out, nil
}

func (s *ValkeyStore) fetchDisplay(ctx context.Context, canonical string) string {
	display, err := s.client.Do(ctx, s.client.B().Get().Key(s.displayKey(canonical)).Build()).ToString()
	if err != nil || display == "" {
		return canonical
	}
	return display
}

func (s *ValkeyStore) setString(ctx context.Context, key, value string, ttl time.Duration) error {
	builder := s.client.B().Set().Key(key).Value(value)
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) snapshotKey() string {
	return fmt.Sprintf("%s:snapshot", s.prefix)
}

func (s *ValkeyStore) trendingKey() string {
	return fmt.Sprintf("%s:trending", s.prefix)
}

func (s *ValkeyStore) displayKey(canonical string) string {
	return fmt.Sprintf("%s:display:%s", s.prefix, canonical)
}

var (
	_ dataset.SnapshotCache = (*ValkeyStore)(nil)
	_ locquery.TrendStore   = (*ValkeyStore)(nil)
)
