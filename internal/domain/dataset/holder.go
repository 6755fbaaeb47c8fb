package dataset

import (
	"sync/atomic"

	"github.com/yanqian/uv-australia/internal/domain/uvindex"
)

// Holder publishes the current snapshot. Swaps are atomic; readers never see a
// partially built snapshot.
type Holder struct {
	current atomic.Pointer[uvindex.Snapshot]
}

// NewHolder returns an empty holder.
func NewHolder() *Holder {
	return &Holder{}
}

// Current returns the latest snapshot or nil before the first successful fetch.
func (h *Holder) Current() *uvindex.Snapshot {
	return h.current.Load()
}

// Store replaces the snapshot wholesale.
func (h *Holder) Store(s *uvindex.Snapshot) {
	h.current.Store(s)
}
