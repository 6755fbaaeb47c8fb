package session

import (
	"context"
	"time"

	"github.com/yanqian/uv-australia/internal/domain/mapsync"
	"github.com/yanqian/uv-australia/internal/domain/selection"
	"github.com/yanqian/uv-australia/internal/domain/uvadvisor"
	"github.com/yanqian/uv-australia/internal/domain/uvindex"
)

// Locator resolves user input to readings. Implemented by the in-process
// lookup service and the remote backend client.
type Locator interface {
	ByPostcode(ctx context.Context, postcode string) (uvindex.Reading, error)
	ByCityName(ctx context.Context, name string) (uvindex.Reading, error)
	ByCoordinates(ctx context.Context, lat, lng float64) (uvindex.Reading, error)
}

// SnapshotSource exposes the current snapshot for marker clicks.
type SnapshotSource interface {
	Current() *uvindex.Snapshot
}

// Advisor builds the personalised advice panel.
type Advisor interface {
	Advise(ctx context.Context, reading uvindex.Reading, skin uvadvisor.Phototype) (uvadvisor.Advice, error)
}

// Config tunes sessions.
type Config struct {
	IdleTTL        time.Duration
	ResolveTimeout time.Duration
	RejectStale    bool
	EventBuffer    int
	TrendingLimit  int
}

// Error is the user-visible failure of the last operation.
type Error struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Event types pushed to subscribers.
const (
	EventCamera    = "camera"
	EventAlert     = "alert"
	EventSelection = "selection"
	EventSkinType  = "skin_type"
)

// Event is one outward message.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// SelectionChange is the payload of a selection event.
type SelectionChange struct {
	Action selection.ActionKind `json:"action"`
	State  selection.State      `json:"state"`
}

// View is everything a client renders for one session.
type View struct {
	ID         string                   `json:"id"`
	Selection  selection.State          `json:"selection"`
	Derived    *uvindex.Derived         `json:"derived,omitempty"`
	SkinType   *uvadvisor.PhototypeInfo `json:"skinType,omitempty"`
	Advice     *uvadvisor.Advice        `json:"advice,omitempty"`
	Error      *Error                   `json:"error,omitempty"`
	Viewport   mapsync.Viewport         `json:"viewport"`
	Superseded bool                     `json:"superseded,omitempty"`
}
