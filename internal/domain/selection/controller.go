// Package selection holds the single currently selected location and the
// actions that replace it.
package selection

import (
	"errors"
	"sync"

	"github.com/yanqian/uv-australia/internal/domain/uvindex"
	"github.com/yanqian/uv-australia/pkg/metrics"
)

// ErrStale is returned by DispatchTicket when a later transition already committed.
var ErrStale = errors.New("selection: stale completion rejected")

// ActionKind names the transition that produced a state.
type ActionKind string

const (
	ActionSearchResolved      ActionKind = "search_resolved"
	ActionMarkerClicked       ActionKind = "marker_clicked"
	ActionGeolocationResolved ActionKind = "geolocation_resolved"
	ActionReset               ActionKind = "reset"
)

// Action is a typed state transition.
type Action struct {
	Kind    ActionKind      `json:"kind"`
	Reading uvindex.Reading `json:"reading"`
}

func SearchResolved(r uvindex.Reading) Action {
	return Action{Kind: ActionSearchResolved, Reading: r}
}

func MarkerClicked(r uvindex.Reading) Action {
	return Action{Kind: ActionMarkerClicked, Reading: r}
}

func GeolocationResolved(r uvindex.Reading) Action {
	return Action{Kind: ActionGeolocationResolved, Reading: r}
}

func Reset() Action {
	return Action{Kind: ActionReset}
}

// State is either Idle or Selected(Reading).
type State struct {
	Selected bool             `json:"selected"`
	Reading  *uvindex.Reading `json:"reading,omitempty"`
	Version  uint64           `json:"version"`
}

// IsIdle reports whether nothing is selected.
func (s State) IsIdle() bool {
	return !s.Selected
}

// Listener observes committed transitions.
type Listener func(prev, next State, action Action)

// Ticket marks when an asynchronous resolution started.
type Ticket struct {
	seq uint64
}

// Controller serialises transitions. Listeners run synchronously, in dispatch
// order, and must not dispatch back into the controller.
type Controller struct {
	mu          sync.Mutex
	state       State
	listeners   []Listener
	issued      uint64
	committed   uint64
	rejectStale bool
}

// NewController starts Idle. With rejectStale, DispatchTicket drops completions
// begun before an already committed transition; otherwise the last completion wins.
func NewController(rejectStale bool) *Controller {
	return &Controller{rejectStale: rejectStale}
}

// Current returns the committed state.
func (c *Controller) Current() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers a listener for subsequent transitions.
func (c *Controller) Subscribe(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Begin reserves a ticket for a resolution that will complete later.
func (c *Controller) Begin() Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued++
	return Ticket{seq: c.issued}
}

// Dispatch applies a transition immediately.
func (c *Controller) Dispatch(a Action) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued++
	return c.commit(c.issued, a)
}

// DispatchTicket applies a transition that was begun with Begin.
func (c *Controller) DispatchTicket(t Ticket, a Action) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rejectStale && t.seq < c.committed {
		return c.state, ErrStale
	}
	return c.commit(t.seq, a), nil
}

func (c *Controller) commit(seq uint64, a Action) State {
	prev := c.state
	next := State{Version: prev.Version + 1}
	if a.Kind != ActionReset {
		reading := a.Reading
		next.Selected = true
		next.Reading = &reading
	}
	c.state = next
	if seq > c.committed {
		c.committed = seq
	}
	metrics.SelectionTransitions.WithLabelValues(string(a.Kind)).Inc()
	for _, l := range c.listeners {
		l(prev, next, a)
	}
	return next
}
