// Package session holds per-user UI state: the selection, the chosen skin
// type, the map adapter and the outward event stream.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/yanqian/uv-australia/internal/domain/locquery"
	"github.com/yanqian/uv-australia/internal/domain/mapsync"
	"github.com/yanqian/uv-australia/internal/domain/selection"
	"github.com/yanqian/uv-australia/internal/domain/uvadvisor"
	"github.com/yanqian/uv-australia/internal/domain/uvindex"
	apperrors "github.com/yanqian/uv-australia/pkg/errors"
	"github.com/yanqian/uv-australia/pkg/util"
)

// Session serialises one user's interactions. It never calls into the
// selection controller while holding its own locks.
type Session struct {
	id        string
	cfg       Config
	locator   Locator
	snapshots SnapshotSource
	advisor   Advisor
	trends    locquery.TrendStore
	logger    *slog.Logger
	now       func() time.Time

	controller *selection.Controller
	adapter    *mapsync.Adapter

	mu           sync.Mutex
	skin         uvadvisor.Phototype
	lastErr      *Error
	searchSeq    uint64
	searchCancel context.CancelFunc
	lastSeen     time.Time
	advice       *cachedAdvice

	subMu       sync.Mutex
	subscribers map[int]chan Event
	nextSub     int
	closed      bool
}

func newSession(id string, cfg Config, deps dependencies, logger *slog.Logger) *Session {
	s := &Session{
		id:          id,
		cfg:         cfg,
		locator:     deps.locator,
		snapshots:   deps.snapshots,
		advisor:     deps.advisor,
		trends:      deps.trends,
		logger:      logger.With("component", "session", "session", id),
		now:         util.NowUTC,
		controller:  selection.NewController(cfg.RejectStale),
		subscribers: make(map[int]chan Event),
	}
	s.lastSeen = s.now()
	s.adapter = mapsync.NewAdapter(s, deps.locator, s.controller, s.logger)
	s.controller.Subscribe(s.adapter.OnSelection)
	s.controller.Subscribe(s.onSelection)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Search parses text and resolves it. A newer search cancels this one; a
// cancelled or superseded search leaves the state untouched.
func (s *Session) Search(ctx context.Context, text string) (View, error) {
	s.touch()
	query, err := locquery.Parse(text)
	if err != nil {
		err = s.fail(apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), err))
		return s.View(ctx), err
	}

	ticket := s.controller.Begin()
	searchCtx, cancel := context.WithTimeout(ctx, s.resolveTimeout())
	defer cancel()

	s.mu.Lock()
	if s.searchCancel != nil {
		s.searchCancel()
	}
	s.searchSeq++
	seq := s.searchSeq
	s.searchCancel = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.searchSeq == seq {
			s.searchCancel = nil
		}
		s.mu.Unlock()
	}()

	var reading uvindex.Reading
	if query.IsPostcode() {
		reading, err = s.locator.ByPostcode(searchCtx, query.Value())
	} else {
		reading, err = s.locator.ByCityName(searchCtx, query.Value())
	}

	if s.superseded(seq) {
		s.logger.Debug("superseded search result ignored", "query", query.String(), "error", err)
		view := s.View(ctx)
		view.Superseded = true
		return view, nil
	}
	if err != nil {
		if errors.Is(searchCtx.Err(), context.DeadlineExceeded) {
			err = apperrors.Wrap(apperrors.CodeFetch, "the UV lookup timed out", err)
		}
		err = s.fail(err)
		return s.View(ctx), err
	}

	if _, err := s.controller.DispatchTicket(ticket, selection.SearchResolved(reading)); err != nil {
		s.logger.Debug("stale search completion rejected", "query", query.String())
		view := s.View(ctx)
		view.Superseded = true
		return view, nil
	}
	s.clearError()
	s.recordTrend(ctx, query)
	return s.View(ctx), nil
}

// MarkerClicked selects a reading from the current snapshot.
func (s *Session) MarkerClicked(ctx context.Context, locationID string) (View, error) {
	s.touch()
	reading, ok := s.snapshots.Current().ByLocationID(locationID)
	if !ok {
		err := s.fail(apperrors.Wrap(apperrors.CodeNotFound, "no UV reading for "+locationID, nil))
		return s.View(ctx), err
	}
	s.controller.Dispatch(selection.MarkerClicked(reading))
	s.clearError()
	return s.View(ctx), nil
}

// LocationFound resolves a device position to the nearest reading.
func (s *Session) LocationFound(ctx context.Context, lat, lng float64) (View, error) {
	s.touch()
	lookupCtx, cancel := context.WithTimeout(ctx, s.resolveTimeout())
	defer cancel()
	// The adapter publishes the alert, which records the error.
	if err := s.adapter.LocationFound(lookupCtx, lat, lng); err != nil {
		if errors.Is(err, selection.ErrStale) {
			view := s.View(ctx)
			view.Superseded = true
			return view, nil
		}
		return s.View(ctx), err
	}
	s.clearError()
	return s.View(ctx), nil
}

// LocationError records a device-side geolocation failure.
func (s *Session) LocationError(ctx context.Context, message string) (View, error) {
	s.touch()
	err := s.adapter.LocationError(message)
	return s.View(ctx), err
}

// Reset returns to Idle.
func (s *Session) Reset(ctx context.Context) View {
	s.touch()
	s.controller.Dispatch(selection.Reset())
	s.clearError()
	return s.View(ctx)
}

// SetSkinType chooses the phototype used for advice.
func (s *Session) SetSkinType(ctx context.Context, skin uvadvisor.Phototype) (View, error) {
	s.touch()
	if !skin.Valid() {
		err := s.fail(apperrors.Wrap(apperrors.CodeInvalidInput, "skin type must be between 1 and 6", nil))
		return s.View(ctx), err
	}
	s.mu.Lock()
	s.skin = skin
	s.lastErr = nil
	s.mu.Unlock()
	s.publish(Event{Type: EventSkinType, Data: skin.Info()})
	return s.View(ctx), nil
}

// SetSkinSlider snaps a continuous slider position to a phototype.
func (s *Session) SetSkinSlider(ctx context.Context, position float64) (View, error) {
	return s.SetSkinType(ctx, uvadvisor.SnapPhototype(position))
}

// Resize reports the map viewport size.
func (s *Session) Resize(ctx context.Context, v mapsync.Viewport) View {
	s.touch()
	s.adapter.Resize(v)
	return s.View(ctx)
}

// View renders the current state. Advice is present once both a reading and a
// skin type are chosen.
func (s *Session) View(ctx context.Context) View {
	state := s.controller.Current()
	s.mu.Lock()
	skin := s.skin
	var lastErr *Error
	if s.lastErr != nil {
		e := *s.lastErr
		lastErr = &e
	}
	s.mu.Unlock()

	view := View{
		ID:        s.id,
		Selection: state,
		Error:     lastErr,
		Viewport:  s.adapter.Viewport(),
	}
	if skin.Valid() {
		info := skin.Info()
		view.SkinType = &info
	}
	if state.IsIdle() || state.Reading == nil {
		return view
	}
	derived := uvindex.Derive(*state.Reading)
	view.Derived = &derived
	if !skin.Valid() {
		return view
	}
	view.Advice = s.adviceFor(ctx, state, skin)
	return view
}

type cachedAdvice struct {
	version uint64
	skin    uvadvisor.Phototype
	advice  uvadvisor.Advice
}

// adviceFor asks the advisor once per (selection version, skin type) pair.
// Failures are not cached.
func (s *Session) adviceFor(ctx context.Context, state selection.State, skin uvadvisor.Phototype) *uvadvisor.Advice {
	s.mu.Lock()
	if c := s.advice; c != nil && c.version == state.Version && c.skin == skin {
		advice := c.advice
		s.mu.Unlock()
		return &advice
	}
	s.mu.Unlock()

	advice, err := s.advisor.Advise(ctx, *state.Reading, skin)
	if err != nil {
		s.logger.Warn("advice unavailable", "error", err)
		return nil
	}
	s.mu.Lock()
	if c := s.advice; c == nil || state.Version >= c.version {
		s.advice = &cachedAdvice{version: state.Version, skin: skin, advice: advice}
	}
	s.mu.Unlock()
	return &advice
}

// Subscribe returns a channel of outward events and a cancel func.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	size := s.cfg.EventBuffer
	if size <= 0 {
		size = 32
	}
	ch := make(chan Event, size)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = ch
	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if sub, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(sub)
		}
	}
}

// Camera implements mapsync.Sink.
func (s *Session) Camera(cmd mapsync.Command) {
	s.publish(Event{Type: EventCamera, Data: cmd})
}

// Alert implements mapsync.Sink. Every alert is also the session's visible error.
func (s *Session) Alert(alert mapsync.Alert) {
	s.mu.Lock()
	s.lastErr = &Error{Kind: alert.Kind, Message: alert.Message}
	s.mu.Unlock()
	s.publish(Event{Type: EventAlert, Data: alert})
}

// Close cancels in-flight work and ends every subscription.
func (s *Session) Close() {
	s.mu.Lock()
	if s.searchCancel != nil {
		s.searchCancel()
		s.searchCancel = nil
	}
	s.mu.Unlock()

	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.closed = true
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
}

func (s *Session) onSelection(_, next selection.State, action selection.Action) {
	s.publish(Event{Type: EventSelection, Data: SelectionChange{Action: action.Kind, State: next}})
}

func (s *Session) publish(evt Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- evt:
		default:
			s.logger.Debug("subscriber buffer full, dropping event", "type", evt.Type)
		}
	}
}

// fail records err as the visible error, publishes an alert and returns err.
func (s *Session) fail(err error) error {
	kind := apperrors.CodeOf(err)
	if kind == "" {
		kind = apperrors.CodeFetch
	}
	s.Alert(mapsync.Alert{Kind: kind, Message: apperrors.MessageOf(err)})
	s.logger.Info("session operation failed", "kind", kind, "error", err)
	return err
}

func (s *Session) clearError() {
	s.mu.Lock()
	s.lastErr = nil
	s.mu.Unlock()
}

func (s *Session) superseded(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchSeq != seq
}

func (s *Session) recordTrend(ctx context.Context, q locquery.Query) {
	if s.trends == nil {
		return
	}
	if err := s.trends.IncrementQuery(ctx, q.Canonical(), q.Value()); err != nil {
		s.logger.Warn("record search trend failed", "error", err)
	}
}

func (s *Session) resolveTimeout() time.Duration {
	if s.cfg.ResolveTimeout <= 0 {
		return 10 * time.Second
	}
	return s.cfg.ResolveTimeout
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = s.now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
