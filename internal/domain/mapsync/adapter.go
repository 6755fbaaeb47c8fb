// Package mapsync translates selection changes and device location events into
// camera commands for a map it never touches directly.
package mapsync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/yanqian/uv-australia/internal/domain/selection"
	"github.com/yanqian/uv-australia/internal/domain/uvindex"
	apperrors "github.com/yanqian/uv-australia/pkg/errors"
)

// Camera defaults for Australia.
const (
	DefaultLat      = -25.2744
	DefaultLng      = 133.7751
	DefaultZoom     = 4
	SelectedZoom    = 10
	FlyDurationSecs = 1.5
)

// CommandKind identifies a camera instruction.
type CommandKind string

const (
	CommandInvalidateSize CommandKind = "invalidate_size"
	CommandFlyTo          CommandKind = "fly_to"
)

// Command is one camera instruction.
type Command struct {
	Kind     CommandKind `json:"kind"`
	Lat      float64     `json:"lat,omitempty"`
	Lng      float64     `json:"lng,omitempty"`
	Zoom     int         `json:"zoom,omitempty"`
	Animate  bool        `json:"animate,omitempty"`
	Duration float64     `json:"duration,omitempty"`
}

// Alert is a user-visible failure.
type Alert struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Sink receives everything the adapter publishes.
type Sink interface {
	Camera(cmd Command)
	Alert(alert Alert)
}

// CoordinateResolver finds the reading nearest to a coordinate.
type CoordinateResolver interface {
	ByCoordinates(ctx context.Context, lat, lng float64) (uvindex.Reading, error)
}

// Dispatcher commits selection transitions that complete after a lookup.
type Dispatcher interface {
	Begin() selection.Ticket
	DispatchTicket(t selection.Ticket, a selection.Action) (selection.State, error)
}

// Viewport is the map container size in pixels.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Usable reports whether a camera move can be rendered.
func (v Viewport) Usable() bool {
	return v.Width > 0 && v.Height > 0
}

// Adapter is the boundary between selection state and a map view.
type Adapter struct {
	sink       Sink
	resolver   CoordinateResolver
	dispatcher Dispatcher
	logger     *slog.Logger

	mu       sync.Mutex
	viewport Viewport
	sized    bool
	pending  *Command
}

// NewAdapter assumes a rendered viewport until Resize reports otherwise.
func NewAdapter(sink Sink, resolver CoordinateResolver, dispatcher Dispatcher, logger *slog.Logger) *Adapter {
	return &Adapter{
		sink:       sink,
		resolver:   resolver,
		dispatcher: dispatcher,
		logger:     logger.With("component", "mapsync.adapter"),
		sized:      true,
	}
}

// OnSelection is a selection.Listener.
func (a *Adapter) OnSelection(_, next selection.State, _ selection.Action) {
	if next.IsIdle() {
		a.flyTo(Command{Kind: CommandFlyTo, Lat: DefaultLat, Lng: DefaultLng, Zoom: DefaultZoom, Animate: true, Duration: FlyDurationSecs})
		return
	}
	r := next.Reading
	if r == nil || !r.HasCoordinates() {
		a.logger.Debug("selection without coordinates, camera unchanged", "location", locationOf(r))
		return
	}
	a.flyTo(Command{Kind: CommandFlyTo, Lat: r.Latitude, Lng: r.Longitude, Zoom: SelectedZoom, Animate: true, Duration: FlyDurationSecs})
}

// Resize records the viewport and releases a held fly-to once it is usable.
func (a *Adapter) Resize(v Viewport) {
	a.mu.Lock()
	a.viewport = v
	a.sized = v.Usable()
	var release *Command
	if a.sized && a.pending != nil {
		release = a.pending
		a.pending = nil
	}
	a.mu.Unlock()

	if release != nil {
		a.sink.Camera(Command{Kind: CommandInvalidateSize})
		a.sink.Camera(*release)
	}
}

// Viewport returns the last reported size.
func (a *Adapter) Viewport() Viewport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.viewport
}

// LocationFound resolves a device position and selects the nearest reading.
// On failure an alert is published and the selection is left as is. A
// resolution overtaken by a newer transition returns selection.ErrStale
// without an alert when the dispatcher rejects stale completions.
func (a *Adapter) LocationFound(ctx context.Context, lat, lng float64) error {
	ticket := a.dispatcher.Begin()
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		err := apperrors.Wrap(apperrors.CodeGeolocation, fmt.Sprintf("invalid position %.4f, %.4f", lat, lng), nil)
		a.sink.Alert(Alert{Kind: apperrors.CodeGeolocation, Message: apperrors.MessageOf(err)})
		return err
	}
	reading, err := a.resolver.ByCoordinates(ctx, lat, lng)
	if err != nil {
		kind := apperrors.CodeOf(err)
		if kind == "" {
			kind = apperrors.CodeFetch
		}
		a.sink.Alert(Alert{Kind: kind, Message: "Could not find UV data for your location: " + apperrors.MessageOf(err)})
		return err
	}
	if _, err := a.dispatcher.DispatchTicket(ticket, selection.GeolocationResolved(reading)); err != nil {
		a.logger.Debug("stale geolocation result ignored", "location", reading.LocationID)
		return err
	}
	return nil
}

// LocationError reports a device-side geolocation failure.
func (a *Adapter) LocationError(message string) error {
	if message == "" {
		message = "location unavailable"
	}
	a.sink.Alert(Alert{Kind: apperrors.CodeGeolocation, Message: "Unable to get your location: " + message})
	return apperrors.Wrap(apperrors.CodeGeolocation, message, nil)
}

func (a *Adapter) flyTo(cmd Command) {
	a.mu.Lock()
	if !a.sized {
		a.pending = &cmd
		a.mu.Unlock()
		a.logger.Debug("viewport not sized, holding camera move")
		return
	}
	a.mu.Unlock()

	a.sink.Camera(Command{Kind: CommandInvalidateSize})
	a.sink.Camera(cmd)
}

func locationOf(r *uvindex.Reading) string {
	if r == nil {
		return ""
	}
	return r.LocationID
}
