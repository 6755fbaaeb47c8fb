package mapsync

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/uv-australia/internal/domain/selection"
	"github.com/yanqian/uv-australia/internal/domain/uvindex"
	apperrors "github.com/yanqian/uv-australia/pkg/errors"
)

var melbourne = uvindex.Reading{
	LocationID: "Melbourne", CityName: "Melbourne", ShortName: "mel", State: "VIC",
	Latitude: -37.8136, Longitude: 144.9631, UV: 7.2,
}

func TestSelectionFliesToReading(t *testing.T) {
	sink := &recordingSink{}
	ctrl := selection.NewController(false)
	adapter := NewAdapter(sink, &stubResolver{}, ctrl, discardLogger())
	ctrl.Subscribe(adapter.OnSelection)

	ctrl.Dispatch(selection.SearchResolved(melbourne))

	require.Equal(t, []Command{
		{Kind: CommandInvalidateSize},
		{Kind: CommandFlyTo, Lat: -37.8136, Lng: 144.9631, Zoom: 10, Animate: true, Duration: 1.5},
	}, sink.commands)
}

func TestResetFliesToDefaultView(t *testing.T) {
	sink := &recordingSink{}
	ctrl := selection.NewController(false)
	adapter := NewAdapter(sink, &stubResolver{}, ctrl, discardLogger())
	ctrl.Subscribe(adapter.OnSelection)

	ctrl.Dispatch(selection.Reset())

	last := sink.commands[len(sink.commands)-1]
	require.Equal(t, CommandFlyTo, last.Kind)
	require.Equal(t, DefaultLat, last.Lat)
	require.Equal(t, DefaultLng, last.Lng)
	require.Equal(t, 4, last.Zoom)
}

func TestSelectionWithoutCoordinatesLeavesCamera(t *testing.T) {
	sink := &recordingSink{}
	ctrl := selection.NewController(false)
	adapter := NewAdapter(sink, &stubResolver{}, ctrl, discardLogger())
	ctrl.Subscribe(adapter.OnSelection)

	ctrl.Dispatch(selection.MarkerClicked(uvindex.Reading{LocationID: "Nowhere", UV: 3}))
	require.Empty(t, sink.commands)
	require.True(t, ctrl.Current().Selected)
}

func TestZeroViewportHoldsFlyToUntilResize(t *testing.T) {
	sink := &recordingSink{}
	ctrl := selection.NewController(false)
	adapter := NewAdapter(sink, &stubResolver{}, ctrl, discardLogger())
	ctrl.Subscribe(adapter.OnSelection)

	adapter.Resize(Viewport{Width: 0, Height: 600})
	ctrl.Dispatch(selection.SearchResolved(melbourne))
	require.Empty(t, sink.commands)

	adapter.Resize(Viewport{Width: 0, Height: 0})
	require.Empty(t, sink.commands)

	adapter.Resize(Viewport{Width: 800, Height: 600})
	require.Len(t, sink.commands, 2)
	require.Equal(t, CommandInvalidateSize, sink.commands[0].Kind)
	require.Equal(t, melbourne.Latitude, sink.commands[1].Lat)

	adapter.Resize(Viewport{Width: 1024, Height: 768})
	require.Len(t, sink.commands, 2, "released move is not replayed")
	require.Equal(t, Viewport{Width: 1024, Height: 768}, adapter.Viewport())
}

func TestLocationFoundSelectsNearestReading(t *testing.T) {
	sink := &recordingSink{}
	ctrl := selection.NewController(false)
	resolver := &stubResolver{reading: melbourne}
	adapter := NewAdapter(sink, resolver, ctrl, discardLogger())

	require.NoError(t, adapter.LocationFound(context.Background(), -37.9, 145.0))
	require.Equal(t, -37.9, resolver.lat)
	require.Equal(t, "Melbourne", ctrl.Current().Reading.LocationID)
	require.Empty(t, sink.alerts)
}

func TestLocationFailuresAlertWithoutMutation(t *testing.T) {
	sink := &recordingSink{}
	ctrl := selection.NewController(false)
	ctrl.Dispatch(selection.SearchResolved(melbourne))
	resolver := &stubResolver{err: apperrors.Wrap(apperrors.CodeNotFound, "no station nearby", nil)}
	adapter := NewAdapter(sink, resolver, ctrl, discardLogger())

	err := adapter.LocationFound(context.Background(), -10, 100)
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	require.Equal(t, apperrors.CodeNotFound, sink.alerts[0].Kind)

	err = adapter.LocationError("permission denied")
	require.True(t, apperrors.IsCode(err, apperrors.CodeGeolocation))
	require.Equal(t, apperrors.CodeGeolocation, sink.alerts[1].Kind)
	require.Contains(t, sink.alerts[1].Message, "permission denied")

	err = adapter.LocationFound(context.Background(), 120, 0)
	require.True(t, apperrors.IsCode(err, apperrors.CodeGeolocation))

	require.Len(t, sink.alerts, 3)
	require.Equal(t, uint64(1), ctrl.Current().Version)
	require.Equal(t, "Melbourne", ctrl.Current().Reading.LocationID)
}

func TestLateLocationFoundIsRejectedWhenStale(t *testing.T) {
	sink := &recordingSink{}
	ctrl := selection.NewController(true)
	darwin := uvindex.Reading{LocationID: "Darwin", Latitude: -12.4634, Longitude: 130.8456, UV: 13.1}
	resolver := &stubResolver{reading: darwin}
	resolver.during = func() { ctrl.Dispatch(selection.MarkerClicked(melbourne)) }
	adapter := NewAdapter(sink, resolver, ctrl, discardLogger())

	err := adapter.LocationFound(context.Background(), -12.4, 130.8)
	require.ErrorIs(t, err, selection.ErrStale)
	require.Empty(t, sink.alerts, "a stale position is not an error for the user")
	require.Equal(t, "Melbourne", ctrl.Current().Reading.LocationID)
	require.Equal(t, uint64(1), ctrl.Current().Version)

	// Without stale rejection the last completion wins.
	ctrl = selection.NewController(false)
	resolver.during = func() { ctrl.Dispatch(selection.MarkerClicked(melbourne)) }
	adapter = NewAdapter(sink, resolver, ctrl, discardLogger())
	require.NoError(t, adapter.LocationFound(context.Background(), -12.4, 130.8))
	require.Equal(t, "Darwin", ctrl.Current().Reading.LocationID)
}

type recordingSink struct {
	commands []Command
	alerts   []Alert
}

func (r *recordingSink) Camera(cmd Command) { r.commands = append(r.commands, cmd) }

func (r *recordingSink) Alert(a Alert) { r.alerts = append(r.alerts, a) }

type stubResolver struct {
	reading  uvindex.Reading
	err      error
	lat, lng float64
	during   func()
}

func (s *stubResolver) ByCoordinates(ctx context.Context, lat, lng float64) (uvindex.Reading, error) {
	s.lat, s.lng = lat, lng
	if s.during != nil {
		s.during()
	}
	if s.err != nil {
		return uvindex.Reading{}, s.err
	}
	return s.reading, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
