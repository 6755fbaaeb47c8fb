// Package lookup answers location queries against the held UV snapshot and
// the city directory.
package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/yanqian/uv-australia/internal/domain/gazetteer"
	"github.com/yanqian/uv-australia/internal/domain/uvindex"
	apperrors "github.com/yanqian/uv-australia/pkg/errors"
	"github.com/yanqian/uv-australia/pkg/metrics"
)

// SnapshotSource exposes the current snapshot.
type SnapshotSource interface {
	Current() *uvindex.Snapshot
}

// Service resolves postcodes, city names and coordinates to readings.
type Service struct {
	snapshots SnapshotSource
	directory gazetteer.Repository
	logger    *slog.Logger
}

// NewService wires the lookup.
func NewService(snapshots SnapshotSource, directory gazetteer.Repository, logger *slog.Logger) *Service {
	return &Service{
		snapshots: snapshots,
		directory: directory,
		logger:    logger.With("component", "lookup.service"),
	}
}

// ByPostcode resolves a four digit postcode through the directory.
func (s *Service) ByPostcode(ctx context.Context, postcode string) (uvindex.Reading, error) {
	code, err := strconv.Atoi(strings.TrimSpace(postcode))
	if err != nil || code < 0 || code > 9999 {
		return uvindex.Reading{}, s.observe("postcode", apperrors.Wrap(apperrors.CodeInvalidInput, "postcode must be 4 digits", err))
	}
	snapshot, err := s.snapshot()
	if err != nil {
		return uvindex.Reading{}, s.observe("postcode", err)
	}
	city, ok, err := s.directory.ByPostcode(ctx, code)
	if err != nil {
		return uvindex.Reading{}, s.observe("postcode", apperrors.Wrap(apperrors.CodeFetch, "city directory unavailable", err))
	}
	if !ok {
		return uvindex.Reading{}, s.observe("postcode", notFound("no UV station covers postcode %s", postcode))
	}
	reading, ok := readingForCity(snapshot, city)
	if !ok {
		return uvindex.Reading{}, s.observe("postcode", notFound("no UV reading for %s", city.Name))
	}
	return reading, s.observe("postcode", nil)
}

// ByCityName matches by directory id, then short name, then a fuzzy
// substring match against station ids.
func (s *Service) ByCityName(ctx context.Context, name string) (uvindex.Reading, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return uvindex.Reading{}, s.observe("city", apperrors.Wrap(apperrors.CodeInvalidInput, "city name is required", nil))
	}
	snapshot, err := s.snapshot()
	if err != nil {
		return uvindex.Reading{}, s.observe("city", err)
	}

	city, ok, err := s.directory.ByName(ctx, name)
	if err != nil {
		return uvindex.Reading{}, s.observe("city", apperrors.Wrap(apperrors.CodeFetch, "city directory unavailable", err))
	}
	if ok {
		if reading, found := readingForCity(snapshot, city); found {
			return reading, s.observe("city", nil)
		}
	}

	needle := strings.ToLower(name)
	for _, r := range snapshot.Readings {
		id := strings.ToLower(r.LocationID)
		if !strings.Contains(id, needle) && !strings.Contains(needle, id) {
			continue
		}
		match, known, err := s.directory.ByID(ctx, r.LocationID)
		if err != nil || !known {
			continue
		}
		return withCity(r, match), s.observe("city", nil)
	}
	return uvindex.Reading{}, s.observe("city", notFound("no UV data found for %q", name))
}

// ByCoordinates returns the reading of the nearest directory city that has one.
func (s *Service) ByCoordinates(ctx context.Context, lat, lng float64) (uvindex.Reading, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return uvindex.Reading{}, s.observe("coordinates", apperrors.Wrap(apperrors.CodeInvalidInput, "coordinates out of range", nil))
	}
	snapshot, err := s.snapshot()
	if err != nil {
		return uvindex.Reading{}, s.observe("coordinates", err)
	}
	cities, err := s.directory.Cities(ctx)
	if err != nil {
		return uvindex.Reading{}, s.observe("coordinates", apperrors.Wrap(apperrors.CodeFetch, "city directory unavailable", err))
	}

	candidates := make([]gazetteer.City, 0, len(cities))
	readings := make(map[string]uvindex.Reading, len(cities))
	for _, c := range cities {
		if r, ok := readingForCity(snapshot, c); ok {
			candidates = append(candidates, c)
			readings[c.ID] = r
		}
	}
	city, dist, ok := gazetteer.Nearest(candidates, lat, lng)
	if !ok {
		return uvindex.Reading{}, s.observe("coordinates", notFound("no UV station near %.4f, %.4f", lat, lng))
	}
	reading := readings[city.ID]
	reading.DistanceKm = dist
	s.logger.Debug("nearest station resolved", "city", city.ID, "distanceKm", dist)
	return reading, s.observe("coordinates", nil)
}

func (s *Service) snapshot() (*uvindex.Snapshot, error) {
	snapshot := s.snapshots.Current()
	if snapshot.Len() == 0 {
		return nil, apperrors.Wrap(apperrors.CodeFetch, "UV data is not available yet", nil)
	}
	return snapshot, nil
}

func (s *Service) observe(kind string, err error) error {
	outcome := "hit"
	if err != nil {
		outcome = apperrors.CodeOf(err)
		if outcome == "" {
			outcome = "error"
		}
	}
	metrics.LocationLookups.WithLabelValues(kind, outcome).Inc()
	return err
}

func readingForCity(snapshot *uvindex.Snapshot, city gazetteer.City) (uvindex.Reading, bool) {
	if r, ok := snapshot.ByLocationID(city.ID); ok {
		return withCity(r, city), true
	}
	if r, ok := snapshot.ByShortName(city.ShortName); ok {
		return withCity(r, city), true
	}
	return uvindex.Reading{}, false
}

// withCity overlays directory details onto a reading.
func withCity(r uvindex.Reading, c gazetteer.City) uvindex.Reading {
	r.CityName = c.Name
	r.State = c.State
	r.Latitude = c.Latitude
	r.Longitude = c.Longitude
	if r.ShortName == "" {
		r.ShortName = c.ShortName
	}
	return r
}

func notFound(format string, args ...any) error {
	return apperrors.Wrap(apperrors.CodeNotFound, fmt.Sprintf(format, args...), nil)
}
