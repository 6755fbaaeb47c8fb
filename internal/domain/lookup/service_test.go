package lookup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/uv-australia/internal/domain/dataset"
	"github.com/yanqian/uv-australia/internal/domain/uvindex"
	infragazetteer "github.com/yanqian/uv-australia/internal/infra/gazetteer"
	apperrors "github.com/yanqian/uv-australia/pkg/errors"
)

func rawStations() []uvindex.Reading {
	return []uvindex.Reading{
		{LocationID: "Melbourne", ShortName: "mel", UV: 7.2, Time: "2:44 PM", Date: "19/10/2026", Status: "ok"},
		{LocationID: "Sydney", ShortName: "syd", UV: 5.5, Status: "ok"},
		{LocationID: "Gold Coast", ShortName: "gco", UV: 9.1, Status: "ok"},
		{LocationID: "Casey", ShortName: "cas", UV: 0.4, Status: "ok"},
		{LocationID: "Lord Howe", ShortName: "lhi", UV: 6, Status: "ok"},
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	repo := infragazetteer.NewDefaultMemoryRepository()
	enriched, err := NewEnrichingFetcher(staticFetcher(rawStations()), repo, discardLogger()).FetchAll(context.Background())
	require.NoError(t, err)
	holder := dataset.NewHolder()
	holder.Store(uvindex.NewSnapshot(enriched, time.Now(), "test"))
	return NewService(holder, repo, discardLogger())
}

func TestEnrichingFetcherJoinsDirectory(t *testing.T) {
	repo := infragazetteer.NewDefaultMemoryRepository()
	readings, err := NewEnrichingFetcher(staticFetcher(rawStations()), repo, discardLogger()).FetchAll(context.Background())
	require.NoError(t, err)

	require.Equal(t, "VIC", readings[0].State)
	require.InDelta(t, -37.8136, readings[0].Latitude, 1e-6)
	require.Equal(t, "Antarctic", readings[3].State)

	require.Equal(t, "Lord Howe", readings[4].CityName)
	require.False(t, readings[4].HasCoordinates())

	_, err = NewEnrichingFetcher(failingFetcher{}, repo, discardLogger()).FetchAll(context.Background())
	require.Error(t, err)
}

func TestByPostcode(t *testing.T) {
	svc := newTestService(t)

	r, err := svc.ByPostcode(context.Background(), "3000")
	require.NoError(t, err)
	require.Equal(t, "Melbourne", r.CityName)
	require.Equal(t, 7.2, r.UV.Float())

	_, err = svc.ByPostcode(context.Background(), "6000")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound), "Perth has no reading in this snapshot")

	_, err = svc.ByPostcode(context.Background(), "9999")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	_, err = svc.ByPostcode(context.Background(), "30a0")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func TestByCityNameMatchingOrder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	r, err := svc.ByCityName(ctx, "sydney")
	require.NoError(t, err)
	require.Equal(t, "Sydney", r.LocationID)

	r, err = svc.ByCityName(ctx, "gco")
	require.NoError(t, err)
	require.Equal(t, "Gold Coast", r.CityName)

	r, err = svc.ByCityName(ctx, "Gold")
	require.NoError(t, err, "fuzzy substring on station id")
	require.Equal(t, "Gold Coast", r.LocationID)

	_, err = svc.ByCityName(ctx, "Lord Howe")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound), "fuzzy matches need a directory entry")

	_, err = svc.ByCityName(ctx, "Atlantis")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestByCoordinatesPicksNearestWithReading(t *testing.T) {
	svc := newTestService(t)

	r, err := svc.ByCoordinates(context.Background(), -37.85, 145.0)
	require.NoError(t, err)
	require.Equal(t, "Melbourne", r.LocationID)
	require.Greater(t, r.DistanceKm, 0.0)
	require.Less(t, r.DistanceKm, 10.0)

	// Brisbane has no reading, so the Gold Coast is nearest.
	r, err = svc.ByCoordinates(context.Background(), -27.47, 153.02)
	require.NoError(t, err)
	require.Equal(t, "Gold Coast", r.LocationID)

	_, err = svc.ByCoordinates(context.Background(), 95, 0)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func TestLookupWithoutSnapshotIsFetchError(t *testing.T) {
	svc := NewService(dataset.NewHolder(), infragazetteer.NewDefaultMemoryRepository(), discardLogger())
	_, err := svc.ByCityName(context.Background(), "Melbourne")
	require.True(t, apperrors.IsCode(err, apperrors.CodeFetch))
}

type staticFetcher []uvindex.Reading

func (s staticFetcher) FetchAll(ctx context.Context) ([]uvindex.Reading, error) {
	return s, nil
}

type failingFetcher struct{}

func (failingFetcher) FetchAll(ctx context.Context) ([]uvindex.Reading, error) {
	return nil, errors.New("down")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
