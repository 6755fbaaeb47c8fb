package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/uv-australia/internal/domain/dataset"
	"github.com/yanqian/uv-australia/internal/domain/gazetteer"
	"github.com/yanqian/uv-australia/internal/domain/lookup"
	"github.com/yanqian/uv-australia/internal/infra/cache"
	"github.com/yanqian/uv-australia/internal/infra/config"
	infragazetteer "github.com/yanqian/uv-australia/internal/infra/gazetteer"
	"github.com/yanqian/uv-australia/internal/infra/uv/backendapi"
)

func TestSeedGazetteerLoadsBuiltInDirectory(t *testing.T) {
	seeder := &recordingSeeder{}
	seedGazetteer(context.Background(), seeder, discardLogger())

	require.Equal(t, infragazetteer.DefaultCities(), seeder.cities)
	require.Equal(t, infragazetteer.DefaultPostcodes(), seeder.postcodes)
	require.NotEmpty(t, seeder.postcodes)

	failing := &recordingSeeder{err: errors.New("relation does not exist")}
	require.NotPanics(t, func() { seedGazetteer(context.Background(), failing, discardLogger()) })
}

func TestProvideGazetteerWithoutDSNUsesBuiltInDirectory(t *testing.T) {
	cfg := &config.Config{}
	cfg.Gazetteer.Seed = true

	repo := provideGazetteer(cfg, discardLogger())
	city, ok, err := repo.ByPostcode(context.Background(), 3000)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Melbourne", city.Name)
}

func TestUpstreamProvidersFollowSource(t *testing.T) {
	logger := discardLogger()
	directory := infragazetteer.NewDefaultMemoryRepository()
	holder := dataset.NewHolder()

	cfg := &config.Config{}
	cfg.UV.Source = config.SourceARPANSA
	cfg.UV.ARPANSAURL = "https://uvdata.arpansa.gov.au/xml/uvvalues.xml"
	upstream := provideUpstreamClient(cfg, logger)

	fetcher, err := provideUVFetcher(cfg, upstream, directory, logger)
	require.NoError(t, err)
	require.IsType(t, &lookup.EnrichingFetcher{}, fetcher)
	locator, err := provideLocator(cfg, holder, directory, upstream, logger)
	require.NoError(t, err)
	require.IsType(t, &lookup.Service{}, locator)

	cfg.UV.Source = config.SourceBackend
	cfg.UV.BackendURL = "http://localhost:8081/"
	fetcher, err = provideUVFetcher(cfg, upstream, directory, logger)
	require.NoError(t, err)
	require.IsType(t, &backendapi.Client{}, fetcher)
	locator, err = provideLocator(cfg, holder, directory, upstream, logger)
	require.NoError(t, err)
	require.IsType(t, &backendapi.Client{}, locator)

	cfg.UV.BackendURL = " "
	_, err = provideUVFetcher(cfg, upstream, directory, logger)
	require.Error(t, err)
}

func TestProvideChatClientDisabled(t *testing.T) {
	client, err := provideChatClient(&config.Config{}, discardLogger())
	require.NoError(t, err)
	require.Nil(t, client)
}

func TestProvideCacheStoreDefaultsToMemory(t *testing.T) {
	store := provideCacheStore(&config.Config{}, discardLogger())
	require.IsType(t, &cache.MemoryStore{}, store)
	require.Equal(t, store, provideSnapshotCache(store))
	require.Equal(t, store, provideTrendStore(store))
}

type recordingSeeder struct {
	cities    []gazetteer.City
	postcodes []gazetteer.PostcodeRange
	err       error
}

func (r *recordingSeeder) Seed(ctx context.Context, cities []gazetteer.City, postcodes []gazetteer.PostcodeRange) error {
	r.cities = cities
	r.postcodes = postcodes
	return r.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
