package lookup

import (
	"context"
	"log/slog"

	"github.com/yanqian/uv-australia/internal/domain/dataset"
	"github.com/yanqian/uv-australia/internal/domain/gazetteer"
	"github.com/yanqian/uv-australia/internal/domain/uvindex"
)

// EnrichingFetcher joins raw station readings with the city directory.
// Stations without a directory entry keep the basic feed fields.
type EnrichingFetcher struct {
	upstream  dataset.Fetcher
	directory gazetteer.Repository
	logger    *slog.Logger
}

// NewEnrichingFetcher wraps upstream.
func NewEnrichingFetcher(upstream dataset.Fetcher, directory gazetteer.Repository, logger *slog.Logger) *EnrichingFetcher {
	return &EnrichingFetcher{
		upstream:  upstream,
		directory: directory,
		logger:    logger.With("component", "lookup.enricher"),
	}
}

// FetchAll implements dataset.Fetcher.
func (f *EnrichingFetcher) FetchAll(ctx context.Context) ([]uvindex.Reading, error) {
	readings, err := f.upstream.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]uvindex.Reading, len(readings))
	unknown := 0
	for i, r := range readings {
		city, ok := f.resolve(ctx, r)
		if !ok {
			unknown++
			if r.CityName == "" {
				r.CityName = r.LocationID
			}
			out[i] = r
			continue
		}
		out[i] = withCity(r, city)
	}
	if unknown > 0 {
		f.logger.Debug("stations without directory entry", "count", unknown)
	}
	return out, nil
}

func (f *EnrichingFetcher) resolve(ctx context.Context, r uvindex.Reading) (gazetteer.City, bool) {
	if city, ok, err := f.directory.ByID(ctx, r.LocationID); err == nil && ok {
		return city, true
	}
	if r.ShortName == "" {
		return gazetteer.City{}, false
	}
	city, ok, err := f.directory.ByShortName(ctx, r.ShortName)
	if err != nil {
		f.logger.Warn("directory lookup failed", "error", err, "station", r.LocationID)
		return gazetteer.City{}, false
	}
	return city, ok
}

var _ dataset.Fetcher = (*EnrichingFetcher)(nil)
