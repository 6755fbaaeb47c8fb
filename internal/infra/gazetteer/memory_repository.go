package gazetteer

import (
	"context"
	"strings"
	"sync"

	"github.com/yanqian/uv-australia/internal/domain/gazetteer"
)

// MemoryRepository is an in-memory gazetteer.Repository used for tests/dev and
// as the default directory.
type MemoryRepository struct {
	mu        sync.RWMutex
	cities    []gazetteer.City
	byID      map[string]int
	byShort   map[string]int
	byName    map[string]int
	postcodes []gazetteer.PostcodeRange
}

// NewMemoryRepository constructs a repo from the given directory.
func NewMemoryRepository(cities []gazetteer.City, postcodes []gazetteer.PostcodeRange) *MemoryRepository {
	r := &MemoryRepository{
		byID:    make(map[string]int),
		byShort: make(map[string]int),
		byName:  make(map[string]int),
	}
	for _, c := range cities {
		r.put(c)
	}
	r.postcodes = append(r.postcodes, postcodes...)
	return r
}

// NewDefaultMemoryRepository is seeded with the built-in station directory.
func NewDefaultMemoryRepository() *MemoryRepository {
	return NewMemoryRepository(DefaultCities(), DefaultPostcodes())
}

func (r *MemoryRepository) put(c gazetteer.City) {
	idx := len(r.cities)
	r.cities = append(r.cities, c)
	r.byID[normalize(c.ID)] = idx
	if c.ShortName != "" {
		r.byShort[normalize(c.ShortName)] = idx
	}
	r.byName[normalize(c.Name)] = idx
}

// Cities implements gazetteer.Repository.
func (r *MemoryRepository) Cities(_ context.Context) ([]gazetteer.City, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]gazetteer.City, len(r.cities))
	copy(out, r.cities)
	return out, nil
}

// ByID implements gazetteer.Repository.
func (r *MemoryRepository) ByID(_ context.Context, id string) (gazetteer.City, bool, error) {
	return r.lookup(r.byID, id)
}

// ByShortName implements gazetteer.Repository.
func (r *MemoryRepository) ByShortName(_ context.Context, short string) (gazetteer.City, bool, error) {
	return r.lookup(r.byShort, short)
}

// ByName implements gazetteer.Repository. It accepts the display name, the
// station id or the short code.
func (r *MemoryRepository) ByName(_ context.Context, name string) (gazetteer.City, bool, error) {
	for _, index := range []map[string]int{r.byName, r.byID, r.byShort} {
		if c, ok, _ := r.lookup(index, name); ok {
			return c, true, nil
		}
	}
	return gazetteer.City{}, false, nil
}

// ByPostcode implements gazetteer.Repository.
func (r *MemoryRepository) ByPostcode(ctx context.Context, postcode int) (gazetteer.City, bool, error) {
	r.mu.RLock()
	var cityID string
	for _, pr := range r.postcodes {
		if pr.Contains(postcode) {
			cityID = pr.CityID
			break
		}
	}
	r.mu.RUnlock()
	if cityID == "" {
		return gazetteer.City{}, false, nil
	}
	return r.ByID(ctx, cityID)
}

func (r *MemoryRepository) lookup(index map[string]int, key string) (gazetteer.City, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := index[normalize(key)]
	if !ok {
		return gazetteer.City{}, false, nil
	}
	return r.cities[idx], true, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

var _ gazetteer.Repository = (*MemoryRepository)(nil)
