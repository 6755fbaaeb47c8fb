// Package gazetteer describes the directory of UV monitoring cities and the
// postcode ranges they cover.
package gazetteer

import (
	"context"
	"math"
	"strings"
)

// StateAntarctic marks stations that are never shown on the mainland map.
const StateAntarctic = "Antarctic"

// City is a directory entry keyed by the ARPANSA station id.
type City struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	ShortName string  `json:"shortName"`
	State     string  `json:"state"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// IsAntarctic reports whether the city is an Antarctic station.
func (c City) IsAntarctic() bool {
	return strings.EqualFold(c.State, StateAntarctic)
}

// PostcodeRange maps an inclusive postcode range to a city.
type PostcodeRange struct {
	CityID string `json:"cityId"`
	From   int    `json:"from"`
	To     int    `json:"to"`
}

// Contains reports whether postcode falls within the range.
func (p PostcodeRange) Contains(postcode int) bool {
	return postcode >= p.From && postcode <= p.To
}

// Repository looks cities up.
type Repository interface {
	Cities(ctx context.Context) ([]City, error)
	ByID(ctx context.Context, id string) (City, bool, error)
	ByShortName(ctx context.Context, short string) (City, bool, error)
	ByName(ctx context.Context, name string) (City, bool, error)
	ByPostcode(ctx context.Context, postcode int) (City, bool, error)
}

// Nearest returns the city closest to the coordinate and its distance in km.
// Antarctic stations are only considered when nothing else is available.
func Nearest(cities []City, lat, lng float64) (City, float64, bool) {
	var (
		best     City
		bestDist = math.Inf(1)
		found    bool
	)
	for _, c := range cities {
		if c.IsAntarctic() {
			continue
		}
		if d := Haversine(lat, lng, c.Latitude, c.Longitude); d < bestDist {
			best, bestDist, found = c, d, true
		}
	}
	if found {
		return best, bestDist, true
	}
	for _, c := range cities {
		if d := Haversine(lat, lng, c.Latitude, c.Longitude); d < bestDist {
			best, bestDist, found = c, d, true
		}
	}
	return best, bestDist, found
}

// Haversine calculates the distance in km between two coordinates.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371

	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return R * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
