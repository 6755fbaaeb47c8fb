package uvindex

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Value is a UV index reading. It decodes leniently because upstream feeds
// deliver the index as a number, a numeric string or nothing at all.
type Value float64

// Float returns the reading as a plain float64.
func (v Value) Float() float64 {
	return float64(v)
}

// UnmarshalJSON accepts numbers, numeric strings and null. Anything else decodes to 0.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		*v = 0
		return nil
	}
	*v = Value(ParseValue(raw))
	return nil
}

// ParseValue converts an arbitrary decoded value into a UV number.
// Missing, non-numeric and non-finite inputs yield 0.
func ParseValue(raw any) float64 {
	var out float64
	switch val := raw.(type) {
	case float64:
		out = val
	case float32:
		out = float64(val)
	case int:
		out = float64(val)
	case int64:
		out = float64(val)
	case Value:
		out = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0
		}
		out = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		out = parsed
	default:
		return 0
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0
	}
	return out
}

// Reading is one station's UV observation. Readings are immutable once fetched.
type Reading struct {
	LocationID string    `json:"locationId"`
	CityName   string    `json:"cityName"`
	ShortName  string    `json:"shortName,omitempty"`
	State      string    `json:"state"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	UV         Value     `json:"uvValue"`
	ObservedAt time.Time `json:"observedAt"`
	Time       string    `json:"time,omitempty"`
	Date       string    `json:"date,omitempty"`
	Status     string    `json:"status,omitempty"`
	DistanceKm float64   `json:"distanceKm,omitempty"`
}

// HasCoordinates reports whether the reading can be placed on a map. A zero
// latitude or longitude is treated as missing: feeds send 0 for unknown
// positions and no Australian station lies on the equator or prime meridian.
func (r Reading) HasCoordinates() bool {
	if math.IsNaN(r.Latitude) || math.IsNaN(r.Longitude) {
		return false
	}
	if r.Latitude == 0 || r.Longitude == 0 {
		return false
	}
	return r.Latitude >= -90 && r.Latitude <= 90 && r.Longitude >= -180 && r.Longitude <= 180
}

// UpdatedLabel renders "time, date" the way the map popup shows it.
func (r Reading) UpdatedLabel() string {
	switch {
	case r.Time != "" && r.Date != "":
		return r.Time + ", " + r.Date
	case r.Time != "":
		return r.Time
	default:
		return ""
	}
}

// Snapshot is the full reading set produced by one poll cycle.
type Snapshot struct {
	Readings  []Reading `json:"readings"`
	FetchedAt time.Time `json:"fetchedAt"`
	Source    string    `json:"source"`
}

// NewSnapshot copies readings so later mutation of the input cannot leak in.
func NewSnapshot(readings []Reading, fetchedAt time.Time, source string) *Snapshot {
	copied := make([]Reading, len(readings))
	copy(copied, readings)
	return &Snapshot{Readings: copied, FetchedAt: fetchedAt, Source: source}
}

// Len is nil-safe.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Readings)
}

// ByLocationID finds a reading by its station identifier (case-insensitive).
func (s *Snapshot) ByLocationID(id string) (Reading, bool) {
	if s == nil {
		return Reading{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Reading{}, false
	}
	for _, r := range s.Readings {
		if strings.EqualFold(r.LocationID, id) {
			return r, true
		}
	}
	return Reading{}, false
}

// ByShortName finds a reading by the feed's short station code.
func (s *Snapshot) ByShortName(short string) (Reading, bool) {
	if s == nil {
		return Reading{}, false
	}
	short = strings.TrimSpace(short)
	if short == "" {
		return Reading{}, false
	}
	for _, r := range s.Readings {
		if strings.EqualFold(r.ShortName, short) {
			return r, true
		}
	}
	return Reading{}, false
}
