package mapsync

import (
	"fmt"
	"math"
	"strings"

	"github.com/yanqian/uv-australia/internal/domain/uvindex"
)

// Marker is one map pin.
type Marker struct {
	LocationID string           `json:"locationId"`
	Label      string           `json:"label"`
	Lat        float64          `json:"lat"`
	Lng        float64          `json:"lng"`
	UV         float64          `json:"uv"`
	Tier       uvindex.RiskTier `json:"tier"`
	TierLabel  string           `json:"tierLabel"`
	Color      string           `json:"color"`
	Updated    string           `json:"updated,omitempty"`
	Status     string           `json:"status,omitempty"`
}

// Markers projects a snapshot for the map, skipping Antarctic stations and
// readings that cannot be placed.
func Markers(s *uvindex.Snapshot) []Marker {
	if s == nil {
		return []Marker{}
	}
	out := make([]Marker, 0, len(s.Readings))
	for _, r := range s.Readings {
		if strings.EqualFold(strings.TrimSpace(r.State), "antarctic") || !r.HasCoordinates() {
			continue
		}
		raw := uvindex.ParseValue(r.UV.Float())
		// Tier comes from the raw value so pins agree with the detail panel.
		tier := uvindex.Classify(raw)
		uv := math.Round(raw*10) / 10
		m := Marker{
			LocationID: r.LocationID,
			Label:      popupLabel(r),
			Lat:        r.Latitude,
			Lng:        r.Longitude,
			UV:         uv,
			Tier:       tier,
			TierLabel:  uvindex.Label(tier),
			Color:      uvindex.Color(tier),
			Status:     r.Status,
		}
		if updated := r.UpdatedLabel(); updated != "" {
			m.Updated = "Updated: " + updated
		}
		out = append(out, m)
	}
	return out
}

func popupLabel(r uvindex.Reading) string {
	name := r.CityName
	if name == "" {
		name = r.LocationID
	}
	if r.ShortName != "" {
		name = fmt.Sprintf("%s (%s)", name, r.ShortName)
	}
	if r.State != "" {
		name += ", " + r.State
	}
	return name
}
