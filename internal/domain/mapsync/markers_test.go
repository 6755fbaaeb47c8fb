package mapsync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/uv-australia/internal/domain/uvindex"
)

func TestMarkersSkipAntarcticAndUnplaced(t *testing.T) {
	snapshot := uvindex.NewSnapshot([]uvindex.Reading{
		{LocationID: "Melbourne", CityName: "Melbourne", ShortName: "mel", State: "VIC", Latitude: -37.81, Longitude: 144.96, UV: 7.24, Time: "2:44 PM", Date: "19/10/2026", Status: "ok"},
		{LocationID: "Casey", CityName: "Casey", State: "Antarctic", Latitude: -66.28, Longitude: 110.53, UV: 1},
		{LocationID: "Unknown", UV: 3},
	}, time.Time{}, "test")

	markers := Markers(snapshot)
	require.Len(t, markers, 1)
	m := markers[0]
	require.Equal(t, "Melbourne (mel), VIC", m.Label)
	require.Equal(t, 7.2, m.UV)
	require.Equal(t, uvindex.High, m.Tier)
	require.Equal(t, "Updated: 2:44 PM, 19/10/2026", m.Updated)
	require.Equal(t, "ok", m.Status)
}

func TestMarkersNilSnapshot(t *testing.T) {
	require.Empty(t, Markers(nil))
	require.NotNil(t, Markers(nil))
}

func TestMarkerTierMatchesDerivedTierAtBoundaries(t *testing.T) {
	for _, uv := range []float64{2.96, 5.95, 7.99, 10.96} {
		r := uvindex.Reading{LocationID: "Sydney", State: "NSW", Latitude: -33.8688, Longitude: 151.2093, UV: uvindex.Value(uv)}
		markers := Markers(uvindex.NewSnapshot([]uvindex.Reading{r}, time.Time{}, "test"))
		require.Len(t, markers, 1)
		require.Equal(t, uvindex.Derive(r).Tier, markers[0].Tier, "uv %.2f", uv)
	}

	r := uvindex.Reading{LocationID: "Sydney", Latitude: -33.8688, Longitude: 151.2093, UV: 2.96}
	m := Markers(uvindex.NewSnapshot([]uvindex.Reading{r}, time.Time{}, "test"))[0]
	require.Equal(t, 3.0, m.UV, "display value is rounded")
	require.Equal(t, uvindex.Low, m.Tier)
}
