package uvindex

import (
	"math"
	"time"
)

// EstimatePeak projects an arbitrary-time reading to an estimated late-morning peak.
//
// The three branches saturate at 5, 8 and 12. They are not continuous: the value
// drops from 5 to 4.5 at 3 and from 8 to 7.2 at 6.
func EstimatePeak(v float64) float64 {
	if math.IsNaN(v) {
		v = 0
	}
	switch {
	case v < 3:
		return math.Min(v*2+1, 5)
	case v < 6:
		return math.Min(v*1.5, 8)
	default:
		return math.Min(v*1.2, 12)
	}
}

// Derived bundles what the display layers need for one reading: the raw value
// (map popup) and the peak-adjusted value (personalised panel), each classified.
type Derived struct {
	Reading     Reading   `json:"reading"`
	RawValue    float64   `json:"rawValue"`
	Tier        RiskTier  `json:"tier"`
	Label       string    `json:"label"`
	Color       string    `json:"color"`
	RiskMessage string    `json:"riskMessage"`
	PeakValue   float64   `json:"peakValue"`
	PeakTier    RiskTier  `json:"peakTier"`
	PeakLabel   string    `json:"peakLabel"`
	PeakColor   string    `json:"peakColor"`
	Updated     string    `json:"updated,omitempty"`
	ObservedAt  time.Time `json:"observedAt"`
}

// Derive classifies a reading and its peak projection.
func Derive(r Reading) Derived {
	raw := ParseValue(r.UV.Float())
	tier := Classify(raw)
	peak := EstimatePeak(raw)
	peakTier := Classify(peak)
	return Derived{
		Reading:     r,
		RawValue:    roundTenth(raw),
		Tier:        tier,
		Label:       Label(tier),
		Color:       Color(tier),
		RiskMessage: RiskMessage(tier),
		PeakValue:   roundTenth(peak),
		PeakTier:    peakTier,
		PeakLabel:   Label(peakTier),
		PeakColor:   Color(peakTier),
		Updated:     r.UpdatedLabel(),
		ObservedAt:  r.ObservedAt,
	}
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
