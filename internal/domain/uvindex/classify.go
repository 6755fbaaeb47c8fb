// Package uvindex classifies UV readings into risk tiers and projects them to
// an estimated daily peak.
package uvindex

import (
	"encoding/json"
	"fmt"
	"math"
)

// RiskTier is one of five ordered UV risk bands.
type RiskTier int

const (
	Low RiskTier = iota
	Moderate
	High
	VeryHigh
	Extreme
)

// Tiers lists every tier in ascending order.
var Tiers = []RiskTier{Low, Moderate, High, VeryHigh, Extreme}

type tierInfo struct {
	key     string
	label   string
	color   string
	message string
}

var tierTable = map[RiskTier]tierInfo{
	Low: {
		key:     "low",
		label:   "Low",
		color:   "#2ecc71",
		message: "Low risk from UV rays. Most people can stay outdoors with minimal protection.",
	},
	Moderate: {
		key:     "moderate",
		label:   "Moderate",
		color:   "#f1c40f",
		message: "Moderate risk from UV rays. Take precautions if you will be outside.",
	},
	High: {
		key:     "high",
		label:   "High",
		color:   "#e67e22",
		message: "High risk from UV rays. Protection against skin and eye damage is needed.",
	},
	VeryHigh: {
		key:     "very_high",
		label:   "Very High",
		color:   "#e74c3c",
		message: "Very high risk from UV rays. Extra protection is needed. Try to avoid sun during midday hours.",
	},
	Extreme: {
		key:     "extreme",
		label:   "Extreme",
		color:   "#9b59b6",
		message: "Extreme risk from UV rays. Take all precautions: shirt, sunscreen, hat, sunglasses, and stay in shade.",
	},
}

// Classify maps a UV value onto its tier using half-open boundaries.
// NaN is treated as 0.
func Classify(v float64) RiskTier {
	if math.IsNaN(v) {
		v = 0
	}
	switch {
	case v < 3:
		return Low
	case v < 6:
		return Moderate
	case v < 8:
		return High
	case v < 11:
		return VeryHigh
	default:
		return Extreme
	}
}

// ClassifyAny classifies loosely typed input such as a string from a JSON payload.
func ClassifyAny(raw any) RiskTier {
	return Classify(ParseValue(raw))
}

// Valid reports whether t is a known tier.
func (t RiskTier) Valid() bool {
	_, ok := tierTable[t]
	return ok
}

// Key is the machine-friendly tier name.
func (t RiskTier) Key() string { return Key(t) }

// String implements fmt.Stringer.
func (t RiskTier) String() string { return Label(t) }

// MarshalJSON renders the tier by key.
func (t RiskTier) MarshalJSON() ([]byte, error) {
	return json.Marshal(Key(t))
}

// UnmarshalJSON accepts a tier key or its ordinal.
func (t *RiskTier) UnmarshalJSON(data []byte) error {
	var key string
	if err := json.Unmarshal(data, &key); err == nil {
		for _, tier := range Tiers {
			if tierTable[tier].key == key {
				*t = tier
				return nil
			}
		}
		return fmt.Errorf("unknown risk tier %q", key)
	}
	var ordinal int
	if err := json.Unmarshal(data, &ordinal); err != nil {
		return fmt.Errorf("decode risk tier: %w", err)
	}
	tier := RiskTier(ordinal)
	if !tier.Valid() {
		return fmt.Errorf("risk tier %d out of range", ordinal)
	}
	*t = tier
	return nil
}

// Key returns the snake_case identifier for a tier.
func Key(t RiskTier) string {
	return lookup(t).key
}

// Label returns the display label for a tier.
func Label(t RiskTier) string {
	return lookup(t).label
}

// Color returns the reference colour for a tier.
func Color(t RiskTier) string {
	return lookup(t).color
}

// RiskMessage returns the short risk explanation shown beside a reading.
func RiskMessage(t RiskTier) string {
	return lookup(t).message
}

func lookup(t RiskTier) tierInfo {
	if info, ok := tierTable[t]; ok {
		return info
	}
	return tierTable[Low]
}
