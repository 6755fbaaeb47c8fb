package uvadvisor

import (
	"fmt"
	"math"
	"strings"

	"github.com/yanqian/uv-australia/internal/domain/uvindex"
)

// Recommendation is the merged advice for one (tier, phototype) pair.
type Recommendation struct {
	Clothing            string `json:"clothing"`
	Sunscreen           string `json:"sunscreen"`
	ExposureWindow      string `json:"exposureWindow"`
	EyeProtection       string `json:"eyeProtection"`
	AdditionalAdvice    string `json:"additionalAdvice"`
	SafeExposureMinutes int    `json:"safeExposureMinutes"`
}

type field int

const (
	fieldClothing field = iota
	fieldSunscreen
	fieldExposure
	fieldEye
	fieldAdditional
)

type spf struct {
	label  string
	rating int
}

var (
	spf15to30 = spf{label: "SPF 15–30", rating: 15}
	spf30     = spf{label: "SPF 30+", rating: 30}
	spf50     = spf{label: "SPF 50+", rating: 50}
)

type baseAdvice struct {
	clothing      string
	spf           spf
	sunscreenNote string
	minutes       int
	exposureNote  string
	eye           string
	additional    string
}

var baseTable = map[uvindex.RiskTier]baseAdvice{
	uvindex.Low: {
		clothing:      "Light clothing is fine; bring a hat if you will be outdoors for long periods.",
		spf:           spf30,
		sunscreenNote: "on exposed skin if you will be outdoors for an extended time.",
		minutes:       120,
		exposureNote:  "Short outings need little protection.",
		eye:           "Sunglasses on bright days or near reflective surfaces such as water and sand.",
		additional:    "Check the UV index again around midday; levels can rise quickly.",
	},
	uvindex.Moderate: {
		clothing:      "Wear a broad-brimmed hat and a shirt that covers your shoulders.",
		spf:           spf30,
		sunscreenNote: "20 minutes before going outside and reapply every two hours.",
		minutes:       60,
		exposureNote:  "Seek shade during late morning and early afternoon.",
		eye:           "Wear close-fitting wraparound sunglasses (category 2 or higher).",
		additional:    "Take extra care near water, snow or sand, which reflect UV.",
	},
	uvindex.High: {
		clothing:      "Wear a broad-brimmed hat, a long-sleeved shirt and long pants in tightly woven fabric.",
		spf:           spf50,
		sunscreenNote: "generously 20 minutes before going outside; reapply every two hours and after swimming or sweating.",
		minutes:       30,
		exposureNote:  "Seek shade between 10am and 3pm.",
		eye:           "Wear category 3 wraparound sunglasses whenever you are outdoors.",
		additional:    "Plan outdoor activities for early morning or late afternoon.",
	},
	uvindex.VeryHigh: {
		clothing:      "Cover up with a collared long-sleeved shirt, long pants and a broad-brimmed or legionnaire hat.",
		spf:           spf50,
		sunscreenNote: "generously and reapply every two hours, after swimming, sweating or towelling.",
		minutes:       20,
		exposureNote:  "Avoid direct sun between 10am and 3pm where possible.",
		eye:           "Category 3 wraparound sunglasses are essential; pair them with a hat that shades the eyes.",
		additional:    "Unprotected skin can burn quickly; keep children in the shade.",
	},
	uvindex.Extreme: {
		clothing:      "Wear full-coverage UPF 50+ clothing, a broad-brimmed hat and closed shoes.",
		spf:           spf50,
		sunscreenNote: "generously to every exposed area and reapply every two hours without exception.",
		minutes:       10,
		exposureNote:  "Stay indoors or in full shade between 10am and 3pm.",
		eye:           "Wear wraparound sunglasses with the highest protection rating you can drive in, plus a wide-brimmed hat.",
		additional:    "Avoid outdoor activity in the middle of the day; unprotected skin burns within minutes.",
	},
}

// Exposure reduction and sunscreen reinforcement for sensitive skin.
var sensitiveOverlay = map[Phototype]struct {
	factor        float64
	reinforcement string
}{
	TypeI:  {factor: 0.5, reinforcement: "Your skin burns very easily: reapply at least every two hours and never rely on sunscreen alone."},
	TypeII: {factor: 0.7, reinforcement: "Fair skin burns quickly: reapply regularly and combine sunscreen with clothing and shade."},
}

var caveatPrefix = map[Phototype]string{
	TypeIII: "Medium skin can still burn.",
	TypeIV:  "Olive skin burns less often, not never.",
}

var tierCaveat = map[uvindex.RiskTier]string{
	uvindex.Low:      "Long days outdoors still add up over time.",
	uvindex.Moderate: "Protect yourself during the middle of the day.",
	uvindex.High:     "At this level follow the full protection routine.",
	uvindex.VeryHigh: "Treat today like fair skin would: cover up and seek shade.",
	uvindex.Extreme:  "Burns and eye damage are likely without full protection.",
}

var relaxedSPF = map[Phototype]spf{
	TypeV:  spf30,
	TypeVI: spf15to30,
}

// Recommend derives advice for a tier and phototype. It is total over all
// valid pairs; invalid inputs fall back to Low and Type I respectively.
func Recommend(tier uvindex.RiskTier, skin Phototype) Recommendation {
	base, ok := baseTable[tier]
	if !ok {
		tier = uvindex.Low
		base = baseTable[tier]
	}
	if !skin.Valid() {
		skin = TypeI
	}

	rec := Recommendation{
		Clothing:            base.clothing,
		Sunscreen:           sunscreenText(base.spf, base.sunscreenNote),
		ExposureWindow:      exposureText(base.minutes, base.exposureNote),
		EyeProtection:       base.eye,
		AdditionalAdvice:    base.additional,
		SafeExposureMinutes: base.minutes,
	}

	patch, minutes := overlayFor(tier, skin, base, rec)
	rec = merge(rec, patch)
	if minutes > 0 {
		rec.SafeExposureMinutes = minutes
	}
	return rec
}

// overlayFor returns only the fields the phototype rewrites.
func overlayFor(tier uvindex.RiskTier, skin Phototype, base baseAdvice, rec Recommendation) (map[field]string, int) {
	patch := make(map[field]string)
	switch skin {
	case TypeI, TypeII:
		o := sensitiveOverlay[skin]
		minutes := scaleMinutes(base.minutes, o.factor)
		patch[fieldExposure] = exposureText(minutes, base.exposureNote)
		patch[fieldSunscreen] = rec.Sunscreen + " " + o.reinforcement
		return patch, minutes
	case TypeIII, TypeIV:
		patch[fieldAdditional] = rec.AdditionalAdvice + " " + caveatPrefix[skin] + " " + tierCaveat[tier]
	case TypeV, TypeVI:
		relaxed := relaxedSPF[skin]
		if relaxed.rating < base.spf.rating {
			patch[fieldSunscreen] = sunscreenText(relaxed, base.sunscreenNote)
		}
	}
	return patch, 0
}

func merge(rec Recommendation, patch map[field]string) Recommendation {
	for f, value := range patch {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch f {
		case fieldClothing:
			rec.Clothing = value
		case fieldSunscreen:
			rec.Sunscreen = value
		case fieldExposure:
			rec.ExposureWindow = value
		case fieldEye:
			rec.EyeProtection = value
		case fieldAdditional:
			rec.AdditionalAdvice = value
		}
	}
	return rec
}

func sunscreenText(level spf, note string) string {
	return fmt.Sprintf("Apply %s broad-spectrum, water-resistant sunscreen %s", level.label, note)
}

func exposureText(minutes int, note string) string {
	return fmt.Sprintf("Limit unprotected sun exposure to about %d minutes. %s", minutes, note)
}

func scaleMinutes(minutes int, factor float64) int {
	scaled := int(math.Round(float64(minutes) * factor))
	if scaled < 1 {
		return 1
	}
	return scaled
}
