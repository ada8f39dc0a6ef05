package risk

import (
	"math"
	"time"
)

// Tone is the colour of a live form badge.
type Tone string

const (
	ToneRed   Tone = "red"
	ToneAmber Tone = "amber"
	ToneGreen Tone = "green"
)

// Badge is per-field feedback shown while a form is being filled in.
// Badges are not part of a Result.
type Badge struct {
	Label string `json:"label"`
	Tone  Tone   `json:"tone"`
}

// BPBadge grades a blood-pressure pair. It needs both readings.
func BPBadge(sys, dia Measure) (Badge, bool) {
	if !sys.Positive() || !dia.Positive() {
		return Badge{}, false
	}
	switch {
	case SevereHypertension(sys, dia):
		return Badge{Label: "Danger", Tone: ToneRed}, true
	case Hypertension(sys, dia):
		return Badge{Label: "Elevated", Tone: ToneAmber}, true
	default:
		return Badge{Label: "Normal", Tone: ToneGreen}, true
	}
}

// HbBadge grades hemoglobin with a finer split than the Anemia rule.
func HbBadge(hb Measure) (Badge, bool) {
	if !hb.Positive() {
		return Badge{}, false
	}
	switch {
	case SevereAnemia(hb):
		return Badge{Label: "Severe Anemia", Tone: ToneRed}, true
	case hb.Below(ModerateAnemiaHb):
		return Badge{Label: "Moderate Anemia", Tone: ToneAmber}, true
	case Anemia(hb):
		return Badge{Label: "Mild Anemia", Tone: ToneAmber}, true
	default:
		return Badge{Label: "Normal", Tone: ToneGreen}, true
	}
}

// BMI returns weight / (height in m)², rounded to one decimal.
func BMI(heightCm, weightKg Measure) (float64, bool) {
	if !heightCm.Positive() || !weightKg.Positive() {
		return 0, false
	}
	h, _ := heightCm.Get()
	w, _ := weightKg.Get()
	hm := h / 100
	return math.Round(w/(hm*hm)*10) / 10, true
}

// GestationalAge counts completed weeks and days since the last menstrual period.
// ok is false when lmp is after now.
func GestationalAge(lmp, now time.Time) (weeks, days int, ok bool) {
	l := time.Date(lmp.Year(), lmp.Month(), lmp.Day(), 0, 0, 0, 0, time.UTC)
	n := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	diff := int(n.Sub(l).Hours() / 24)
	if diff < 0 {
		return 0, 0, false
	}
	return diff / 7, diff % 7, true
}
