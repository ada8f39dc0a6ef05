package risk

// Clinical thresholds shared by the rule table and the live badges.
const (
	SevereSystolic        = 160.0 // mmHg
	SevereDiastolic       = 110.0 // mmHg
	HypertensiveSystolic  = 140.0 // mmHg
	HypertensiveDiastolic = 90.0  // mmHg

	SevereAnemiaHb   = 7.0  // g/dL
	ModerateAnemiaHb = 9.0  // g/dL, badge only
	AnemiaHb         = 11.0 // g/dL
)

// SevereHypertension reports sys >= 160 or dia >= 110 on whichever values were recorded.
func SevereHypertension(sys, dia Measure) bool {
	return sys.AtLeast(SevereSystolic) || dia.AtLeast(SevereDiastolic)
}

// Hypertension reports sys >= 140 or dia >= 90 on whichever values were recorded.
func Hypertension(sys, dia Measure) bool {
	return sys.AtLeast(HypertensiveSystolic) || dia.AtLeast(HypertensiveDiastolic)
}

// SevereAnemia reports Hb < 7.
func SevereAnemia(hb Measure) bool { return hb.Below(SevereAnemiaHb) }

// Anemia reports Hb < 11, including severe anemia.
func Anemia(hb Measure) bool { return hb.Below(AnemiaHb) }
