package risk

const guideline = "MOHFW ANC Guidelines 2021 — Section "

// Rule is one clinical indicator evaluator. Rules never read each other's output.
type Rule struct {
	Condition   string
	Explanation string
	Citation    string
	Level       Level
	Applies     func(o ClinicalObservation) bool
}

// Flag returns the flag a triggered rule contributes.
func (r Rule) Flag() Flag {
	return Flag{Condition: r.Condition, Explanation: r.Explanation, Citation: r.Citation}
}

// defaultRules is evaluated in display order. Order affects the flag list only,
// never the level.
var defaultRules = []Rule{
	{
		Condition:   "Severe Hypertension",
		Explanation: "BP ≥160/110 mmHg — severe hypertensive disorder requiring urgent management.",
		Citation:    guideline + "4.3",
		Level:       LevelRed,
		Applies: func(o ClinicalObservation) bool {
			return SevereHypertension(o.Vitals.BPSystolic, o.Vitals.BPDiastolic)
		},
	},
	{
		Condition:   "Gestational Hypertension",
		Explanation: "BP ≥140/90 mmHg — close monitoring and possible intervention required.",
		Citation:    guideline + "4.2",
		Level:       LevelAmber,
		Applies: func(o ClinicalObservation) bool {
			sys, dia := o.Vitals.BPSystolic, o.Vitals.BPDiastolic
			return Hypertension(sys, dia) && !SevereHypertension(sys, dia)
		},
	},
	{
		Condition:   "Pre-eclampsia (Suspected)",
		Explanation: "Hypertension + proteinuria meets diagnostic criteria for pre-eclampsia.",
		Citation:    guideline + "4.4",
		Level:       LevelRed,
		Applies: func(o ClinicalObservation) bool {
			return o.Urine.Protein && Hypertension(o.Vitals.BPSystolic, o.Vitals.BPDiastolic)
		},
	},
	{
		Condition:   "Severe Anemia",
		Explanation: "Hemoglobin <7 g/dL — urgent iron therapy or transfusion required.",
		Citation:    guideline + "6.1",
		Level:       LevelRed,
		Applies:     func(o ClinicalObservation) bool { return SevereAnemia(o.Labs.Hemoglobin) },
	},
	{
		Condition:   "Anemia",
		Explanation: "Hemoglobin <11 g/dL — iron and folic acid supplementation required.",
		Citation:    guideline + "6.1",
		Level:       LevelAmber,
		Applies: func(o ClinicalObservation) bool {
			return Anemia(o.Labs.Hemoglobin) && !SevereAnemia(o.Labs.Hemoglobin)
		},
	},
	{
		Condition:   "Convulsions / Eclampsia",
		Explanation: "Medical emergency — immediate hospitalization required.",
		Citation:    guideline + "4.5",
		Level:       LevelRed,
		Applies:     func(o ClinicalObservation) bool { return o.DangerSigns.Convulsions },
	},
	{
		Condition:   "Antepartum Hemorrhage",
		Explanation: "Vaginal bleeding requires immediate obstetric evaluation.",
		Citation:    guideline + "7.1",
		Level:       LevelRed,
		Applies:     func(o ClinicalObservation) bool { return o.DangerSigns.VaginalBleeding },
	},
	{
		Condition:   "Placenta Previa",
		Explanation: "High-risk condition requiring specialist care.",
		Citation:    guideline + "7.2",
		Level:       LevelRed,
		Applies:     func(o ClinicalObservation) bool { return o.History.PlacentaPrevia },
	},
	{
		Condition:   "Neurological Warning Signs",
		Explanation: "Headache + visual disturbance may indicate impending eclampsia.",
		Citation:    guideline + "4.4",
		Level:       LevelAmber,
		Applies: func(o ClinicalObservation) bool {
			return o.DangerSigns.Headache && o.DangerSigns.VisualDisturbance
		},
	},
	{
		Condition:   "Multiple Pregnancy",
		Explanation: "Twin pregnancy requires specialist monitoring.",
		Citation:    guideline + "8.2",
		Level:       LevelAmber,
		Applies:     func(o ClinicalObservation) bool { return o.History.TwinPregnancy },
	},
	{
		Condition:   "Previous Stillbirth",
		Explanation: "Increases risk in current pregnancy.",
		Citation:    guideline + "3.1",
		Level:       LevelAmber,
		Applies:     func(o ClinicalObservation) bool { return o.History.PreviousStillbirth },
	},
	{
		Condition:   "HIV Positive",
		Explanation: "PMTCT protocol initiation required.",
		Citation:    guideline + "9.2",
		Level:       LevelAmber,
		Applies:     func(o ClinicalObservation) bool { return o.Labs.HIVReactive },
	},
	{
		Condition:   "Rh Negative",
		Explanation: "Anti-D prophylaxis required to prevent sensitization.",
		Citation:    guideline + "5.3",
		Level:       LevelAmber,
		Applies:     func(o ClinicalObservation) bool { return o.History.RhNegative },
	},
	{
		Condition:   "Chronic Hypertension",
		Explanation: "Pre-existing hypertension increases maternal and fetal risk.",
		Citation:    guideline + "4.1",
		Level:       LevelAmber,
		Applies:     func(o ClinicalObservation) bool { return o.Comorbidities.ChronicHypertension },
	},
	{
		Condition:   "Diabetes",
		Explanation: "Requires glycemic control and additional fetal monitoring.",
		Citation:    guideline + "5.1",
		Level:       LevelAmber,
		Applies:     func(o ClinicalObservation) bool { return o.Comorbidities.Diabetes },
	},
}

// DefaultRules returns a copy of the ANC rule table in evaluation order.
func DefaultRules() []Rule {
	out := make([]Rule, len(defaultRules))
	copy(out, defaultRules)
	return out
}
