package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bp(sys, dia float64) Vitals {
	return Vitals{BPSystolic: Value(sys), BPDiastolic: Value(dia)}
}

func normalObservation() ClinicalObservation {
	return ClinicalObservation{
		GestationalWeeks: Value(16),
		Vitals:           bp(118, 76),
		Labs:             Labs{Hemoglobin: Value(11.8)},
	}
}

func conditions(r Result) []string {
	out := make([]string, 0, len(r.Flags))
	for _, f := range r.Flags {
		out = append(out, f.Condition)
	}
	return out
}

func TestAssess_NormalVisitIsGreen(t *testing.T) {
	r := Assess(normalObservation())

	assert.Equal(t, LevelGreen, r.Level)
	require.NotNil(t, r.Flags)
	assert.Empty(t, r.Flags)
	assert.Equal(t, 96, r.Confidence)
}

func TestAssess_HypertensionWithAnemia(t *testing.T) {
	o := normalObservation()
	o.Vitals = bp(145, 95)
	o.Labs.Hemoglobin = Value(9.8)
	o.History.PreviousCesarean = true

	r := Assess(o)

	assert.Equal(t, LevelAmber, r.Level)
	assert.Equal(t, []string{"Gestational Hypertension", "Anemia"}, conditions(r))
	assert.Equal(t, 94, r.Confidence)
}

func TestAssess_SystolicBoundaries(t *testing.T) {
	cases := []struct {
		sys       float64
		level     Level
		condition string
	}{
		{160, LevelRed, "Severe Hypertension"},
		{159, LevelAmber, "Gestational Hypertension"},
		{140, LevelAmber, "Gestational Hypertension"},
		{139, LevelGreen, ""},
	}
	for _, tc := range cases {
		o := normalObservation()
		o.Vitals = bp(tc.sys, 80)
		r := Assess(o)
		assert.Equal(t, tc.level, r.Level, "sys=%v", tc.sys)
		if tc.condition == "" {
			assert.Empty(t, r.Flags, "sys=%v", tc.sys)
			continue
		}
		assert.Equal(t, []string{tc.condition}, conditions(r), "sys=%v", tc.sys)
	}
}

func TestAssess_DiastolicBoundaries(t *testing.T) {
	o := normalObservation()
	o.Vitals = bp(120, 110)
	assert.Equal(t, LevelRed, Assess(o).Level)

	o.Vitals = bp(120, 109)
	assert.Equal(t, LevelAmber, Assess(o).Level)

	o.Vitals = bp(120, 90)
	assert.Equal(t, LevelAmber, Assess(o).Level)

	o.Vitals = bp(120, 89)
	assert.Equal(t, LevelGreen, Assess(o).Level)
}

func TestAssess_UnsetBloodPressureNeverTriggers(t *testing.T) {
	o := normalObservation()
	o.Vitals = Vitals{}
	o.Urine.Protein = true

	r := Assess(o)

	assert.Equal(t, LevelGreen, r.Level)
	assert.Empty(t, r.Flags)
}

func TestAssess_UnsetHemoglobinNeverTriggers(t *testing.T) {
	o := normalObservation()
	o.Labs.Hemoglobin = Unset()

	assert.Equal(t, LevelGreen, Assess(o).Level)
}

func TestAssess_ZeroHemoglobinIsARecordedValue(t *testing.T) {
	o := normalObservation()
	o.Labs.Hemoglobin = Value(0)

	r := Assess(o)

	assert.Equal(t, LevelRed, r.Level)
	assert.Equal(t, []string{"Severe Anemia"}, conditions(r))
}

func TestAssess_PartialBloodPressurePair(t *testing.T) {
	o := normalObservation()
	o.Vitals = Vitals{BPSystolic: Value(165)}
	assert.Equal(t, []string{"Severe Hypertension"}, conditions(Assess(o)))

	o.Vitals = Vitals{BPDiastolic: Value(95)}
	assert.Equal(t, []string{"Gestational Hypertension"}, conditions(Assess(o)))
}

func TestAssess_PreEclampsiaOverridesHypertensionOnlyAmber(t *testing.T) {
	o := normalObservation()
	o.Vitals = bp(150, 95)
	assert.Equal(t, LevelAmber, Assess(o).Level)

	o.Urine.Protein = true
	r := Assess(o)

	assert.Equal(t, LevelRed, r.Level)
	assert.Contains(t, conditions(r), "Pre-eclampsia (Suspected)")
	assert.Contains(t, conditions(r), "Gestational Hypertension")
}

func TestAssess_SevereAndGestationalAreExclusive(t *testing.T) {
	o := normalObservation()
	o.Vitals = bp(170, 115)

	assert.Equal(t, []string{"Severe Hypertension"}, conditions(Assess(o)))
}

func TestAssess_RedDominatesLaterAmberRules(t *testing.T) {
	o := normalObservation()
	o.DangerSigns.Convulsions = true
	o.History.TwinPregnancy = true
	o.History.RhNegative = true
	o.Comorbidities.Diabetes = true

	r := Assess(o)

	assert.Equal(t, LevelRed, r.Level)
	assert.Len(t, r.Flags, 4)
}

func TestAssess_EveryRedRuleEscalates(t *testing.T) {
	reds := map[string]func(o *ClinicalObservation){
		"severe hypertension": func(o *ClinicalObservation) { o.Vitals = bp(180, 80) },
		"pre-eclampsia":       func(o *ClinicalObservation) { o.Vitals = bp(142, 80); o.Urine.Protein = true },
		"severe anemia":       func(o *ClinicalObservation) { o.Labs.Hemoglobin = Value(6.9) },
		"convulsions":         func(o *ClinicalObservation) { o.DangerSigns.Convulsions = true },
		"bleeding":            func(o *ClinicalObservation) { o.DangerSigns.VaginalBleeding = true },
		"placenta previa":     func(o *ClinicalObservation) { o.History.PlacentaPrevia = true },
	}
	ambers := func(o *ClinicalObservation) {
		o.DangerSigns.Headache = true
		o.DangerSigns.VisualDisturbance = true
		o.History.TwinPregnancy = true
		o.History.PreviousStillbirth = true
		o.Labs.HIVReactive = true
		o.History.RhNegative = true
		o.Comorbidities.ChronicHypertension = true
		o.Comorbidities.Diabetes = true
	}
	for name, apply := range reds {
		t.Run(name, func(t *testing.T) {
			o := normalObservation()
			ambers(&o)
			apply(&o)
			assert.Equal(t, LevelRed, Assess(o).Level)
		})
	}
}

func TestAssess_EveryAmberRule(t *testing.T) {
	cases := map[string]func(o *ClinicalObservation){
		"Anemia":                     func(o *ClinicalObservation) { o.Labs.Hemoglobin = Value(10.9) },
		"Neurological Warning Signs": func(o *ClinicalObservation) { o.DangerSigns.Headache = true; o.DangerSigns.VisualDisturbance = true },
		"Multiple Pregnancy":         func(o *ClinicalObservation) { o.History.TwinPregnancy = true },
		"Previous Stillbirth":        func(o *ClinicalObservation) { o.History.PreviousStillbirth = true },
		"HIV Positive":               func(o *ClinicalObservation) { o.Labs.HIVReactive = true },
		"Rh Negative":                func(o *ClinicalObservation) { o.History.RhNegative = true },
		"Chronic Hypertension":       func(o *ClinicalObservation) { o.Comorbidities.ChronicHypertension = true },
		"Diabetes":                   func(o *ClinicalObservation) { o.Comorbidities.Diabetes = true },
	}
	for condition, apply := range cases {
		t.Run(condition, func(t *testing.T) {
			o := normalObservation()
			apply(&o)
			r := Assess(o)
			assert.Equal(t, LevelAmber, r.Level)
			assert.Equal(t, []string{condition}, conditions(r))
			assert.Equal(t, 93, r.Confidence)
		})
	}
}

func TestAssess_HeadacheAloneDoesNotFlag(t *testing.T) {
	o := normalObservation()
	o.DangerSigns.Headache = true

	assert.Equal(t, LevelGreen, Assess(o).Level)
}

func TestAssess_FlagsFollowRuleOrder(t *testing.T) {
	o := normalObservation()
	o.Comorbidities.Diabetes = true
	o.DangerSigns.VaginalBleeding = true
	o.Labs.Hemoglobin = Value(10)

	r := Assess(o)

	assert.Equal(t, []string{"Anemia", "Antepartum Hemorrhage", "Diabetes"}, conditions(r))
	assert.Equal(t, "MOHFW ANC Guidelines 2021 — Section 7.1", r.Flags[1].Citation)
}

func TestAssess_ConfidenceSaturates(t *testing.T) {
	o := normalObservation()
	o.History.TwinPregnancy = true
	o.History.PreviousStillbirth = true
	o.Labs.HIVReactive = true
	o.History.RhNegative = true
	o.Comorbidities.ChronicHypertension = true
	o.Comorbidities.Diabetes = true

	r := Assess(o)

	require.Len(t, r.Flags, 6)
	assert.Equal(t, 98, r.Confidence)

	o.DangerSigns.Convulsions = true
	o.DangerSigns.VaginalBleeding = true
	assert.Equal(t, 98, Assess(o).Confidence)
}

func TestAssess_Idempotent(t *testing.T) {
	o := normalObservation()
	o.Vitals = bp(150, 100)
	o.Urine.Protein = true
	o.Labs.Hemoglobin = Value(8)

	assert.Equal(t, Assess(o), Assess(o))
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, 96, Confidence(LevelGreen, 0))
	assert.Equal(t, 93, Confidence(LevelAmber, 1))
	assert.Equal(t, 94, Confidence(LevelRed, 2))
	assert.Equal(t, 96, Confidence(LevelRed, 3))
	assert.Equal(t, 97, Confidence(LevelAmber, 4))
	assert.Equal(t, 98, Confidence(LevelAmber, 5))
	assert.Equal(t, 98, Confidence(LevelRed, 12))
}

func TestNewEngine_CustomRulesRatchet(t *testing.T) {
	always := func(ClinicalObservation) bool { return true }
	e := NewEngine(
		Rule{Condition: "a", Level: LevelRed, Applies: always},
		Rule{Condition: "b", Level: LevelAmber, Applies: always},
		Rule{Condition: "skipped", Level: LevelRed},
	)

	r := e.Assess(ClinicalObservation{})

	assert.Equal(t, LevelRed, r.Level)
	assert.Equal(t, []string{"a", "b"}, conditions(r))
}

func TestNewEngine_RejectsNonEscalatingRules(t *testing.T) {
	always := func(ClinicalObservation) bool { return true }

	assert.PanicsWithValue(t, `risk: rule "c" has level "GREEN", want AMBER or RED`, func() {
		NewEngine(Rule{Condition: "a", Level: LevelAmber, Applies: always}, Rule{Condition: "c", Level: LevelGreen, Applies: always})
	})
	assert.Panics(t, func() { NewEngine(Rule{Condition: "unset", Applies: always}) })
	assert.NotPanics(t, func() { NewEngine() })
}

func TestDefaultRules_ReturnsCopy(t *testing.T) {
	rules := DefaultRules()
	require.Len(t, rules, 15)
	rules[0].Level = LevelGreen

	assert.Equal(t, LevelRed, DefaultRules()[0].Level)
}

func TestMissingFields(t *testing.T) {
	assert.Empty(t, MissingFields(normalObservation()))
	assert.Equal(t,
		[]string{FieldGestationalWeeks, FieldBPSystolic, FieldBPDiastolic, FieldHemoglobin},
		MissingFields(ClinicalObservation{}))
}

func TestLevel_Max(t *testing.T) {
	assert.Equal(t, LevelRed, LevelAmber.Max(LevelRed))
	assert.Equal(t, LevelRed, LevelRed.Max(LevelAmber))
	assert.Equal(t, LevelRed, LevelRed.Max(LevelGreen))
	assert.Equal(t, LevelGreen, Level("").Max(LevelGreen))
	assert.True(t, LevelRed.AtLeast(LevelAmber))
	assert.False(t, LevelGreen.AtLeast(LevelAmber))

	l, ok := ParseLevel(" amber ")
	assert.True(t, ok)
	assert.Equal(t, LevelAmber, l)
	_, ok = ParseLevel("purple")
	assert.False(t, ok)
}
