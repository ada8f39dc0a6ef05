package risk

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_FormStrings(t *testing.T) {
	o := Normalize(map[string]any{
		"patientId":         "p-1",
		"visitDate":         "2026-02-21",
		"gestationalWeeks":  "28",
		"heightCm":          "155",
		"weightKg":          "58",
		"bpSystolic":        "145",
		"bpDiastolic":       " 95 ",
		"hemoglobin":        "9.8",
		"previousLSCS":      true,
		"urineProtein":      "true",
		"hivPositive":       "REACTIVE",
		"syphilisPositive":  "NON_REACTIVE",
		"bleedingPerVagina": false,
	})

	assert.Equal(t, "p-1", o.PatientID)
	assert.Equal(t, "2026-02-21", o.VisitDate)
	v, ok := o.Vitals.BPDiastolic.Get()
	require.True(t, ok)
	assert.Equal(t, 95.0, v)
	assert.True(t, o.Labs.Hemoglobin.AtLeast(9.8))
	assert.True(t, o.History.PreviousCesarean)
	assert.True(t, o.Urine.Protein)
	assert.True(t, o.Labs.HIVReactive)
	assert.False(t, o.Labs.SyphilisReactive)
	assert.False(t, o.DangerSigns.VaginalBleeding)

	bmi, ok := o.Vitals.BMI().Get()
	require.True(t, ok)
	assert.Equal(t, 24.1, bmi)
}

func TestNormalize_InvalidNumbersAreUnsetNotZero(t *testing.T) {
	o := Normalize(map[string]any{
		"bpSystolic":  "",
		"bpDiastolic": "abc",
		"hemoglobin":  nil,
		"heightCm":    "12o",
		"weightKg":    []int{1},
	})

	assert.False(t, o.Vitals.BPSystolic.IsSet())
	assert.False(t, o.Vitals.BPDiastolic.IsSet())
	assert.False(t, o.Labs.Hemoglobin.IsSet())
	assert.False(t, o.Vitals.HeightCm.IsSet())
	assert.False(t, o.Vitals.WeightKg.IsSet())
	assert.False(t, o.Vitals.BPSystolic.Below(1))
}

func TestNormalize_ZeroIsRecorded(t *testing.T) {
	o := Normalize(map[string]any{"hemoglobin": "0"})

	v, ok := o.Labs.Hemoglobin.Get()
	assert.True(t, ok)
	assert.Equal(t, 0.0, v)
}

func TestNormalize_EmptyInputIsAllDefaults(t *testing.T) {
	o := Normalize(nil)

	assert.Equal(t, ClinicalObservation{}, o)
	assert.Equal(t, LevelGreen, Assess(o).Level)
}

func TestNormalize_NegativeGestationIsUnset(t *testing.T) {
	o := Normalize(map[string]any{"gestationalWeeks": -3.0})

	assert.False(t, o.GestationalWeeks.IsSet())
}

func TestNormalize_GestationIsCompletedWeeks(t *testing.T) {
	for _, raw := range []any{"12.5", 12.9, "12"} {
		ga, ok := Normalize(map[string]any{"gestationalWeeks": raw}).GestationalWeeks.Get()
		require.True(t, ok, "%v", raw)
		assert.Equal(t, 12.0, ga, "%v", raw)
	}

	ga, ok := NormalizeRegistration(map[string]any{"gestationalWeeks": "27.6"}).GestationalWeeks.Get()
	require.True(t, ok)
	assert.Equal(t, 27.0, ga)
	assert.False(t, NormalizeRegistration(map[string]any{"gestationalWeeks": -1}).GestationalWeeks.IsSet())
}

func TestNormalize_BooleanForms(t *testing.T) {
	o := Normalize(map[string]any{
		"convulsions":   1.0,
		"twinPregnancy": "yes",
		"rhNegative":    "maybe",
		"diabetes":      0.0,
		"headache":      "on",
	})

	assert.True(t, o.DangerSigns.Convulsions)
	assert.True(t, o.History.TwinPregnancy)
	assert.False(t, o.History.RhNegative)
	assert.False(t, o.Comorbidities.Diabetes)
	assert.True(t, o.DangerSigns.Headache)
}

func TestNormalize_AmnioticFluidOnlyExplicitFalseIsAbnormal(t *testing.T) {
	assert.False(t, Normalize(map[string]any{}).History.AmnioticFluidAbnormal)
	assert.False(t, Normalize(map[string]any{"amnioticFluidNormal": true}).History.AmnioticFluidAbnormal)
	assert.True(t, Normalize(map[string]any{"amnioticFluidNormal": false}).History.AmnioticFluidAbnormal)
}

func TestNormalize_PretermAliases(t *testing.T) {
	assert.True(t, Normalize(map[string]any{"pretermHistory": true}).History.PreviousPreterm)
	assert.True(t, Normalize(map[string]any{"previousPretermDelivery": true, "pretermHistory": false}).History.PreviousPreterm)
}

func TestNormalize_DecodedJSONNumbers(t *testing.T) {
	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{"bpSystolic":160,"bpDiastolic":100,"hemoglobin":"11.2"}`), &raw))

	r := Assess(Normalize(raw))

	assert.Equal(t, LevelRed, r.Level)
	assert.Equal(t, "Severe Hypertension", r.Flags[0].Condition)
}

func TestNormalizeRegistration_CombinedToggles(t *testing.T) {
	o := NormalizeRegistration(map[string]any{
		"baselineBP":      "150/96",
		"heightCm":        "160",
		"weightKg":        "72.5",
		"diabetesThyroid": true,
		"hivSyphilis":     true,
		"severeHeadache":  true,
		"blurredVision":   true,
		"swellingFeet":    true,
	})

	assert.True(t, o.Vitals.BPSystolic.AtLeast(150))
	assert.True(t, o.Vitals.BPDiastolic.AtLeast(96))
	assert.True(t, o.Comorbidities.Diabetes)
	assert.True(t, o.Comorbidities.ThyroidDisorder)
	assert.True(t, o.Labs.HIVReactive)
	assert.True(t, o.Labs.SyphilisReactive)
	assert.True(t, o.DangerSigns.SevereSwelling)

	r := Assess(o)
	assert.Equal(t, LevelAmber, r.Level)
	assert.Equal(t,
		[]string{"Gestational Hypertension", "Neurological Warning Signs", "HIV Positive", "Diabetes"},
		conditions(r))
}

func TestParseBloodPressure(t *testing.T) {
	sys, dia := ParseBloodPressure("120/80")
	assert.True(t, sys.IsSet())
	assert.True(t, dia.IsSet())

	sys, dia = ParseBloodPressure("120/")
	assert.True(t, sys.IsSet())
	assert.False(t, dia.IsSet())

	sys, dia = ParseBloodPressure("120")
	assert.False(t, sys.IsSet())
	assert.False(t, dia.IsSet())
}

func TestMeasure_JSON(t *testing.T) {
	type wrapper struct {
		A Measure `json:"a"`
		B Measure `json:"b"`
		C Measure `json:"c"`
	}
	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"a":12.5,"b":null,"c":"7"}`), &w))
	assert.True(t, w.A.AtLeast(12.5))
	assert.False(t, w.B.IsSet())
	assert.True(t, w.C.AtLeast(7))

	out, err := json.Marshal(wrapper{A: Value(1.5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1.5,"b":null,"c":null}`, string(out))
}

func TestObservation_JSONPreservesUnset(t *testing.T) {
	o := Normalize(map[string]any{"bpSystolic": "150", "hemoglobin": ""})
	raw, err := json.Marshal(o)
	require.NoError(t, err)

	var back ClinicalObservation
	require.NoError(t, json.Unmarshal(raw, &back))

	assert.Equal(t, o, back)
	assert.Equal(t, Assess(o), Assess(back))
}
