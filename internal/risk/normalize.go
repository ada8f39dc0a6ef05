package risk

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Form field names of the ANC visit form.
const (
	FieldPatientID        = "patientId"
	FieldVisitDate        = "visitDate"
	FieldGestationalWeeks = "gestationalWeeks"
	FieldHeightCm         = "heightCm"
	FieldWeightKg         = "weightKg"
	FieldBPSystolic       = "bpSystolic"
	FieldBPDiastolic      = "bpDiastolic"
	FieldHemoglobin       = "hemoglobin"
)

type numericField struct {
	key string
	set func(o *ClinicalObservation, m Measure)
}

type boolField struct {
	key string
	set func(o *ClinicalObservation, b bool)
}

var visitNumericFields = []numericField{
	{FieldGestationalWeeks, func(o *ClinicalObservation, m Measure) { o.GestationalWeeks = completedWeeks(m) }},
	{FieldHeightCm, func(o *ClinicalObservation, m Measure) { o.Vitals.HeightCm = m }},
	{FieldWeightKg, func(o *ClinicalObservation, m Measure) { o.Vitals.WeightKg = m }},
	{FieldBPSystolic, func(o *ClinicalObservation, m Measure) { o.Vitals.BPSystolic = m }},
	{FieldBPDiastolic, func(o *ClinicalObservation, m Measure) { o.Vitals.BPDiastolic = m }},
	{FieldHemoglobin, func(o *ClinicalObservation, m Measure) { o.Labs.Hemoglobin = m }},
	{"birthOrder", func(o *ClinicalObservation, m Measure) { o.History.Gravida = m }},
	{"stillbirthCount", func(o *ClinicalObservation, m Measure) { o.History.StillbirthCount = m }},
	{"abortionCount", func(o *ClinicalObservation, m Measure) { o.History.AbortionCount = m }},
	{"interPregnancyInterval", func(o *ClinicalObservation, m Measure) { o.History.InterPregnancyInterval = m }},
}

var visitBoolFields = []boolField{
	{"previousLSCS", func(o *ClinicalObservation, b bool) { o.History.PreviousCesarean = b }},
	{"badObstetricHistory", func(o *ClinicalObservation, b bool) { o.History.BadObstetricHistory = b }},
	{"previousStillbirth", func(o *ClinicalObservation, b bool) { o.History.PreviousStillbirth = b }},
	{"previousPretermDelivery", func(o *ClinicalObservation, b bool) { o.History.PreviousPreterm = o.History.PreviousPreterm || b }},
	{"pretermHistory", func(o *ClinicalObservation, b bool) { o.History.PreviousPreterm = o.History.PreviousPreterm || b }},
	{"previousAbortion", func(o *ClinicalObservation, b bool) { o.History.PreviousAbortion = b }},
	{"rhNegative", func(o *ClinicalObservation, b bool) { o.History.RhNegative = b }},
	{"twinPregnancy", func(o *ClinicalObservation, b bool) { o.History.TwinPregnancy = b }},
	{"malpresentation", func(o *ClinicalObservation, b bool) { o.History.Malpresentation = b }},
	{"placentaPrevia", func(o *ClinicalObservation, b bool) { o.History.PlacentaPrevia = b }},
	{"reducedFetalMovement", func(o *ClinicalObservation, b bool) { o.History.ReducedFetalMovement = b }},
	{"umbilicalDopplerAbnormal", func(o *ClinicalObservation, b bool) { o.History.UmbilicalDopplerAbnormal = b }},
	{"systemicIllness", func(o *ClinicalObservation, b bool) { o.Comorbidities.SystemicIllness = b }},
	{"chronicHypertension", func(o *ClinicalObservation, b bool) { o.Comorbidities.ChronicHypertension = b }},
	{"diabetes", func(o *ClinicalObservation, b bool) { o.Comorbidities.Diabetes = b }},
	{"thyroidDisorder", func(o *ClinicalObservation, b bool) { o.Comorbidities.ThyroidDisorder = b }},
	{"smoking", func(o *ClinicalObservation, b bool) { o.Lifestyle.Smoking = b }},
	{"tobaccoUse", func(o *ClinicalObservation, b bool) { o.Lifestyle.TobaccoUse = b }},
	{"alcoholUse", func(o *ClinicalObservation, b bool) { o.Lifestyle.AlcoholUse = b }},
	{"hivPositive", func(o *ClinicalObservation, b bool) { o.Labs.HIVReactive = b }},
	{"syphilisPositive", func(o *ClinicalObservation, b bool) { o.Labs.SyphilisReactive = b }},
	{"urineProtein", func(o *ClinicalObservation, b bool) { o.Urine.Protein = b }},
	{"urineSugar", func(o *ClinicalObservation, b bool) { o.Urine.Sugar = b }},
	{"headache", func(o *ClinicalObservation, b bool) { o.DangerSigns.Headache = b }},
	{"visualDisturbance", func(o *ClinicalObservation, b bool) { o.DangerSigns.VisualDisturbance = b }},
	{"epigastricPain", func(o *ClinicalObservation, b bool) { o.DangerSigns.EpigastricPain = b }},
	{"decreasedUrineOutput", func(o *ClinicalObservation, b bool) { o.DangerSigns.DecreasedUrineOutput = b }},
	{"bleedingPerVagina", func(o *ClinicalObservation, b bool) { o.DangerSigns.VaginalBleeding = b }},
	{"convulsions", func(o *ClinicalObservation, b bool) { o.DangerSigns.Convulsions = b }},
	{"highFever", func(o *ClinicalObservation, b bool) { o.DangerSigns.HighFever = b }},
	{"severeSwelling", func(o *ClinicalObservation, b bool) { o.DangerSigns.SevereSwelling = b }},
	{"abdominalPain", func(o *ClinicalObservation, b bool) { o.DangerSigns.AbdominalPain = b }},
}

// completedWeeks truncates gestational age to whole weeks. Negative values are Unset.
func completedWeeks(m Measure) Measure {
	v, ok := m.Get()
	if !ok || v < 0 {
		return Unset()
	}
	return Value(math.Floor(v))
}

// Normalize coerces the raw ANC visit form into a ClinicalObservation.
// It never fails: unparseable numbers become Unset and absent booleans are false.
func Normalize(raw map[string]any) ClinicalObservation {
	var o ClinicalObservation
	o.PatientID = toText(raw[FieldPatientID])
	o.VisitDate = toText(raw[FieldVisitDate])
	for _, f := range visitNumericFields {
		f.set(&o, toMeasure(raw[f.key]))
	}
	for _, f := range visitBoolFields {
		f.set(&o, toBool(raw[f.key]))
	}
	o.Comorbidities.SystemicIllnessDetails = strings.TrimSpace(toText(raw["systemicIllnessDetails"]))

	// The form defaults amnioticFluidNormal to true, so only an explicit
	// false is recorded as a finding.
	if v, ok := raw["amnioticFluidNormal"]; ok && v != nil && isExplicitFalse(v) {
		o.History.AmnioticFluidAbnormal = true
	}
	return o
}

// NormalizeRegistration coerces the simplified registration intake form.
// Combined toggles on that form set every condition they name.
func NormalizeRegistration(raw map[string]any) ClinicalObservation {
	var o ClinicalObservation
	o.PatientID = toText(raw[FieldPatientID])

	o.Vitals.HeightCm = toMeasure(raw[FieldHeightCm])
	o.Vitals.WeightKg = toMeasure(raw[FieldWeightKg])
	o.Vitals.BPSystolic, o.Vitals.BPDiastolic = ParseBloodPressure(toText(raw["baselineBP"]))
	o.GestationalWeeks = completedWeeks(toMeasure(raw[FieldGestationalWeeks]))

	o.History.PreviousCesarean = toBool(raw["previousLSCS"])
	o.History.PreviousStillbirth = toBool(raw["stillbirthHistory"])
	o.History.TwinPregnancy = toBool(raw["twinPregnancy"])
	o.Comorbidities.ChronicHypertension = toBool(raw["chronicHypertension"])

	diabetesThyroid := toBool(raw["diabetesThyroid"])
	o.Comorbidities.Diabetes = diabetesThyroid
	o.Comorbidities.ThyroidDisorder = diabetesThyroid

	hivSyphilis := toBool(raw["hivSyphilis"])
	o.Labs.HIVReactive = hivSyphilis
	o.Labs.SyphilisReactive = hivSyphilis

	o.DangerSigns.Headache = toBool(raw["severeHeadache"])
	o.DangerSigns.VisualDisturbance = toBool(raw["blurredVision"])
	o.DangerSigns.VaginalBleeding = toBool(raw["vaginalBleeding"])
	o.DangerSigns.AbdominalPain = toBool(raw["abdominalPain"])
	o.DangerSigns.SevereSwelling = toBool(raw["swellingFeet"])
	return o
}

// ParseBloodPressure splits a "120/80" reading. Either half may come back Unset.
func ParseBloodPressure(s string) (sys, dia Measure) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 {
		return Unset(), Unset()
	}
	return ParseMeasure(parts[0]), ParseMeasure(parts[1])
}

func toMeasure(v any) Measure {
	switch t := v.(type) {
	case nil:
		return Unset()
	case string:
		return ParseMeasure(t)
	case float64:
		return Value(t)
	case float32:
		return Value(float64(t))
	case int:
		return Value(float64(t))
	case int64:
		return Value(float64(t))
	case json.Number:
		return ParseMeasure(t.String())
	default:
		return Unset()
	}
}

func toBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "on", "1", "reactive", "positive":
			return true
		}
		return false
	case float64:
		return t == 1
	case int:
		return t == 1
	case int64:
		return t == 1
	case json.Number:
		return t.String() == "1"
	default:
		return false
	}
}

func isExplicitFalse(v any) bool {
	switch t := v.(type) {
	case bool:
		return !t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "false", "no", "off", "0":
			return true
		}
	case float64:
		return t == 0
	case int:
		return t == 0
	}
	return false
}

func toText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == math.Trunc(t) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
