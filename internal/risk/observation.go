package risk

// ClinicalObservation is the normalized input of one ANC visit.
// It is built once from form input and never mutated by the engine.
type ClinicalObservation struct {
	PatientID        string  `json:"patientId,omitempty"`
	VisitDate        string  `json:"visitDate,omitempty"`
	GestationalWeeks Measure `json:"gestationalWeeks"`

	Vitals        Vitals        `json:"vitals"`
	Labs          Labs          `json:"labs"`
	History       History       `json:"history"`
	Comorbidities Comorbidities `json:"comorbidities"`
	DangerSigns   DangerSigns   `json:"dangerSigns"`
	Urine         Urine         `json:"urine"`
	Lifestyle     Lifestyle     `json:"lifestyle"`
}

type Vitals struct {
	HeightCm    Measure `json:"heightCm"`
	WeightKg    Measure `json:"weightKg"`
	BPSystolic  Measure `json:"bpSystolic"`
	BPDiastolic Measure `json:"bpDiastolic"`
}

// BMI derives body-mass index from the recorded height and weight.
func (v Vitals) BMI() Measure {
	if bmi, ok := BMI(v.HeightCm, v.WeightKg); ok {
		return Value(bmi)
	}
	return Unset()
}

type Labs struct {
	Hemoglobin       Measure `json:"hemoglobin"`
	HIVReactive      bool    `json:"hivReactive"`
	SyphilisReactive bool    `json:"syphilisReactive"`
}

type History struct {
	PreviousCesarean         bool `json:"previousCesarean"`
	BadObstetricHistory      bool `json:"badObstetricHistory"`
	PreviousStillbirth       bool `json:"previousStillbirth"`
	PreviousPreterm          bool `json:"previousPreterm"`
	PreviousAbortion         bool `json:"previousAbortion"`
	RhNegative               bool `json:"rhNegative"`
	TwinPregnancy            bool `json:"twinPregnancy"`
	Malpresentation          bool `json:"malpresentation"`
	PlacentaPrevia           bool `json:"placentaPrevia"`
	ReducedFetalMovement     bool `json:"reducedFetalMovement"`
	UmbilicalDopplerAbnormal bool `json:"umbilicalDopplerAbnormal"`
	AmnioticFluidAbnormal    bool `json:"amnioticFluidAbnormal"`

	Gravida                Measure `json:"gravida"`
	StillbirthCount        Measure `json:"stillbirthCount"`
	AbortionCount          Measure `json:"abortionCount"`
	InterPregnancyInterval Measure `json:"interPregnancyIntervalMonths"`
}

type Comorbidities struct {
	ChronicHypertension    bool   `json:"chronicHypertension"`
	Diabetes               bool   `json:"diabetes"`
	ThyroidDisorder        bool   `json:"thyroidDisorder"`
	SystemicIllness        bool   `json:"systemicIllness"`
	SystemicIllnessDetails string `json:"systemicIllnessDetails,omitempty"`
}

type DangerSigns struct {
	Headache             bool `json:"headache"`
	VisualDisturbance    bool `json:"visualDisturbance"`
	EpigastricPain       bool `json:"epigastricPain"`
	DecreasedUrineOutput bool `json:"decreasedUrineOutput"`
	VaginalBleeding      bool `json:"vaginalBleeding"`
	Convulsions          bool `json:"convulsions"`
	HighFever            bool `json:"highFever"`
	SevereSwelling       bool `json:"severeSwelling"`
	AbdominalPain        bool `json:"abdominalPain"`
}

type Urine struct {
	Protein bool `json:"protein"`
	Sugar   bool `json:"sugar"`
}

type Lifestyle struct {
	Smoking    bool `json:"smoking"`
	TobaccoUse bool `json:"tobaccoUse"`
	AlcoholUse bool `json:"alcoholUse"`
}

// MissingFields lists the core fields a visit should carry that were not recorded.
// Missing data only ever under-classifies, so callers surface this to the user.
func MissingFields(o ClinicalObservation) []string {
	missing := []string{}
	if !o.GestationalWeeks.IsSet() {
		missing = append(missing, FieldGestationalWeeks)
	}
	if !o.Vitals.BPSystolic.IsSet() {
		missing = append(missing, FieldBPSystolic)
	}
	if !o.Vitals.BPDiastolic.IsSet() {
		missing = append(missing, FieldBPDiastolic)
	}
	if !o.Labs.Hemoglobin.IsSet() {
		missing = append(missing, FieldHemoglobin)
	}
	return missing
}
