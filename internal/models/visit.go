package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"neosure-anc-server/internal/risk"
)

// Visit is one assessed ANC encounter. The raw form, the normalized
// observation and the engine result are stored together and never rewritten.
type Visit struct {
	BaseModel
	PatientID        string     `gorm:"size:36;index;not null" json:"patientId"`
	RecordedByID     string     `gorm:"size:36;index" json:"recordedById"`
	VisitDate        time.Time  `gorm:"index" json:"visitDate"`
	GestationalWeeks *float64   `json:"gestationalWeeks,omitempty"`
	RiskLevel        risk.Level `gorm:"size:10;index" json:"riskLevel"`
	Confidence       int        `json:"confidence"`
	Notes            string     `gorm:"type:text" json:"notes,omitempty"`

	RawInput    datatypes.JSONMap                            `json:"rawInput"`
	Observation datatypes.JSONType[risk.ClinicalObservation] `json:"observation"`
	Risk        datatypes.JSONType[risk.Result]              `json:"risk"`

	// Relations
	Patient    Patient `gorm:"foreignKey:PatientID" json:"-"`
	RecordedBy User    `gorm:"foreignKey:RecordedByID" json:"-"`
}

// NewVisit packs an assessment into a visit row.
func NewVisit(patientID, recordedBy string, at time.Time, raw map[string]any, obs risk.ClinicalObservation, result risk.Result) *Visit {
	v := &Visit{
		PatientID:    patientID,
		RecordedByID: recordedBy,
		VisitDate:    at,
		RiskLevel:    result.Level,
		Confidence:   result.Confidence,
		RawInput:     datatypes.JSONMap(raw),
		Observation:  datatypes.NewJSONType(obs),
		Risk:         datatypes.NewJSONType(result),
	}
	if ga, ok := obs.GestationalWeeks.Get(); ok {
		v.GestationalWeeks = &ga
	}
	return v
}

// BeforeUpdate keeps the visit history append-only.
func (v *Visit) BeforeUpdate(tx *gorm.DB) error {
	return ErrVisitImmutable
}

// BeforeDelete keeps the visit history append-only.
func (v *Visit) BeforeDelete(tx *gorm.DB) error {
	return ErrVisitImmutable
}
