package models

import (
	"time"

	"gorm.io/datatypes"

	"neosure-anc-server/internal/risk"
)

// Patient is a registered pregnancy under a field worker's care.
type Patient struct {
	BaseModel
	WorkerID         string     `gorm:"size:36;index;not null" json:"workerId"`
	FullName         string     `gorm:"size:200;not null" json:"fullName"`
	RCHID            string     `gorm:"column:rch_id;size:64;uniqueIndex;not null" json:"rchId"`
	Age              int        `json:"age"`
	PhoneNumber      string     `gorm:"size:20" json:"phoneNumber,omitempty"`
	Village          string     `gorm:"size:120" json:"village,omitempty"`
	District         string     `gorm:"size:120;index" json:"district,omitempty"`
	LMPDate          *time.Time `json:"lmpDate,omitempty"`
	GestationalWeeks int        `json:"gestationalWeeks"`
	GestationalDays  int        `json:"gestationalDays"`
	BMI              *float64   `json:"bmi,omitempty"`
	RiskLevel        risk.Level `gorm:"size:10;index;default:'GREEN'" json:"riskLevel"`
	LastVisitDate    *time.Time `json:"lastVisitDate,omitempty"`

	// Baseline is the observation captured at registration.
	Baseline     datatypes.JSONType[risk.ClinicalObservation] `json:"baseline"`
	BaselineRisk datatypes.JSONType[risk.Result]              `json:"baselineRisk"`

	// Relations
	Worker User    `gorm:"foreignKey:WorkerID" json:"-"`
	Visits []Visit `gorm:"foreignKey:PatientID" json:"visits,omitempty"`
}
