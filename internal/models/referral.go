package models

import (
	"time"

	"neosure-anc-server/internal/risk"
)

// ReferralStatus is a step in the patient transport lifecycle.
type ReferralStatus string

const (
	ReferralInitiated  ReferralStatus = "INITIATED"
	ReferralDispatched ReferralStatus = "DISPATCHED"
	ReferralInTransit  ReferralStatus = "IN_TRANSIT"
	ReferralArrived    ReferralStatus = "ARRIVED"
	ReferralAdmitted   ReferralStatus = "ADMITTED"
)

var referralOrder = map[ReferralStatus]int{
	ReferralInitiated:  0,
	ReferralDispatched: 1,
	ReferralInTransit:  2,
	ReferralArrived:    3,
	ReferralAdmitted:   4,
}

// Valid reports whether s is one of the lifecycle statuses.
func (s ReferralStatus) Valid() bool {
	_, ok := referralOrder[s]
	return ok
}

// Urgency of a referral or tele-consultation.
type Urgency string

const (
	UrgencyStandard  Urgency = "STANDARD"
	UrgencyUrgent    Urgency = "URGENT"
	UrgencyEmergency Urgency = "EMERGENCY"
)

// Valid reports whether u is a known urgency.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyStandard, UrgencyUrgent, UrgencyEmergency:
		return true
	}
	return false
}

// UrgencyForLevel maps an assessed risk level to a default urgency.
func UrgencyForLevel(level risk.Level) Urgency {
	switch level {
	case risk.LevelRed:
		return UrgencyEmergency
	case risk.LevelAmber:
		return UrgencyUrgent
	default:
		return UrgencyStandard
	}
}

// Referral moves a patient from the sub-centre to a higher facility.
type Referral struct {
	BaseModel
	PatientID     string         `gorm:"size:36;index;not null" json:"patientId"`
	VisitID       *string        `gorm:"size:36;index" json:"visitId,omitempty"`
	InitiatedByID string         `gorm:"size:36;index" json:"initiatedById"`
	FromFacility  string         `gorm:"size:200" json:"fromFacility"`
	ToFacility    string         `gorm:"size:200;not null" json:"toFacility"`
	Reason        string         `gorm:"type:text" json:"reason,omitempty"`
	RiskLevel     risk.Level     `gorm:"size:10" json:"riskLevel"`
	Urgency       Urgency        `gorm:"size:20;default:'STANDARD'" json:"urgency"`
	Status        ReferralStatus `gorm:"size:20;index;default:'INITIATED'" json:"status"`
	ETAMinutes    *int           `json:"etaMinutes,omitempty"`
	InitiatedAt   time.Time      `json:"initiatedAt"`
	DispatchedAt  *time.Time     `json:"dispatchedAt,omitempty"`
	ArrivedAt     *time.Time     `json:"arrivedAt,omitempty"`
	AdmittedAt    *time.Time     `json:"admittedAt,omitempty"`

	// Relations
	Patient     *Patient           `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	InitiatedBy User               `gorm:"foreignKey:InitiatedByID" json:"-"`
	Notes       []ConsultationNote `gorm:"foreignKey:ReferralID" json:"notes,omitempty"`
}

// Active reports whether the patient has not yet been admitted.
func (r *Referral) Active() bool {
	return r.Status != ReferralAdmitted
}

// Advance moves the referral forward to status, stamping the matching time.
// Steps may be skipped but never reversed or repeated.
func (r *Referral) Advance(status ReferralStatus, at time.Time) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	if referralOrder[status] <= referralOrder[r.Status] {
		return ErrInvalidTransition
	}
	r.Status = status
	switch status {
	case ReferralDispatched:
		r.DispatchedAt = &at
	case ReferralArrived:
		r.ArrivedAt = &at
	case ReferralAdmitted:
		r.AdmittedAt = &at
	}
	return nil
}
