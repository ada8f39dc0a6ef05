package models

import (
	"time"

	"gorm.io/datatypes"
)

// ConsultationStatus represents the status of a tele-consultation
type ConsultationStatus string

const (
	ConsultationRequested ConsultationStatus = "requested"
	ConsultationAccepted  ConsultationStatus = "accepted"
	ConsultationCompleted ConsultationStatus = "completed"
	ConsultationCancelled ConsultationStatus = "cancelled"
)

var consultationTransitions = map[ConsultationStatus][]ConsultationStatus{
	ConsultationRequested: {ConsultationAccepted, ConsultationCancelled},
	ConsultationAccepted:  {ConsultationCompleted, ConsultationCancelled},
}

// Valid reports whether s is a known consultation status.
func (s ConsultationStatus) Valid() bool {
	switch s {
	case ConsultationRequested, ConsultationAccepted, ConsultationCompleted, ConsultationCancelled:
		return true
	}
	return false
}

// Medication is one line of specialist advice.
type Medication struct {
	Name     string `json:"name" binding:"required"`
	Dosage   string `json:"dosage"`
	Type     string `json:"type"`
	Schedule string `json:"schedule"`
}

// TeleConsultation is a request from a field worker for specialist advice on a patient.
type TeleConsultation struct {
	BaseModel
	PatientID        string                           `gorm:"size:36;index;not null" json:"patientId"`
	VisitID          *string                          `gorm:"size:36;index" json:"visitId,omitempty"`
	RequestedByID    string                           `gorm:"size:36;index" json:"requestedById"`
	SpecialistID     *string                          `gorm:"size:36;index" json:"specialistId,omitempty"`
	Urgency          Urgency                          `gorm:"size:20;default:'STANDARD'" json:"urgency"`
	Status           ConsultationStatus               `gorm:"size:20;default:'requested'" json:"status"`
	Reason           string                           `gorm:"type:text" json:"reason"`
	SpecialistAdvice string                           `gorm:"type:text" json:"specialistAdvice,omitempty"`
	Medications      datatypes.JSONType[[]Medication] `json:"medications"`
	ScheduledAt      *time.Time                       `json:"scheduledAt,omitempty"`
	CompletedAt      *time.Time                       `json:"completedAt,omitempty"`

	// Relations
	Patient     Patient `gorm:"foreignKey:PatientID" json:"-"`
	RequestedBy User    `gorm:"foreignKey:RequestedByID" json:"-"`
}

// Transition moves the consultation to status. Completed and cancelled are terminal.
func (c *TeleConsultation) Transition(status ConsultationStatus, at time.Time) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	for _, next := range consultationTransitions[c.Status] {
		if next == status {
			c.Status = status
			if status == ConsultationCompleted {
				c.CompletedAt = &at
			}
			return nil
		}
	}
	return ErrInvalidTransition
}
