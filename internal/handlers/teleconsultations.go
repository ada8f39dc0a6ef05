package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"neosure-anc-server/internal/logger"
	"neosure-anc-server/internal/models"
	"neosure-anc-server/internal/realtime"
	"neosure-anc-server/internal/utils"
)

// TeleConsultationHandler handles specialist escalation requests.
type TeleConsultationHandler struct {
	DB     *gorm.DB
	Log    *logger.Logger
	Events realtime.Publisher
	Now    func() time.Time
}

// NewTeleConsultationHandler creates a new TeleConsultationHandler.
func NewTeleConsultationHandler(db *gorm.DB, log *logger.Logger, events realtime.Publisher) *TeleConsultationHandler {
	return &TeleConsultationHandler{DB: db, Log: log.With("handler", "teleconsultations"), Events: events, Now: time.Now}
}

// CreateTeleConsultationRequest asks a specialist to review a patient.
type CreateTeleConsultationRequest struct {
	PatientID    string     `json:"patientId" binding:"required"`
	VisitID      string     `json:"visitId"`
	SpecialistID string     `json:"specialistId"`
	Urgency      string     `json:"urgency" binding:"omitempty,oneof=STANDARD URGENT EMERGENCY"`
	Reason       string     `json:"reason" binding:"required"`
	ScheduledAt  *time.Time `json:"scheduledAt"`
}

// CreateTeleConsultation opens a request. Without an explicit urgency it
// follows the visit's level, or the patient's current level.
func (h *TeleConsultationHandler) CreateTeleConsultation(c *gin.Context) {
	var req CreateTeleConsultationRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	patient, ok := loadPatient(c, h.DB, h.Log, req.PatientID)
	if !ok {
		return
	}

	level := patient.RiskLevel
	consult := models.TeleConsultation{
		PatientID:     patient.ID,
		RequestedByID: userID,
		Status:        models.ConsultationRequested,
		Reason:        req.Reason,
		ScheduledAt:   req.ScheduledAt,
		Medications:   datatypes.NewJSONType([]models.Medication{}),
	}
	if req.VisitID != "" {
		var visit models.Visit
		if err := h.DB.Where("id = ? AND patient_id = ?", req.VisitID, patient.ID).First(&visit).Error; err != nil {
			respondError(c, h.Log, err, "Visit not found for this patient")
			return
		}
		consult.VisitID = &visit.ID
		level = visit.RiskLevel
	}
	if req.SpecialistID != "" {
		var n int64
		if err := h.DB.Model(&models.User{}).Where("id = ? AND role = ?", req.SpecialistID, models.RoleDoctor).Count(&n).Error; err != nil {
			respondError(c, h.Log, err, "")
			return
		}
		if n == 0 {
			utils.NotFound(c, "Specialist not found")
			return
		}
		consult.SpecialistID = &req.SpecialistID
	}
	consult.Urgency = models.Urgency(req.Urgency)
	if consult.Urgency == "" {
		consult.Urgency = models.UrgencyForLevel(level)
	}

	if err := h.DB.Create(&consult).Error; err != nil {
		respondError(c, h.Log, err, "")
		return
	}
	h.Log.Info("teleconsultation requested", "consultation_id", consult.ID, "patient_id", patient.ID, "urgency", consult.Urgency)
	h.publish(c, &consult)
	utils.Created(c, "Tele-consultation requested successfully", consult)
}

// GetTeleConsultations lists by role: an ANM sees their requests; a doctor
// sees those assigned to them plus the unassigned queue.
func (h *TeleConsultationHandler) GetTeleConsultations(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}

	q := h.DB.Order("created_at DESC")
	switch role {
	case models.RoleANM:
		q = q.Where("requested_by_id = ?", userID)
	case models.RoleDoctor:
		q = q.Where("(specialist_id = ? OR specialist_id IS NULL)", userID)
	}
	if s := c.Query("status"); s != "" {
		status := models.ConsultationStatus(s)
		if !status.Valid() {
			utils.BadRequest(c, "Unknown consultation status")
			return
		}
		q = q.Where("status = ?", status)
	}

	var consults []models.TeleConsultation
	if err := q.Find(&consults).Error; err != nil {
		respondError(c, h.Log, err, "")
		return
	}
	utils.Success(c, "Tele-consultations fetched successfully", consults)
}

// load fetches a consultation the caller takes part in.
func (h *TeleConsultationHandler) load(c *gin.Context) (*models.TeleConsultation, string, models.Role, bool) {
	userID, role, ok := currentUser(c)
	if !ok {
		return nil, "", "", false
	}
	var consult models.TeleConsultation
	if err := h.DB.First(&consult, "id = ?", c.Param("id")).Error; err != nil {
		respondError(c, h.Log, err, "Tele-consultation not found")
		return nil, "", "", false
	}
	allowed := role == models.RoleAdmin ||
		(role == models.RoleANM && consult.RequestedByID == userID) ||
		(role == models.RoleDoctor && (consult.SpecialistID == nil || *consult.SpecialistID == userID))
	if !allowed {
		utils.Forbidden(c, "You are not part of this tele-consultation")
		return nil, "", "", false
	}
	return &consult, userID, role, true
}

// UpdateConsultationStatusRequest changes the consultation status.
type UpdateConsultationStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateTeleConsultationStatus applies a lifecycle move. Only specialists
// accept or complete; the requesting ANM may cancel.
func (h *TeleConsultationHandler) UpdateTeleConsultationStatus(c *gin.Context) {
	var req UpdateConsultationStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	consult, userID, role, ok := h.load(c)
	if !ok {
		return
	}

	status := models.ConsultationStatus(req.Status)
	if role == models.RoleANM && status != models.ConsultationCancelled {
		utils.Forbidden(c, "Health workers can only cancel a tele-consultation")
		return
	}
	if err := consult.Transition(status, h.Now()); err != nil {
		respondError(c, h.Log, err, "")
		return
	}
	if role == models.RoleDoctor && consult.SpecialistID == nil {
		consult.SpecialistID = &userID
	}
	if err := h.DB.Omit(clause.Associations).Save(consult).Error; err != nil {
		respondError(c, h.Log, err, "")
		return
	}

	h.Log.Info("teleconsultation status changed", "consultation_id", consult.ID, "status", consult.Status)
	h.publish(c, consult)
	utils.Success(c, "Tele-consultation updated successfully", consult)
}

// AdviceRequest is the specialist's recommendation.
type AdviceRequest struct {
	Advice      string              `json:"advice" binding:"required"`
	Medications []models.Medication `json:"medications" binding:"dive"`
}

// SubmitAdvice records the specialist's advice and completes the consultation.
// A still-requested consultation is accepted first.
func (h *TeleConsultationHandler) SubmitAdvice(c *gin.Context) {
	var req AdviceRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	consult, userID, _, ok := h.load(c)
	if !ok {
		return
	}

	now := h.Now()
	if consult.Status == models.ConsultationRequested {
		if err := consult.Transition(models.ConsultationAccepted, now); err != nil {
			respondError(c, h.Log, err, "")
			return
		}
	}
	if err := consult.Transition(models.ConsultationCompleted, now); err != nil {
		respondError(c, h.Log, err, "")
		return
	}
	meds := req.Medications
	if meds == nil {
		meds = []models.Medication{}
	}
	consult.SpecialistID = &userID
	consult.SpecialistAdvice = req.Advice
	consult.Medications = datatypes.NewJSONType(meds)

	if err := h.DB.Omit(clause.Associations).Save(consult).Error; err != nil {
		respondError(c, h.Log, err, "")
		return
	}

	h.Log.Info("teleconsultation completed", "consultation_id", consult.ID, "patient_id", consult.PatientID, "medications", len(meds))
	h.publish(c, consult)
	utils.Success(c, "Advice submitted successfully", consult)
}

func (h *TeleConsultationHandler) publish(c *gin.Context, tc *models.TeleConsultation) {
	notify(c, h.Log, h.Events, realtime.EventTeleconsultationUpdate, tc.ID, tc, realtime.PatientTopic(tc.PatientID))
}
