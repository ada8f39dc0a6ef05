package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"neosure-anc-server/internal/logger"
	"neosure-anc-server/internal/models"
	"neosure-anc-server/internal/realtime"
	"neosure-anc-server/internal/risk"
	"neosure-anc-server/internal/utils"
)

// VisitHandler records and reads ANC visits.
type VisitHandler struct {
	DB     *gorm.DB
	Log    *logger.Logger
	Engine *risk.Engine
	Events realtime.Publisher
	Now    func() time.Time
}

// NewVisitHandler creates a new VisitHandler.
func NewVisitHandler(db *gorm.DB, log *logger.Logger, engine *risk.Engine, events realtime.Publisher) *VisitHandler {
	return &VisitHandler{DB: db, Log: log.With("handler", "visits"), Engine: engine, Events: events, Now: time.Now}
}

// CreateVisitRequest carries the raw ANC form exactly as the client collected it.
type CreateVisitRequest struct {
	PatientID string         `json:"patientId" binding:"required"`
	VisitDate string         `json:"visitDate"`
	Fields    map[string]any `json:"fields" binding:"required"`
	Notes     string         `json:"notes"`
}

// VisitAssessment is the response for a recorded visit.
type VisitAssessment struct {
	Visit            *models.Visit `json:"visit"`
	IncompleteFields []string      `json:"incompleteFields"`
}

type visitAssessedPayload struct {
	VisitID    string      `json:"visitId"`
	PatientID  string      `json:"patientId"`
	Level      risk.Level  `json:"level"`
	Confidence int         `json:"confidence"`
	Flags      []risk.Flag `json:"flags"`
}

// CreateVisit normalizes and assesses the form, then stores the visit and
// moves the patient's current risk level in one transaction.
func (h *VisitHandler) CreateVisit(c *gin.Context) {
	var req CreateVisitRequest
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

	visitDate := h.Now()
	if req.VisitDate != "" {
		d, err := parseDate(req.VisitDate)
		if err != nil {
			utils.BadRequest(c, "visitDate must be YYYY-MM-DD or RFC 3339")
			return
		}
		visitDate = d
	}

	obs := risk.Normalize(req.Fields)
	obs.PatientID = patient.ID
	obs.VisitDate = visitDate.Format("2006-01-02")
	result := h.Engine.Assess(obs)

	visit := models.NewVisit(patient.ID, userID, visitDate, req.Fields, obs, result)
	visit.Notes = req.Notes

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(visit).Error; err != nil {
			return err
		}
		updates := map[string]interface{}{
			"risk_level":      result.Level,
			"last_visit_date": visitDate,
		}
		if ga, ok := obs.GestationalWeeks.Get(); ok {
			updates["gestational_weeks"] = int(ga)
		}
		return tx.Model(&models.Patient{}).Where("id = ?", patient.ID).Updates(updates).Error
	})
	if err != nil {
		respondError(c, h.Log, err, "")
		return
	}

	if result.Level == risk.LevelRed {
		h.Log.Warn("RED risk classification", "patient_id", patient.ID, "visit_id", visit.ID, "flags", len(result.Flags))
	} else {
		h.Log.Info("visit assessed", "patient_id", patient.ID, "visit_id", visit.ID, "level", result.Level)
	}
	notify(c, h.Log, h.Events, realtime.EventVisitAssessed, visit.ID, visitAssessedPayload{
		VisitID:    visit.ID,
		PatientID:  patient.ID,
		Level:      result.Level,
		Confidence: result.Confidence,
		Flags:      result.Flags,
	}, realtime.PatientTopic(patient.ID))

	utils.Created(c, "Visit recorded successfully", VisitAssessment{
		Visit:            visit,
		IncompleteFields: risk.MissingFields(obs),
	})
}

// GetVisitByID returns one stored visit.
func (h *VisitHandler) GetVisitByID(c *gin.Context) {
	var visit models.Visit
	if err := h.DB.First(&visit, "id = ?", c.Param("id")).Error; err != nil {
		respondError(c, h.Log, err, "Visit not found")
		return
	}
	if _, ok := loadPatient(c, h.DB, h.Log, visit.PatientID); !ok {
		return
	}
	utils.Success(c, "Visit fetched successfully", visit)
}
