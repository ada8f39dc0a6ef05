package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"neosure-anc-server/internal/export"
	"neosure-anc-server/internal/logger"
	"neosure-anc-server/internal/models"
	"neosure-anc-server/internal/risk"
	"neosure-anc-server/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// riskOrder sorts RED patients first, then AMBER.
const riskOrder = "CASE risk_level WHEN 'RED' THEN 0 WHEN 'AMBER' THEN 1 ELSE 2 END"

// PatientHandler handles registration and patient lookup.
type PatientHandler struct {
	DB     *gorm.DB
	Log    *logger.Logger
	Engine *risk.Engine
	Now    func() time.Time
}

// NewPatientHandler creates a new PatientHandler.
func NewPatientHandler(db *gorm.DB, log *logger.Logger, engine *risk.Engine) *PatientHandler {
	return &PatientHandler{DB: db, Log: log.With("handler", "patients"), Engine: engine, Now: time.Now}
}

// CreatePatientRequest is the simplified intake form. Fields carries the
// registration toggles and baseline vitals (baselineBP, heightCm, ...).
type CreatePatientRequest struct {
	FullName    string         `json:"fullName" binding:"required,max=200"`
	RCHID       string         `json:"rchId" binding:"required,max=64"`
	Age         int            `json:"age" binding:"omitempty,gte=10,lte=60"`
	PhoneNumber string         `json:"phoneNumber" binding:"omitempty,max=20"`
	Village     string         `json:"village"`
	District    string         `json:"district"`
	LMPDate     string         `json:"lmpDate"`
	WorkerID    string         `json:"workerId" binding:"omitempty,uuid"`
	Fields      map[string]any `json:"fields"`
}

// PatientRegistration is the response for a new patient.
type PatientRegistration struct {
	Patient          models.Patient `json:"patient"`
	IncompleteFields []string       `json:"incompleteFields"`
}

// CreatePatient registers a patient and assesses the baseline observation.
func (h *PatientHandler) CreatePatient(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}
	var req CreatePatientRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	workerID := userID
	if role == models.RoleAdmin && req.WorkerID != "" {
		var n int64
		if err := h.DB.Model(&models.User{}).Where("id = ? AND role = ?", req.WorkerID, models.RoleANM).Count(&n).Error; err != nil {
			respondError(c, h.Log, err, "")
			return
		}
		if n == 0 {
			utils.BadRequest(c, "workerId is not a health worker")
			return
		}
		workerID = req.WorkerID
	}

	var existing int64
	if err := h.DB.Model(&models.Patient{}).Where("rch_id = ?", req.RCHID).Count(&existing).Error; err != nil {
		respondError(c, h.Log, err, "")
		return
	}
	if existing > 0 {
		utils.Conflict(c, "A patient with this RCH ID is already registered")
		return
	}

	obs := risk.NormalizeRegistration(req.Fields)
	patient := models.Patient{
		BaseModel:   models.BaseModel{ID: uuid.NewString()},
		WorkerID:    workerID,
		FullName:    req.FullName,
		RCHID:       req.RCHID,
		Age:         req.Age,
		PhoneNumber: req.PhoneNumber,
		Village:     req.Village,
		District:    req.District,
	}

	if req.LMPDate != "" {
		lmp, err := parseDate(req.LMPDate)
		if err != nil {
			utils.BadRequest(c, "lmpDate must be YYYY-MM-DD")
			return
		}
		weeks, days, ok := risk.GestationalAge(lmp, h.Now())
		if !ok {
			utils.BadRequest(c, "lmpDate cannot be in the future")
			return
		}
		patient.LMPDate = &lmp
		patient.GestationalWeeks = weeks
		patient.GestationalDays = days
		if !obs.GestationalWeeks.IsSet() {
			obs.GestationalWeeks = risk.Value(float64(weeks))
		}
	} else if ga, ok := obs.GestationalWeeks.Get(); ok {
		patient.GestationalWeeks = int(ga)
	}
	if bmi, ok := risk.BMI(obs.Vitals.HeightCm, obs.Vitals.WeightKg); ok {
		patient.BMI = &bmi
	}

	obs.PatientID = patient.ID
	result := h.Engine.Assess(obs)
	patient.Baseline = datatypes.NewJSONType(obs)
	patient.BaselineRisk = datatypes.NewJSONType(result)
	patient.RiskLevel = result.Level

	if err := h.DB.Create(&patient).Error; err != nil {
		respondError(c, h.Log, err, "")
		return
	}

	if result.Level == risk.LevelRed {
		h.Log.Warn("patient registered with RED baseline", "patient_id", patient.ID, "flags", len(result.Flags))
	}
	utils.Created(c, "Patient registered successfully", PatientRegistration{
		Patient:          patient,
		IncompleteFields: risk.MissingFields(obs),
	})
}

// GetPatients lists visible patients, RED first. Filters: ?risk=, ?q= (name or RCH ID).
func (h *PatientHandler) GetPatients(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}

	q := scopePatients(h.DB.Model(&models.Patient{}), userID, role)
	if r := c.Query("risk"); r != "" {
		level, ok := risk.ParseLevel(r)
		if !ok {
			utils.BadRequest(c, "risk must be RED, AMBER or GREEN")
			return
		}
		q = q.Where("risk_level = ?", level)
	}
	if term := c.Query("q"); term != "" {
		like := "%" + term + "%"
		q = q.Where("(full_name LIKE ? OR rch_id LIKE ?)", like, like)
	}

	var patients []models.Patient
	if err := q.Order(riskOrder).Order("updated_at DESC").Find(&patients).Error; err != nil {
		respondError(c, h.Log, err, "")
		return
	}
	utils.Success(c, "Patients fetched successfully", patients)
}

// GetPatientByID returns a patient with visits, newest first.
func (h *PatientHandler) GetPatientByID(c *gin.Context) {
	patient, ok := loadPatient(c, h.DB, h.Log, c.Param("id"))
	if !ok {
		return
	}
	visits, err := h.visitHistory(patient.ID)
	if err != nil {
		respondError(c, h.Log, err, "")
		return
	}
	patient.Visits = visits
	utils.Success(c, "Patient fetched successfully", patient)
}

// ExportVisits streams the visit history as an xlsx workbook.
func (h *PatientHandler) ExportVisits(c *gin.Context) {
	patient, ok := loadPatient(c, h.DB, h.Log, c.Param("id"))
	if !ok {
		return
	}
	visits, err := h.visitHistory(patient.ID)
	if err != nil {
		respondError(c, h.Log, err, "")
		return
	}
	data, err := export.VisitHistory(visits)
	if err != nil {
		h.Log.Error("visit export failed", "patient_id", patient.ID, "error", err)
		utils.InternalServerError(c, "Failed to build export")
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+export.FileName(*patient))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *PatientHandler) visitHistory(patientID string) ([]models.Visit, error) {
	var visits []models.Visit
	err := h.DB.Where("patient_id = ?", patientID).
		Order("visit_date DESC").Order("created_at DESC").
		Find(&visits).Error
	return visits, err
}
