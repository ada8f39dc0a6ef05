package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"neosure-anc-server/internal/logger"
	"neosure-anc-server/internal/models"
	"neosure-anc-server/internal/realtime"
	"neosure-anc-server/internal/utils"
)

// ReferralHandler tracks physical referrals and the notes exchanged on them.
type ReferralHandler struct {
	DB           *gorm.DB
	Log          *logger.Logger
	Events       realtime.Publisher
	FacilityName string
	Now          func() time.Time
}

// NewReferralHandler creates a new ReferralHandler.
func NewReferralHandler(db *gorm.DB, log *logger.Logger, events realtime.Publisher, facility string) *ReferralHandler {
	return &ReferralHandler{
		DB:           db,
		Log:          log.With("handler", "referrals"),
		Events:       events,
		FacilityName: facility,
		Now:          time.Now,
	}
}

// CreateReferralRequest refers the patient of an assessed visit. Urgency
// defaults from the visit's risk level.
type CreateReferralRequest struct {
	VisitID      string `json:"visitId" binding:"required"`
	ToFacility   string `json:"toFacility" binding:"required,max=200"`
	FromFacility string `json:"fromFacility" binding:"max=200"`
	Urgency      string `json:"urgency" binding:"omitempty,oneof=STANDARD URGENT EMERGENCY"`
	Reason       string `json:"reason"`
	ETAMinutes   *int   `json:"etaMinutes" binding:"omitempty,gte=0"`
}

// CreateReferral opens a referral in INITIATED.
func (h *ReferralHandler) CreateReferral(c *gin.Context) {
	var req CreateReferralRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	var visit models.Visit
	if err := h.DB.First(&visit, "id = ?", req.VisitID).Error; err != nil {
		respondError(c, h.Log, err, "Visit not found")
		return
	}
	if _, ok := loadPatient(c, h.DB, h.Log, visit.PatientID); !ok {
		return
	}

	urgency := models.Urgency(req.Urgency)
	if urgency == "" {
		urgency = models.UrgencyForLevel(visit.RiskLevel)
	}
	from := req.FromFacility
	if from == "" {
		from = h.FacilityName
	}
	reason := req.Reason
	if reason == "" {
		reason = flagSummary(visit)
	}

	referral := models.Referral{
		PatientID:     visit.PatientID,
		VisitID:       &visit.ID,
		InitiatedByID: userID,
		FromFacility:  from,
		ToFacility:    req.ToFacility,
		Reason:        reason,
		RiskLevel:     visit.RiskLevel,
		Urgency:       urgency,
		Status:        models.ReferralInitiated,
		ETAMinutes:    req.ETAMinutes,
		InitiatedAt:   h.Now(),
	}
	if err := h.DB.Create(&referral).Error; err != nil {
		respondError(c, h.Log, err, "")
		return
	}

	h.Log.Info("referral initiated", "referral_id", referral.ID, "patient_id", referral.PatientID, "urgency", urgency)
	h.publish(c, &referral)
	utils.Created(c, "Referral initiated successfully", referral)
}

func flagSummary(v models.Visit) string {
	flags := v.Risk.Data().Flags
	if len(flags) == 0 {
		return ""
	}
	out := flags[0].Condition
	for _, f := range flags[1:] {
		out += ", " + f.Condition
	}
	return out
}

// GetReferrals lists referrals, newest first. ANMs see those they initiated.
func (h *ReferralHandler) GetReferrals(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}

	q := h.DB.Preload("Patient").Order("initiated_at DESC")
	if role == models.RoleANM {
		q = q.Where("initiated_by_id = ?", userID)
	}
	if s := c.Query("status"); s != "" {
		status := models.ReferralStatus(s)
		if !status.Valid() {
			utils.BadRequest(c, "Unknown referral status")
			return
		}
		q = q.Where("status = ?", status)
	}
	if c.Query("active") == "true" {
		q = q.Where("status <> ?", models.ReferralAdmitted)
	}

	var referrals []models.Referral
	if err := q.Find(&referrals).Error; err != nil {
		respondError(c, h.Log, err, "")
		return
	}
	utils.Success(c, "Referrals fetched successfully", referrals)
}

// GetReferralByID returns a referral with its patient and notes.
func (h *ReferralHandler) GetReferralByID(c *gin.Context) {
	referral, ok := h.load(c, c.Param("id"))
	if !ok {
		return
	}
	if err := h.DB.Where("referral_id = ?", referral.ID).Order("created_at").Find(&referral.Notes).Error; err != nil {
		respondError(c, h.Log, err, "")
		return
	}
	utils.Success(c, "Referral fetched successfully", referral)
}

// load fetches a referral, with its patient, that the caller may see.
func (h *ReferralHandler) load(c *gin.Context, id string) (*models.Referral, bool) {
	var referral models.Referral
	if err := h.DB.First(&referral, "id = ?", id).Error; err != nil {
		respondError(c, h.Log, err, "Referral not found")
		return nil, false
	}
	patient, ok := loadPatient(c, h.DB, h.Log, referral.PatientID)
	if !ok {
		return nil, false
	}
	referral.Patient = patient
	return &referral, true
}

// UpdateReferralStatusRequest moves a referral forward.
type UpdateReferralStatusRequest struct {
	Status     string `json:"status" binding:"required"`
	ETAMinutes *int   `json:"etaMinutes" binding:"omitempty,gte=0"`
}

// UpdateReferralStatus advances the lifecycle. Backward or repeated moves get 409.
func (h *ReferralHandler) UpdateReferralStatus(c *gin.Context) {
	var req UpdateReferralStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	referral, ok := h.load(c, c.Param("id"))
	if !ok {
		return
	}

	from := referral.Status
	if err := referral.Advance(models.ReferralStatus(req.Status), h.Now()); err != nil {
		respondError(c, h.Log, err, "")
		return
	}
	if req.ETAMinutes != nil {
		referral.ETAMinutes = req.ETAMinutes
	}
	if err := h.DB.Omit(clause.Associations).Save(referral).Error; err != nil {
		respondError(c, h.Log, err, "")
		return
	}

	h.Log.Info("referral status changed", "referral_id", referral.ID, "from", from, "to", referral.Status)
	h.publish(c, referral)
	utils.Success(c, "Referral status updated successfully", referral)
}

func (h *ReferralHandler) publish(c *gin.Context, r *models.Referral) {
	notify(c, h.Log, h.Events, realtime.EventReferralUpdate, r.ID, r,
		realtime.TopicReferrals, realtime.ReferralTopic(r.ID))
}

// AddNoteRequest is a consultation note on a referral.
type AddNoteRequest struct {
	Content string `json:"content" binding:"required,max=4000"`
}

// AddNote stores a note and pushes it to everyone following the referral.
func (h *ReferralHandler) AddNote(c *gin.Context) {
	var req AddNoteRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}
	referral, ok := h.load(c, c.Param("id"))
	if !ok {
		return
	}

	var author models.User
	if err := h.DB.First(&author, "id = ?", userID).Error; err != nil {
		respondError(c, h.Log, err, "User not found")
		return
	}

	note := models.ConsultationNote{
		ReferralID: referral.ID,
		AuthorID:   userID,
		AuthorName: author.FullName(),
		AuthorRole: role,
		Content:    req.Content,
	}
	if err := h.DB.Create(&note).Error; err != nil {
		respondError(c, h.Log, err, "")
		return
	}

	notify(c, h.Log, h.Events, realtime.EventReceiveNote, referral.ID, note, realtime.ReferralTopic(referral.ID))
	utils.Created(c, "Note added successfully", note)
}

// GetNotes lists a referral's notes in the order they were written.
func (h *ReferralHandler) GetNotes(c *gin.Context) {
	referral, ok := h.load(c, c.Param("id"))
	if !ok {
		return
	}
	var notes []models.ConsultationNote
	if err := h.DB.Where("referral_id = ?", referral.ID).Order("created_at").Find(&notes).Error; err != nil {
		respondError(c, h.Log, err, "")
		return
	}
	utils.Success(c, "Notes fetched successfully", notes)
}
