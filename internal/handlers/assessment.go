package handlers

import (
	"github.com/gin-gonic/gin"

	"neosure-anc-server/internal/risk"
	"neosure-anc-server/internal/utils"
)

// AssessmentHandler runs the engine for live form feedback. Nothing is stored.
type AssessmentHandler struct {
	Engine *risk.Engine
}

func NewAssessmentHandler(engine *risk.Engine) *AssessmentHandler {
	return &AssessmentHandler{Engine: engine}
}

// AssessRequest is a partially or fully filled form. Form selects the
// registration toggles instead of the full visit form.
type AssessRequest struct {
	Form   string         `json:"form" binding:"omitempty,oneof=visit registration"`
	Fields map[string]any `json:"fields" binding:"required"`
}

type AssessResponse struct {
	Result           risk.Result `json:"result"`
	IncompleteFields []string    `json:"incompleteFields"`
}

func (r AssessRequest) observation() risk.ClinicalObservation {
	if r.Form == "registration" {
		return risk.NormalizeRegistration(r.Fields)
	}
	return risk.Normalize(r.Fields)
}

// Assess classifies the form as it stands.
func (h *AssessmentHandler) Assess(c *gin.Context) {
	var req AssessRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	obs := req.observation()
	utils.Success(c, "Assessment complete", AssessResponse{
		Result:           h.Engine.Assess(obs),
		IncompleteFields: risk.MissingFields(obs),
	})
}

// BMIReading is a computed BMI value.
type BMIReading struct {
	Value float64 `json:"value"`
}

type BadgesResponse struct {
	BP  *risk.Badge `json:"bp"`
	Hb  *risk.Badge `json:"hb"`
	BMI *BMIReading `json:"bmi"`
}

// Badges returns per-field feedback. A badge is null until its inputs are recorded.
func (h *AssessmentHandler) Badges(c *gin.Context) {
	var req AssessRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	obs := req.observation()

	var resp BadgesResponse
	if b, ok := risk.BPBadge(obs.Vitals.BPSystolic, obs.Vitals.BPDiastolic); ok {
		resp.BP = &b
	}
	if b, ok := risk.HbBadge(obs.Labs.Hemoglobin); ok {
		resp.Hb = &b
	}
	if v, ok := risk.BMI(obs.Vitals.HeightCm, obs.Vitals.WeightKg); ok {
		resp.BMI = &BMIReading{Value: v}
	}
	utils.Success(c, "Badges computed", resp)
}
