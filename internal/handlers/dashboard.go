package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"neosure-anc-server/internal/logger"
	"neosure-anc-server/internal/models"
	"neosure-anc-server/internal/risk"
	"neosure-anc-server/internal/utils"
)

// DashboardHandler serves aggregate counts.
type DashboardHandler struct {
	DB  *gorm.DB
	Log *logger.Logger
}

func NewDashboardHandler(db *gorm.DB, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{DB: db, Log: log.With("handler", "dashboard")}
}

// Summary holds the dashboard counters. Patient counts are scoped to the
// caller for ANMs; staff counts are always facility-wide.
type Summary struct {
	TotalPatients   int64 `json:"totalPatients"`
	RedRisk         int64 `json:"redRisk"`
	AmberRisk       int64 `json:"amberRisk"`
	GreenRisk       int64 `json:"greenRisk"`
	ActiveReferrals int64 `json:"activeReferrals"`
	TotalWorkers    int64 `json:"totalWorkers"`
	TotalDistricts  int64 `json:"totalDistricts"`
}

// GetSummary returns the dashboard counters.
func (h *DashboardHandler) GetSummary(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}

	summary, err := h.summary(userID, role)
	if err != nil {
		respondError(c, h.Log, err, "")
		return
	}
	utils.Success(c, "Dashboard summary fetched successfully", summary)
}

func (h *DashboardHandler) summary(userID string, role models.Role) (Summary, error) {
	var s Summary

	type levelCount struct {
		RiskLevel risk.Level
		Total     int64
	}
	var levels []levelCount
	err := scopePatients(h.DB.Model(&models.Patient{}), userID, role).
		Select("risk_level, COUNT(*) AS total").
		Group("risk_level").
		Scan(&levels).Error
	if err != nil {
		return s, err
	}
	for _, l := range levels {
		s.TotalPatients += l.Total
		switch l.RiskLevel {
		case risk.LevelRed:
			s.RedRisk = l.Total
		case risk.LevelAmber:
			s.AmberRisk = l.Total
		default:
			s.GreenRisk += l.Total
		}
	}

	referrals := h.DB.Model(&models.Referral{}).Where("status <> ?", models.ReferralAdmitted)
	if role == models.RoleANM {
		referrals = referrals.Where("initiated_by_id = ?", userID)
	}
	if err := referrals.Count(&s.ActiveReferrals).Error; err != nil {
		return s, err
	}

	workers := h.DB.Model(&models.User{}).Where("role = ?", models.RoleANM)
	if err := workers.Count(&s.TotalWorkers).Error; err != nil {
		return s, err
	}
	err = h.DB.Model(&models.User{}).
		Where("role = ? AND district <> ''", models.RoleANM).
		Distinct("district").
		Count(&s.TotalDistricts).Error
	return s, err
}
