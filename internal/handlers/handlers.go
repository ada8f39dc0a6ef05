package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"neosure-anc-server/internal/logger"
	"neosure-anc-server/internal/middleware"
	"neosure-anc-server/internal/models"
	"neosure-anc-server/internal/realtime"
	"neosure-anc-server/internal/utils"
)

const publishTimeout = 3 * time.Second

// respondError maps domain and storage errors onto the response envelope.
func respondError(c *gin.Context, log *logger.Logger, err error, notFound string) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.NotFound(c, notFound)
	case errors.Is(err, models.ErrInvalidStatus):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, models.ErrInvalidTransition), errors.Is(err, models.ErrVisitImmutable):
		utils.Conflict(c, err.Error())
	default:
		log.Error("request failed", "path", c.FullPath(), "error", err)
		_ = c.Error(err)
		utils.InternalServerError(c, "Database error")
	}
}

// currentUser reads the authenticated caller. It writes a 401 when missing.
func currentUser(c *gin.Context) (string, models.Role, bool) {
	id, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return "", "", false
	}
	role, _ := middleware.GetUserRoleFromContext(c)
	return id, role, true
}

// notify publishes without failing the request; delivery is best effort.
func notify(c *gin.Context, log *logger.Logger, events realtime.Publisher, eventType, resourceID string, payload any, topics ...string) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), publishTimeout)
	defer cancel()
	if err := realtime.Notify(ctx, events, eventType, resourceID, payload, topics...); err != nil {
		log.Warn("event publish failed", "type", eventType, "resource_id", resourceID, "error", err)
	}
}

// scopePatients limits an ANM to the patients they registered.
func scopePatients(db *gorm.DB, userID string, role models.Role) *gorm.DB {
	if role == models.RoleANM {
		return db.Where("patients.worker_id = ?", userID)
	}
	return db
}

// loadPatient fetches a patient the caller may see. It writes the error response on failure.
func loadPatient(c *gin.Context, db *gorm.DB, log *logger.Logger, id string) (*models.Patient, bool) {
	userID, role, ok := currentUser(c)
	if !ok {
		return nil, false
	}
	var patient models.Patient
	if err := db.First(&patient, "id = ?", id).Error; err != nil {
		respondError(c, log, err, "Patient not found")
		return nil, false
	}
	if role == models.RoleANM && patient.WorkerID != userID {
		utils.Forbidden(c, "Patient is registered to another health worker")
		return nil, false
	}
	return &patient, true
}

// parseDate accepts YYYY-MM-DD or RFC 3339.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
