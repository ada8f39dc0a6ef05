package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"neosure-anc-server/internal/logger"
	"neosure-anc-server/internal/models"
	"neosure-anc-server/internal/utils"
)

const readyTimeout = 2 * time.Second

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	DB  *gorm.DB
	Log *logger.Logger
}

func NewHealthHandler(db *gorm.DB, log *logger.Logger) *HealthHandler {
	return &HealthHandler{DB: db, Log: log.With("handler", "health")}
}

// Live reports the process is up.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

// Ready pings the database.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()
	if err := models.Ping(ctx, h.DB); err != nil {
		h.Log.Warn("readiness check failed", "error", err)
		utils.ServiceUnavailable(c, "database unavailable")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "READY"})
}
