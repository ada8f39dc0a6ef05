package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"neosure-anc-server/internal/logger"
	"neosure-anc-server/internal/models"
	"neosure-anc-server/internal/realtime"
	"neosure-anc-server/internal/utils"
)

// RealtimeHandler upgrades authenticated requests to websocket subscriptions.
type RealtimeHandler struct {
	DB       *gorm.DB
	Hub      *realtime.Hub
	Log      *logger.Logger
	upgrader websocket.Upgrader
}

// NewRealtimeHandler accepts upgrades from allowedOrigin, or from any origin when it is "*".
func NewRealtimeHandler(db *gorm.DB, hub *realtime.Hub, log *logger.Logger, allowedOrigin string) *RealtimeHandler {
	return &RealtimeHandler{
		DB:  db,
		Hub: hub,
		Log: log.With("handler", "realtime"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowedOrigin == "*" || origin == allowedOrigin
			},
		},
	}
}

// Connect handles GET /ws?topics=a,b and serves the socket until it closes.
// Requesting a topic the caller may not follow is a 403; later subscribe
// messages for such topics are dropped.
func (h *RealtimeHandler) Connect(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}

	authorize := h.topicAuthorizer(userID, role)
	topics := splitTopics(c.Query("topics"))
	for _, topic := range topics {
		if !authorize(topic) {
			h.Log.Warn("websocket topic denied", "user_id", userID, "topic", topic)
			utils.Forbidden(c, "Not allowed to follow topic "+topic)
			return
		}
	}

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Log.Warn("websocket upgrade failed", "user_id", userID, "error", err)
		return
	}

	client := realtime.NewClient(ws, topics)
	client.Authorize = authorize
	h.Log.Debug("websocket connected", "user_id", userID, "client_id", client.ID, "topics", client.Topics)
	h.Hub.Serve(client)
	h.Log.Debug("websocket closed", "user_id", userID, "client_id", client.ID)
}

// topicAuthorizer applies the REST visibility rules to topics. ANMs follow
// only their own patients and the referrals of those patients; the
// facility-wide referral feed is for doctors and admins.
func (h *RealtimeHandler) topicAuthorizer(userID string, role models.Role) realtime.Authorizer {
	return func(topic string) bool {
		if topic == realtime.TopicReferrals {
			return role == models.RoleDoctor || role == models.RoleAdmin
		}
		if id, ok := realtime.ParsePatientTopic(topic); ok {
			return h.canSeePatient(userID, role, id)
		}
		if id, ok := realtime.ParseReferralTopic(topic); ok {
			var referral models.Referral
			if err := h.DB.Select("patient_id").First(&referral, "id = ?", id).Error; err != nil {
				return false
			}
			return h.canSeePatient(userID, role, referral.PatientID)
		}
		return false
	}
}

func (h *RealtimeHandler) canSeePatient(userID string, role models.Role, patientID string) bool {
	var n int64
	err := scopePatients(h.DB.Model(&models.Patient{}), userID, role).
		Where("patients.id = ?", patientID).
		Count(&n).Error
	if err != nil {
		h.Log.Error("topic authorization failed", "user_id", userID, "patient_id", patientID, "error", err)
		return false
	}
	return n > 0
}

func splitTopics(raw string) []string {
	var topics []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}
