package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"neosure-anc-server/internal/logger"
	"neosure-anc-server/internal/models"
	"neosure-anc-server/internal/utils"
)

// UserHandler serves the staff directory and admin user management.
type UserHandler struct {
	DB  *gorm.DB
	Log *logger.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(db *gorm.DB, log *logger.Logger) *UserHandler {
	return &UserHandler{DB: db, Log: log.With("handler", "users")}
}

// CreateUserRequest represents the request body for creating a user by an admin.
type CreateUserRequest struct {
	FirstName   string `json:"firstName" binding:"required"`
	LastName    string `json:"lastName"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	Role        string `json:"role" binding:"required,oneof=admin anm doctor"`
	PhoneNumber string `json:"phoneNumber"`
	WorkerCode  string `json:"workerCode"`
	SubCentre   string `json:"subCentre"`
	District    string `json:"district"`
	Speciality  string `json:"speciality"`
}

// CreateUser handles creating a new user (admin).
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if taken, err := emailTaken(h.DB, req.Email, ""); err != nil {
		respondError(c, h.Log, err, "")
		return
	} else if taken {
		utils.Conflict(c, "User with this email already exists")
		return
	}

	user := models.User{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Role:        models.Role(req.Role),
		PhoneNumber: req.PhoneNumber,
		WorkerCode:  req.WorkerCode,
		SubCentre:   req.SubCentre,
		District:    req.District,
		Speciality:  req.Speciality,
	}
	if err := user.SetPassword(req.Password); err != nil {
		utils.InternalServerError(c, "Failed to hash password")
		return
	}
	if err := h.DB.Create(&user).Error; err != nil {
		respondError(c, h.Log, err, "")
		return
	}

	utils.Created(c, "User created successfully", user.Sanitize())
}

// GetUsers lists all users, optionally filtered by ?role=.
func (h *UserHandler) GetUsers(c *gin.Context) {
	q := h.DB.Order("created_at DESC")
	if role := c.Query("role"); role != "" {
		q = q.Where("role = ?", role)
	}

	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		respondError(c, h.Log, err, "")
		return
	}
	utils.Success(c, "Users fetched successfully", sanitizeAll(users))
}

// GetUserByID handles fetching a single user by ID (admin).
func (h *UserHandler) GetUserByID(c *gin.Context) {
	var user models.User
	if err := h.DB.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		respondError(c, h.Log, err, "User not found")
		return
	}
	utils.Success(c, "User fetched successfully", user.Sanitize())
}

// UpdateUserRequest represents the request body for updating a user by an admin.
type UpdateUserRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email" binding:"omitempty,email"`
	Role        string `json:"role" binding:"omitempty,oneof=admin anm doctor"`
	PhoneNumber string `json:"phoneNumber"`
	WorkerCode  string `json:"workerCode"`
	SubCentre   string `json:"subCentre"`
	District    string `json:"district"`
	Speciality  string `json:"speciality"`
}

// UpdateUser handles updating a user by ID (admin).
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req UpdateUserRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		respondError(c, h.Log, err, "User not found")
		return
	}

	if req.Email != "" && req.Email != user.Email {
		if taken, err := emailTaken(h.DB, req.Email, user.ID); err != nil {
			respondError(c, h.Log, err, "")
			return
		} else if taken {
			utils.Conflict(c, "New email is already in use")
			return
		}
		user.Email = req.Email
	}
	if req.Role != "" {
		user.Role = models.Role(req.Role)
	}
	setIfPresent(&user.FirstName, req.FirstName)
	setIfPresent(&user.LastName, req.LastName)
	setIfPresent(&user.PhoneNumber, req.PhoneNumber)
	setIfPresent(&user.WorkerCode, req.WorkerCode)
	setIfPresent(&user.SubCentre, req.SubCentre)
	setIfPresent(&user.District, req.District)
	setIfPresent(&user.Speciality, req.Speciality)

	if err := h.DB.Save(&user).Error; err != nil {
		respondError(c, h.Log, err, "")
		return
	}
	utils.Success(c, "User updated successfully", user.Sanitize())
}

// DeleteUser removes a user. Workers who still have registered patients cannot be deleted.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	var user models.User
	if err := h.DB.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		respondError(c, h.Log, err, "User not found")
		return
	}

	var patients int64
	if err := h.DB.Model(&models.Patient{}).Where("worker_id = ?", user.ID).Count(&patients).Error; err != nil {
		respondError(c, h.Log, err, "")
		return
	}
	if patients > 0 {
		utils.Conflict(c, "User still has registered patients")
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		respondError(c, h.Log, err, "")
		return
	}

	h.Log.Info("user deleted", "user_id", user.ID)
	utils.Success(c, "User deleted successfully", nil)
}

// GetDoctors lists specialists available for tele-consultation.
func (h *UserHandler) GetDoctors(c *gin.Context) {
	var doctors []models.User
	if err := h.DB.Where("role = ?", models.RoleDoctor).Order("first_name").Find(&doctors).Error; err != nil {
		respondError(c, h.Log, err, "")
		return
	}
	utils.Success(c, "Doctors fetched successfully", sanitizeAll(doctors))
}

// WorkerSummary is an ANM with the size of their caseload.
type WorkerSummary struct {
	models.UserSanitized
	PatientCount int64 `json:"patientCount"`
	RedCount     int64 `json:"redCount"`
}

// GetWorkers lists ANM workers with their patient counts, optionally filtered by ?district=.
func (h *UserHandler) GetWorkers(c *gin.Context) {
	q := h.DB.Where("role = ?", models.RoleANM).Order("first_name")
	if district := c.Query("district"); district != "" {
		q = q.Where("district = ?", district)
	}
	var workers []models.User
	if err := q.Find(&workers).Error; err != nil {
		respondError(c, h.Log, err, "")
		return
	}

	type countRow struct {
		WorkerID string
		Total    int64
		Red      int64
	}
	var rows []countRow
	err := h.DB.Model(&models.Patient{}).
		Select("worker_id, COUNT(*) AS total, SUM(CASE WHEN risk_level = ? THEN 1 ELSE 0 END) AS red", "RED").
		Group("worker_id").
		Scan(&rows).Error
	if err != nil {
		respondError(c, h.Log, err, "")
		return
	}
	counts := make(map[string]countRow, len(rows))
	for _, r := range rows {
		counts[r.WorkerID] = r
	}

	out := make([]WorkerSummary, len(workers))
	for i, w := range workers {
		out[i] = WorkerSummary{
			UserSanitized: w.Sanitize(),
			PatientCount:  counts[w.ID].Total,
			RedCount:      counts[w.ID].Red,
		}
	}
	utils.Success(c, "Workers fetched successfully", out)
}

func sanitizeAll(users []models.User) []models.UserSanitized {
	out := make([]models.UserSanitized, len(users))
	for i, u := range users {
		out[i] = u.Sanitize()
	}
	return out
}
