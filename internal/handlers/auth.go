package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"neosure-anc-server/internal/config"
	"neosure-anc-server/internal/logger"
	"neosure-anc-server/internal/models"
	"neosure-anc-server/internal/utils"
)

const refreshCookie = "refresh_token"

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	DB  *gorm.DB
	Cfg *config.Config
	Log *logger.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config, log *logger.Logger) *AuthHandler {
	return &AuthHandler{DB: db, Cfg: cfg, Log: log.With("handler", "auth")}
}

// RegisterRequest is a self sign-up. Administrators are created through /users.
type RegisterRequest struct {
	FirstName   string `json:"firstName" binding:"required"`
	LastName    string `json:"lastName"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	Role        string `json:"role" binding:"required,oneof=anm doctor"`
	PhoneNumber string `json:"phoneNumber"`
	WorkerCode  string `json:"workerCode"`
	SubCentre   string `json:"subCentre"`
	District    string `json:"district"`
	Speciality  string `json:"speciality"`
}

// Register handles user registration.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
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

	h.Log.Info("user registered", "user_id", user.ID, "role", user.Role)
	utils.Created(c, "User registered successfully", user.Sanitize())
}

// LoginRequest represents the request body for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the response body for successful login.
type LoginResponse struct {
	AccessToken  string               `json:"accessToken"`
	RefreshToken string               `json:"refreshToken"`
	User         models.UserSanitized `json:"user"`
}

// Login handles user login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Unauthorized(c, "Invalid email or password")
			return
		}
		respondError(c, h.Log, err, "")
		return
	}
	if !user.CheckPassword(req.Password) {
		h.Log.Warn("login rejected", "user_id", user.ID)
		utils.Unauthorized(c, "Invalid email or password")
		return
	}

	access, refresh, ok := h.issueTokens(c, &user)
	if !ok {
		return
	}
	utils.Success(c, "Login successful", LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user.Sanitize(),
	})
}

// issueTokens signs a token pair, stores the refresh token and sets its cookie.
func (h *AuthHandler) issueTokens(c *gin.Context, user *models.User) (string, string, bool) {
	access, refresh, err := utils.GenerateTokens(user, h.Cfg)
	if err != nil {
		h.Log.Error("token signing failed", "user_id", user.ID, "error", err)
		utils.InternalServerError(c, "Failed to generate tokens")
		return "", "", false
	}
	stored := models.RefreshToken{
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: time.Now().Add(time.Duration(h.Cfg.JWTRefreshExpirationHours) * time.Hour),
	}
	if err := h.DB.Create(&stored).Error; err != nil {
		respondError(c, h.Log, err, "")
		return "", "", false
	}
	h.setRefreshCookie(c, refresh, h.Cfg.JWTRefreshExpirationHours*60*60)
	return access, refresh, true
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, value string, maxAge int) {
	c.SetCookie(refreshCookie, value, maxAge, "/", "", h.Cfg.Environment != "development", true)
}

// RefreshTokenRequest represents the request body for token refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RefreshTokenResponse represents the response body for successful token refresh.
type RefreshTokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken rotates a refresh token: the presented one is revoked and a new pair issued.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	presented, err := c.Cookie(refreshCookie)
	if err != nil || presented == "" {
		var req RefreshTokenRequest
		if !utils.BindAndValidate(c, &req) {
			return
		}
		presented = req.RefreshToken
	}

	claims, err := utils.ValidateToken(presented, h.Cfg.JWTRefreshSecret, utils.RefreshToken)
	if err != nil {
		utils.Unauthorized(c, "Invalid refresh token: "+err.Error())
		return
	}

	var stored models.RefreshToken
	err = h.DB.Where("token = ? AND user_id = ? AND is_revoked = ? AND expires_at > ?",
		presented, claims.UserID, false, time.Now()).First(&stored).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Unauthorized(c, "Refresh token not found, expired, or revoked")
			return
		}
		respondError(c, h.Log, err, "")
		return
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", claims.UserID).Error; err != nil {
		respondError(c, h.Log, err, "User not found")
		return
	}

	if err := h.DB.Model(&stored).Update("is_revoked", true).Error; err != nil {
		respondError(c, h.Log, err, "")
		return
	}

	access, refresh, ok := h.issueTokens(c, &user)
	if !ok {
		return
	}
	utils.Success(c, "Access token refreshed successfully", RefreshTokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
	})
}

// LogoutRequest represents the request body for user logout.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// Logout revokes the presented refresh token. Unknown tokens are not an error.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req LogoutRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	res := h.DB.Model(&models.RefreshToken{}).
		Where("token = ? AND is_revoked = ?", req.RefreshToken, false).
		Updates(map[string]interface{}{"is_revoked": true, "expires_at": time.Now()})
	if res.Error != nil {
		respondError(c, h.Log, res.Error, "")
		return
	}

	h.setRefreshCookie(c, "", -1)
	utils.Success(c, "Logout successful", gin.H{"revoked": res.RowsAffected > 0})
}

// GetProfile handles fetching the currently authenticated user's profile.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		respondError(c, h.Log, err, "User profile not found")
		return
	}
	utils.Success(c, "Profile fetched successfully", user.Sanitize())
}

// UpdateProfileRequest lists the fields a user may change on their own profile.
type UpdateProfileRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
	SubCentre   string `json:"subCentre"`
	District    string `json:"district"`
	Speciality  string `json:"speciality"`
}

// UpdateProfile handles updating the currently authenticated user's profile.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		respondError(c, h.Log, err, "User not found")
		return
	}

	setIfPresent(&user.FirstName, req.FirstName)
	setIfPresent(&user.LastName, req.LastName)
	setIfPresent(&user.PhoneNumber, req.PhoneNumber)
	setIfPresent(&user.SubCentre, req.SubCentre)
	setIfPresent(&user.District, req.District)
	setIfPresent(&user.Speciality, req.Speciality)

	if err := h.DB.Save(&user).Error; err != nil {
		respondError(c, h.Log, err, "")
		return
	}
	utils.Success(c, "Profile updated successfully", user.Sanitize())
}

func setIfPresent(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// emailTaken reports whether another user already holds email.
func emailTaken(db *gorm.DB, email, exceptID string) (bool, error) {
	q := db.Model(&models.User{}).Where("email = ?", email)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
