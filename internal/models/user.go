package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role enum
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleANM    Role = "anm"    // field health worker
	RoleDoctor Role = "doctor" // tele-consultation specialist
)

// User is a staff account: an ANM worker, a specialist, or an administrator.
type User struct {
	BaseModel
	Email       string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password    string `gorm:"size:255;not null" json:"-"`
	FirstName   string `gorm:"size:100" json:"firstName"`
	LastName    string `gorm:"size:100" json:"lastName"`
	Role        Role   `gorm:"size:20;default:'anm'" json:"role"`
	PhoneNumber string `gorm:"size:20" json:"phoneNumber,omitempty"`
	WorkerCode  string `gorm:"size:64;index" json:"workerCode,omitempty"`
	SubCentre   string `gorm:"size:120" json:"subCentre,omitempty"`
	District    string `gorm:"size:120;index" json:"district,omitempty"`
	Speciality  string `gorm:"size:120" json:"speciality,omitempty"`

	RefreshTokens []RefreshToken `gorm:"foreignKey:UserID" json:"-"`
	Patients      []Patient      `gorm:"foreignKey:WorkerID" json:"-"`
}

// UserSanitized represents the user data that is safe to send in API responses.
type UserSanitized struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Role        Role      `json:"role"`
	PhoneNumber string    `json:"phoneNumber,omitempty"`
	WorkerCode  string    `json:"workerCode,omitempty"`
	SubCentre   string    `json:"subCentre,omitempty"`
	District    string    `json:"district,omitempty"`
	Speciality  string    `json:"speciality,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RefreshToken is an issued refresh JWT. Tokens are rotated on use and revoked on logout.
type RefreshToken struct {
	BaseModel
	UserID    string    `gorm:"size:36;index" json:"userId"`
	Token     string    `gorm:"type:text;not null" json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	IsRevoked bool      `gorm:"default:false" json:"isRevoked"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// SetPassword hashes a password and sets it on the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword compares a password with the user's hashed password
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// FullName joins first and last name.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Sanitize creates a UserSanitized struct from a User model, excluding sensitive data.
func (u *User) Sanitize() UserSanitized {
	return UserSanitized{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Role:        u.Role,
		PhoneNumber: u.PhoneNumber,
		WorkerCode:  u.WorkerCode,
		SubCentre:   u.SubCentre,
		District:    u.District,
		Speciality:  u.Speciality,
		CreatedAt:   u.CreatedAt,
	}
}
