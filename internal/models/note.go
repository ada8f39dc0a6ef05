package models

// ConsultationNote is a message attached to a referral, exchanged between
// the referring worker and the receiving facility.
type ConsultationNote struct {
	BaseModel
	ReferralID string `gorm:"size:36;index;not null" json:"referralId"`
	AuthorID   string `gorm:"size:36;index" json:"authorId"`
	AuthorName string `gorm:"size:200" json:"authorName"`
	AuthorRole Role   `gorm:"size:20" json:"authorRole"`
	Content    string `gorm:"type:text;not null" json:"content"`
}
