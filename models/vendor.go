package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthUser is the login identity behind a vendor account.
// It is written before the Vendor profile, outside any transaction.
type AuthUser struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         string `gorm:"not null;default:vendor" json:"role"`
}

// BeforeCreate hook to generate UUID
func (u *AuthUser) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

func (AuthUser) TableName() string {
	return "auth_users"
}

// Vendor is the marketplace seller profile, 1:1 with an AuthUser
type Vendor struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID string `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`

	CompanyName string `gorm:"not null;index" json:"company_name"`
	OwnerName   string `gorm:"not null" json:"owner_name"`
	Email       string `gorm:"not null;index" json:"email"`
	Phone       string `gorm:"not null" json:"phone"`
	GSTNumber   string `gorm:"size:15" json:"gst_number"`
	Address     string `gorm:"type:text" json:"address"`
	Pincode     string `gorm:"size:6" json:"pincode"`

	// Display names are resolved at registration time and stored denormalized
	StateID   string `gorm:"type:uuid;index" json:"state_id"`
	StateName string `json:"state_name"`
	CityID    string `gorm:"type:uuid;index" json:"city_id"`
	CityName  string `json:"city_name"`

	IsActive    bool    `gorm:"not null;default:true" json:"is_active"`
	CreatedByID *string `gorm:"type:uuid" json:"created_by_id,omitempty"`
}

// BeforeCreate hook to generate UUID
func (v *Vendor) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return nil
}

func (Vendor) TableName() string {
	return "vendors"
}
