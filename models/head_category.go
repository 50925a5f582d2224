package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HeadCategory is the root level of the product taxonomy (e.g., Electronics)
type HeadCategory struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name        string  `gorm:"not null;index" json:"name"`
	Slug        string  `gorm:"uniqueIndex;not null" json:"slug"`
	Description string  `gorm:"type:text" json:"description"`
	ImageURL    *string `json:"image_url"`
	IsActive    bool    `gorm:"not null;index" json:"is_active"`
}

// BeforeCreate hook to generate UUID
func (h *HeadCategory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for HeadCategory model
func (HeadCategory) TableName() string {
	return "head_categories"
}
