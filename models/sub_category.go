package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubCategory is the middle level of the taxonomy, owned by exactly one HeadCategory
type SubCategory struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	HeadCategoryID string `gorm:"type:uuid;not null;index" json:"head_category_id"`

	Name        string  `gorm:"not null;index" json:"name"`
	Slug        string  `gorm:"uniqueIndex;not null" json:"slug"`
	Description string  `gorm:"type:text" json:"description"`
	ImageURL    *string `json:"image_url"`
	IsActive    bool    `gorm:"not null;index" json:"is_active"`
}

// BeforeCreate hook to generate UUID
func (s *SubCategory) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for SubCategory model
func (SubCategory) TableName() string {
	return "sub_categories"
}
