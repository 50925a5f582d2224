package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MicroCategory is the leaf level of the taxonomy, owned by exactly one SubCategory
type MicroCategory struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	SubCategoryID string `gorm:"type:uuid;not null;index" json:"sub_category_id"`

	Name     string  `gorm:"not null;index" json:"name"`
	Slug     string  `gorm:"uniqueIndex;not null" json:"slug"`
	ImageURL *string `json:"image_url"`
	IsActive bool    `gorm:"not null;index" json:"is_active"`
}

// BeforeCreate hook to generate UUID
func (m *MicroCategory) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for MicroCategory model
func (MicroCategory) TableName() string {
	return "micro_categories"
}

// MicroCategoryMeta holds optional SEO data for a micro category.
// Older databases link it through a column named "micro_categories" instead of
// "micro_category_id"; deletes try both.
type MicroCategoryMeta struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	MicroCategoryID string `gorm:"type:uuid;not null;uniqueIndex" json:"micro_category_id"`

	MetaTitle       string `json:"meta_title"`
	MetaDescription string `gorm:"type:text" json:"meta_description"`
	MetaKeywords    string `json:"meta_keywords"`
}

// BeforeCreate hook to generate UUID
func (m *MicroCategoryMeta) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for MicroCategoryMeta model
func (MicroCategoryMeta) TableName() string {
	return "micro_category_meta"
}
