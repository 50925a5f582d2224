package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// State is a state or union territory offered on vendor addresses
type State struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Code     string `gorm:"size:10;not null;uniqueIndex" json:"code"` // e.g., "MH"
	Name     string `gorm:"size:100;not null" json:"name"`
	IsActive bool   `gorm:"not null;default:true" json:"is_active"`

	Cities []City `gorm:"foreignKey:StateID" json:"cities,omitempty"`
}

func (s *State) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

func (State) TableName() string {
	return "states"
}

// City belongs to exactly one state; names are unique within it
type City struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	StateID  string `gorm:"type:uuid;not null;uniqueIndex:idx_city_state_name" json:"state_id"`
	Name     string `gorm:"size:100;not null;uniqueIndex:idx_city_state_name" json:"name"`
	IsActive bool   `gorm:"not null;default:true" json:"is_active"`
}

func (c *City) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

func (City) TableName() string {
	return "cities"
}
