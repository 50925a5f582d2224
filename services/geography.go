package services

import (
	"errors"
	"fmt"

	"marketplace_console_go/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrStateNotFound = errors.New("state not found")
	ErrCityNotFound  = errors.New("city not found in the selected state")
)

// Seeded states with a handful of major cities each
var indiaStates = []struct {
	Code   string
	Name   string
	Cities []string
}{
	{"DL", "Delhi", []string{"New Delhi"}},
	{"GJ", "Gujarat", []string{"Ahmedabad", "Surat", "Vadodara", "Rajkot"}},
	{"KA", "Karnataka", []string{"Bengaluru", "Mysuru", "Mangaluru", "Hubballi"}},
	{"MH", "Maharashtra", []string{"Mumbai", "Pune", "Nagpur", "Nashik"}},
	{"RJ", "Rajasthan", []string{"Jaipur", "Jodhpur", "Udaipur"}},
	{"TN", "Tamil Nadu", []string{"Chennai", "Coimbatore", "Madurai"}},
	{"TG", "Telangana", []string{"Hyderabad", "Warangal"}},
	{"UP", "Uttar Pradesh", []string{"Lucknow", "Kanpur", "Noida", "Varanasi"}},
	{"WB", "West Bengal", []string{"Kolkata", "Howrah", "Siliguri"}},
}

// SeedGeography inserts the state and city catalog if it is missing
func SeedGeography(db *gorm.DB, logger *zap.Logger) error {
	var count int64
	if err := db.Model(&models.State{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count states: %w", err)
	}
	if count > 0 {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, s := range indiaStates {
			state := models.State{Code: s.Code, Name: s.Name, IsActive: true}
			if err := tx.Create(&state).Error; err != nil {
				return fmt.Errorf("failed to create state %s: %w", s.Code, err)
			}
			for _, name := range s.Cities {
				city := models.City{StateID: state.ID, Name: name, IsActive: true}
				if err := tx.Create(&city).Error; err != nil {
					return fmt.Errorf("failed to create city %s: %w", name, err)
				}
			}
		}
		logger.Info("seeded geography", zap.Int("states", len(indiaStates)))
		return nil
	})
}

// GetActiveStates returns active states ordered by name
func GetActiveStates(db *gorm.DB) ([]models.State, error) {
	var states []models.State
	err := db.Where("is_active = ?", true).Order("name ASC").Find(&states).Error
	return states, err
}

// GetCitiesByState returns active cities of a state ordered by name
func GetCitiesByState(db *gorm.DB, stateID string) ([]models.City, error) {
	var cities []models.City
	err := db.Where("state_id = ? AND is_active = ?", stateID, true).
		Order("name ASC").
		Find(&cities).Error
	return cities, err
}

// ResolveStateCity loads the display names for a state and a city inside it
func ResolveStateCity(db *gorm.DB, stateID, cityID string) (*models.State, *models.City, error) {
	var state models.State
	if err := db.First(&state, "id = ?", stateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrStateNotFound
		}
		return nil, nil, fmt.Errorf("failed to load state: %w", err)
	}

	var city models.City
	if err := db.First(&city, "id = ? AND state_id = ?", cityID, stateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrCityNotFound
		}
		return nil, nil, fmt.Errorf("failed to load city: %w", err)
	}

	return &state, &city, nil
}
