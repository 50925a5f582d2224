package services

import (
	"context"
	"errors"
	"fmt"

	"marketplace_console_go/models"

	"gorm.io/gorm"
)

var (
	ErrIdentityExists = errors.New("an account with this email already exists")
	ErrVendorNotFound = errors.New("vendor not found")
)

// IdentityProvider creates login identities for vendors
type IdentityProvider interface {
	CreateIdentity(ctx context.Context, email, password string) (string, error)
}

// VendorRegistry stores vendor profiles keyed by identity id
type VendorRegistry interface {
	RegisterVendor(ctx context.Context, vendor *models.Vendor) error
	GetVendorByUserID(ctx context.Context, userID string) (*models.Vendor, error)
}

// DBIdentityProvider writes bcrypt identities to auth_users
type DBIdentityProvider struct {
	db *gorm.DB
}

func NewDBIdentityProvider(db *gorm.DB) *DBIdentityProvider {
	return &DBIdentityProvider{db: db}
}

// CreateIdentity stores a vendor login and returns its id
func (p *DBIdentityProvider) CreateIdentity(ctx context.Context, email, password string) (string, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return "", err
	}

	user := &models.AuthUser{Email: email, PasswordHash: hash, Role: "vendor"}
	if err := p.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return "", ErrIdentityExists
		}
		return "", fmt.Errorf("failed to create identity: %w", err)
	}
	return user.ID, nil
}

// DBVendorRegistry stores vendor profiles in the vendors table
type DBVendorRegistry struct {
	db *gorm.DB
}

func NewDBVendorRegistry(db *gorm.DB) *DBVendorRegistry {
	return &DBVendorRegistry{db: db}
}

// RegisterVendor inserts the profile row
func (r *DBVendorRegistry) RegisterVendor(ctx context.Context, vendor *models.Vendor) error {
	if err := r.db.WithContext(ctx).Create(vendor).Error; err != nil {
		return fmt.Errorf("failed to register vendor: %w", err)
	}
	return nil
}

// GetVendorByUserID re-reads a profile by its identity id
func (r *DBVendorRegistry) GetVendorByUserID(ctx context.Context, userID string) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&vendor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVendorNotFound
		}
		return nil, fmt.Errorf("failed to load vendor: %w", err)
	}
	return &vendor, nil
}
