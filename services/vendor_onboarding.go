package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"marketplace_console_go/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Onboarding steps, in the order they run
const (
	StepCreateIdentity = 1
	StepRegisterVendor = 2
	StepConfirmVendor  = 3
)

var onboardingStepNames = map[int]string{
	StepCreateIdentity: "create identity",
	StepRegisterVendor: "register vendor profile",
	StepConfirmVendor:  "confirm vendor profile",
}

// OnboardingError reports which step failed. When Step is past the first one,
// UserID names the identity that was created and is now left without a profile.
type OnboardingError struct {
	Step   int
	UserID string
	Err    error
}

func (e *OnboardingError) Error() string {
	if e.UserID != "" && e.Step > StepCreateIdentity {
		return fmt.Sprintf("vendor onboarding failed at step %d (%s); identity %s was created without a vendor profile: %v",
			e.Step, onboardingStepNames[e.Step], e.UserID, e.Err)
	}
	return fmt.Sprintf("vendor onboarding failed at step %d (%s): %v", e.Step, onboardingStepNames[e.Step], e.Err)
}

func (e *OnboardingError) Unwrap() error {
	return e.Err
}

// StepName returns the human name of the failed step
func (e *OnboardingError) StepName() string {
	return onboardingStepNames[e.Step]
}

// VendorForm is the onboarding form as submitted
type VendorForm struct {
	CompanyName string `json:"company_name" form:"company_name"`
	OwnerName   string `json:"owner_name" form:"owner_name"`
	Email       string `json:"email" form:"email"`
	Phone       string `json:"phone" form:"phone"`
	GSTNumber   string `json:"gst_number" form:"gst_number"`
	Address     string `json:"address" form:"address"`
	Pincode     string `json:"pincode" form:"pincode"`
	StateID     string `json:"state_id" form:"state_id"`
	CityID      string `json:"city_id" form:"city_id"`
	Password    string `json:"password" form:"password"` // optional, generated when blank
}

// OnboardingResult is what the console shows after a successful onboarding
type OnboardingResult struct {
	Vendor            *models.Vendor `json:"vendor"`
	UserID            string         `json:"user_id"`
	GeneratedPassword string         `json:"generated_password,omitempty"`
}

// VendorOnboardingService runs the three onboarding steps in sequence.
// The steps are not atomic: a failure after step 1 leaves the identity in place.
type VendorOnboardingService struct {
	db         *gorm.DB
	identities IdentityProvider
	registry   VendorRegistry
	mailer     Mailer
	audit      *AuditLogger
	logger     *zap.Logger
	loginURL   string
}

// NewVendorOnboardingService wires the onboarding steps. mailer and audit may be nil.
func NewVendorOnboardingService(db *gorm.DB, identities IdentityProvider, registry VendorRegistry, mailer Mailer, audit *AuditLogger, logger *zap.Logger, loginURL string) *VendorOnboardingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VendorOnboardingService{
		db:         db,
		identities: identities,
		registry:   registry,
		mailer:     mailer,
		audit:      audit,
		logger:     logger,
		loginURL:   loginURL,
	}
}

// clean sanitizes the form in place and returns every field error
func (f *VendorForm) clean() error {
	var verrs ValidationErrors

	f.CompanyName = SanitizeName(f.CompanyName)
	if f.CompanyName == "" {
		verrs.Add("company_name", "company name is required")
	}
	f.OwnerName = SanitizeName(f.OwnerName)
	if f.OwnerName == "" {
		verrs.Add("owner_name", "owner name is required")
	}
	f.Email = SanitizeEmail(f.Email)
	if err := ValidateEmail(f.Email); err != nil {
		verrs.Add("email", err.Error())
	}
	f.Phone = SanitizePhone(f.Phone)
	if err := ValidatePhone(f.Phone); err != nil {
		verrs.Add("phone", err.Error())
	}
	f.GSTNumber = SanitizeGST(f.GSTNumber)
	if f.GSTNumber != "" {
		if err := ValidateGST(f.GSTNumber); err != nil {
			verrs.Add("gst_number", err.Error())
		}
	}
	f.Address = SanitizeAddress(f.Address)
	if f.Address == "" {
		verrs.Add("address", "address is required")
	}
	f.Pincode = SanitizePincode(f.Pincode)
	if err := ValidatePincode(f.Pincode); err != nil {
		verrs.Add("pincode", err.Error())
	}
	f.StateID = strings.TrimSpace(f.StateID)
	if f.StateID == "" {
		verrs.Add("state_id", "state is required")
	}
	f.CityID = strings.TrimSpace(f.CityID)
	if f.CityID == "" {
		verrs.Add("city_id", "city is required")
	}
	if f.Password != "" {
		if err := ValidatePassword(f.Password); err != nil {
			verrs.Add("password", err.Error())
		}
	}

	return verrs.ErrOrNil()
}

// Onboard validates the form, then creates the identity, registers the
// profile and re-reads it. No step is undone when a later one fails.
func (s *VendorOnboardingService) Onboard(ctx context.Context, form VendorForm, actor AuditContext) (*OnboardingResult, error) {
	if err := form.clean(); err != nil {
		return nil, err
	}

	state, city, err := ResolveStateCity(s.db.WithContext(ctx), form.StateID, form.CityID)
	if err != nil {
		switch {
		case errors.Is(err, ErrStateNotFound):
			return nil, NewValidationError("state_id", err.Error())
		case errors.Is(err, ErrCityNotFound):
			return nil, NewValidationError("city_id", err.Error())
		}
		return nil, err
	}

	password := form.Password
	generated := ""
	if password == "" {
		password, err = GeneratePassword(14)
		if err != nil {
			return nil, err
		}
		generated = password
	}

	userID, err := s.identities.CreateIdentity(ctx, form.Email, password)
	if err != nil {
		if errors.Is(err, ErrIdentityExists) {
			return nil, NewValidationError("email", err.Error())
		}
		return nil, &OnboardingError{Step: StepCreateIdentity, Err: err}
	}

	vendor := &models.Vendor{
		UserID:      userID,
		CompanyName: form.CompanyName,
		OwnerName:   form.OwnerName,
		Email:       form.Email,
		Phone:       form.Phone,
		GSTNumber:   form.GSTNumber,
		Address:     form.Address,
		Pincode:     form.Pincode,
		StateID:     state.ID,
		StateName:   state.Name,
		CityID:      city.ID,
		CityName:    city.Name,
		IsActive:    true,
		CreatedByID: ptrIfNotEmpty(actor.EmployeeID),
	}
	if err := s.registry.RegisterVendor(ctx, vendor); err != nil {
		s.logger.Error("vendor profile registration failed; identity left orphaned",
			zap.String("user_id", userID), zap.Error(err))
		return nil, &OnboardingError{Step: StepRegisterVendor, UserID: userID, Err: err}
	}

	confirmed, err := s.registry.GetVendorByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("vendor profile could not be re-read after registration",
			zap.String("user_id", userID), zap.Error(err))
		return nil, &OnboardingError{Step: StepConfirmVendor, UserID: userID, Err: err}
	}

	s.audit.Log(ctx, actor, AuditEntry{
		Action:       models.AuditActionOnboard,
		ResourceType: "Vendor",
		ResourceID:   confirmed.ID,
		ResourceName: confirmed.CompanyName,
		Description:  "vendor onboarded",
		NewValues:    confirmed,
	})

	s.sendWelcome(confirmed)

	return &OnboardingResult{Vendor: confirmed, UserID: userID, GeneratedPassword: generated}, nil
}

// sendWelcome mails the vendor; failures are logged and never fail onboarding
func (s *VendorOnboardingService) sendWelcome(vendor *models.Vendor) {
	if s.mailer == nil {
		return
	}
	email, err := BuildVendorWelcomeEmail(VendorWelcomeEmailData{
		OwnerName:   vendor.OwnerName,
		CompanyName: vendor.CompanyName,
		Email:       vendor.Email,
		VendorID:    vendor.ID,
		LoginURL:    s.loginURL,
	})
	if err != nil {
		s.logger.Warn("failed to build vendor welcome email", zap.Error(err))
		return
	}
	if err := s.mailer.Send(email); err != nil {
		s.logger.Warn("failed to send vendor welcome email", zap.String("vendor_id", vendor.ID), zap.Error(err))
	}
}

// ListVendors returns vendors newest first, optionally filtered by company, owner or email
func ListVendors(db *gorm.DB, query string, page, limit int) ([]models.Vendor, int64, error) {
	q := db.Model(&models.Vendor{})
	if query = strings.TrimSpace(query); query != "" {
		pattern := "%" + strings.ToLower(query) + "%"
		q = q.Where("LOWER(company_name) LIKE ? OR LOWER(owner_name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count vendors: %w", err)
	}

	vendors := []models.Vendor{}
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&vendors).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list vendors: %w", err)
	}
	return vendors, total, nil
}

// GetVendor loads one vendor by id
func GetVendor(db *gorm.DB, id string) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := db.First(&vendor, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVendorNotFound
		}
		return nil, fmt.Errorf("failed to load vendor: %w", err)
	}
	return &vendor, nil
}
