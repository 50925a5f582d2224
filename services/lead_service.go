package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"marketplace_console_go/models"

	"gorm.io/gorm"
)

// MaxLeadStatusLength caps the free-text status
const MaxLeadStatusLength = 32

var ErrLeadNotFound = errors.New("lead not found")

// LeadFilters narrows the lead list
type LeadFilters struct {
	Status string
	Search string
	From   time.Time
	To     time.Time
}

// LeadService reads leads and moves them through statuses
type LeadService struct {
	db    *gorm.DB
	audit *AuditLogger
}

func NewLeadService(db *gorm.DB, audit *AuditLogger) *LeadService {
	return &LeadService{db: db, audit: audit}
}

func (s *LeadService) filtered(ctx context.Context, filters LeadFilters) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Lead{})
	if status := models.NormalizeLeadStatus(filters.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?", pattern, pattern, pattern)
	}
	if !filters.From.IsZero() {
		query = query.Where("created_at >= ?", filters.From)
	}
	if !filters.To.IsZero() {
		query = query.Where("created_at < ?", filters.To)
	}
	return query
}

// ListLeads returns one page of leads, newest first, and the filtered total
func (s *LeadService) ListLeads(ctx context.Context, filters LeadFilters, page, limit int) ([]models.Lead, int64, error) {
	var total int64
	if err := s.filtered(ctx, filters).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count leads: %w", err)
	}

	leads := []models.Lead{}
	err := s.filtered(ctx, filters).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&leads).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list leads: %w", err)
	}
	return leads, total, nil
}

// ExportLeads returns every lead matching the filters, newest first
func (s *LeadService) ExportLeads(ctx context.Context, filters LeadFilters) ([]models.Lead, error) {
	leads := []models.Lead{}
	if err := s.filtered(ctx, filters).Order("created_at DESC").Find(&leads).Error; err != nil {
		return nil, fmt.Errorf("failed to export leads: %w", err)
	}
	return leads, nil
}

// UpdateLeadStatus probes the lead, writes the upper-cased status and
// re-reads the row. Zero affected rows after a successful probe is an error.
func (s *LeadService) UpdateLeadStatus(ctx context.Context, id, status string, actor AuditContext) (*models.Lead, error) {
	status = models.NormalizeLeadStatus(status)
	switch {
	case status == "":
		return nil, NewValidationError("status", "status is required")
	case len(status) > MaxLeadStatusLength:
		return nil, NewValidationError("status", fmt.Sprintf("status must be at most %d characters", MaxLeadStatusLength))
	}

	var before models.Lead
	if err := s.db.WithContext(ctx).Select("id", "status", "name").First(&before, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("failed to load lead: %w", err)
	}

	result := s.db.WithContext(ctx).Table("leads").
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update lead status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrWriteNotApplied
	}

	var lead models.Lead
	if err := s.db.WithContext(ctx).First(&lead, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWriteNotApplied
		}
		return nil, fmt.Errorf("failed to reload lead: %w", err)
	}

	s.audit.Log(ctx, actor, AuditEntry{
		Action:       models.AuditActionStatusChange,
		ResourceType: "Lead",
		ResourceID:   lead.ID,
		ResourceName: lead.Name,
		Description:  fmt.Sprintf("status changed from %s to %s", before.Status, lead.Status),
		OldValues:    map[string]string{"status": before.Status},
		NewValues:    map[string]string{"status": lead.Status},
	})

	return &lead, nil
}

// ListActivePricingRules returns active rules ordered by category level then name
func (s *LeadService) ListActivePricingRules(ctx context.Context) ([]models.PricingRule, error) {
	rules := []models.PricingRule{}
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("category_level ASC, name ASC").
		Find(&rules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pricing rules: %w", err)
	}
	return rules, nil
}
