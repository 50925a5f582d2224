package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lead statuses. Status is free text in the database; these are the values the console knows about.
const (
	LeadStatusNew       = "NEW"
	LeadStatusContacted = "CONTACTED"
	LeadStatusQualified = "QUALIFIED"
	LeadStatusConverted = "CONVERTED"
	LeadStatusWon       = "WON"
	LeadStatusClosed    = "CLOSED"
	LeadStatusLost      = "LOST"
)

// ConvertedLeadStatuses are the terminal successful statuses counted as conversions
var ConvertedLeadStatuses = []string{LeadStatusConverted, LeadStatusWon, LeadStatusClosed}

// Lead is a sales prospect record
type Lead struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name            string  `gorm:"not null" json:"name"`
	Email           string  `json:"email"`
	Phone           string  `json:"phone"`
	Status          string  `gorm:"not null;default:NEW;index" json:"status"`
	Source          string  `json:"source"`
	Notes           string  `gorm:"type:text" json:"notes"`
	VendorID        *string `gorm:"type:uuid;index" json:"vendor_id,omitempty"`
	MicroCategoryID *string `gorm:"type:uuid;index" json:"micro_category_id,omitempty"`
}

// NormalizeLeadStatus trims and upper-cases a status before it is written
func NormalizeLeadStatus(status string) string {
	return strings.ToUpper(strings.TrimSpace(status))
}

// BeforeCreate hook to generate UUID and pin CreatedAt to UTC
func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	l.CreatedAt = utcOrNow(l.CreatedAt)
	return nil
}

// BeforeSave hook keeps the status upper-cased on struct writes
func (l *Lead) BeforeSave(tx *gorm.DB) error {
	l.Status = NormalizeLeadStatus(l.Status)
	if l.Status == "" {
		l.Status = LeadStatusNew
	}
	return nil
}

func (Lead) TableName() string {
	return "leads"
}

// IsConvertedStatus reports whether a status counts as a conversion
func IsConvertedStatus(status string) bool {
	status = NormalizeLeadStatus(status)
	for _, s := range ConvertedLeadStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// LeadPurchase is a revenue-generating purchase of a lead by a vendor.
// Older databases have no purchase_date column and only carry created_at.
type LeadPurchase struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	LeadID       string     `gorm:"type:uuid;not null;index" json:"lead_id"`
	VendorID     string     `gorm:"type:uuid;index" json:"vendor_id"`
	Amount       float64    `gorm:"not null;default:0" json:"amount"`
	PurchaseDate *time.Time `gorm:"index" json:"purchase_date"`
}

// BeforeCreate hook to generate UUID and pin both dates to UTC
func (p *LeadPurchase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.CreatedAt = utcOrNow(p.CreatedAt)
	if p.PurchaseDate != nil {
		d := p.PurchaseDate.UTC()
		p.PurchaseDate = &d
	}
	return nil
}

// utcOrNow stores window-queried timestamps in UTC. SQLite compares them as
// text, so rows and query bounds must share one offset.
func utcOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

func (LeadPurchase) TableName() string {
	return "lead_purchases"
}

// PricingRule sets the price a vendor pays per lead in a category
type PricingRule struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name          string  `gorm:"not null" json:"name"`
	CategoryLevel string  `gorm:"not null;index" json:"category_level"` // head, sub, micro
	CategoryID    string  `gorm:"type:uuid;index" json:"category_id"`
	PricePerLead  float64 `gorm:"not null" json:"price_per_lead"`
	Currency      string  `gorm:"not null;default:INR" json:"currency"`
	IsActive      bool    `gorm:"not null;default:true" json:"is_active"`
}

// BeforeCreate hook to generate UUID
func (r *PricingRule) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

func (PricingRule) TableName() string {
	return "pricing_rules"
}
