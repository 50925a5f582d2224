package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Employee roles
const (
	RoleEmployee   = "employee"
	RoleSales      = "sales"
	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
)

// SalesRoles may use the /sales endpoints.
var SalesRoles = []string{RoleSales, RoleAdmin, RoleSuperadmin}

type Employee struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name        string     `gorm:"not null" json:"name"`
	Email       string     `gorm:"uniqueIndex;not null" json:"email"`
	Password    string     `gorm:"not null" json:"-"`
	Role        string     `gorm:"not null;default:employee" json:"role"` // employee, sales, admin, superadmin
	Department  string     `json:"department,omitempty"`
	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at"`

	// Login throttling
	FailedLoginAttempts int        `gorm:"not null;default:0" json:"-"`
	LockoutUntil        *time.Time `json:"-"`
}

// BeforeCreate hook to generate UUID
func (e *Employee) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// HasRole reports whether the employee holds any of the given roles
func (e *Employee) HasRole(roles ...string) bool {
	for _, role := range roles {
		if e.Role == role {
			return true
		}
	}
	return false
}

// IsLockedOut reports whether a lockout window is still running
func (e *Employee) IsLockedOut(now time.Time) bool {
	return e.LockoutUntil != nil && now.Before(*e.LockoutUntil)
}

// IsValidRole checks a role against the known set
func IsValidRole(role string) bool {
	switch role {
	case RoleEmployee, RoleSales, RoleAdmin, RoleSuperadmin:
		return true
	}
	return false
}

func (Employee) TableName() string {
	return "employees"
}

// Session is a signed-in console login. The token travels in the session
// cookie or as a bearer token; rows past ExpiresAt are swept hourly.
type Session struct {
	ID         string    `gorm:"primarykey;type:varchar(36)" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	EmployeeID string    `gorm:"type:uuid;not null;index" json:"employee_id"`
	Token      string    `gorm:"uniqueIndex;not null;type:varchar(128)" json:"-"`
	ExpiresAt  time.Time `gorm:"not null;index" json:"expires_at"`
	IPAddress  string    `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent  string    `gorm:"type:text" json:"user_agent"`

	Employee Employee `gorm:"foreignKey:EmployeeID" json:"-"`
}

func (Session) TableName() string {
	return "sessions"
}

// IsExpired reports whether the session is past its expiry at now
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
