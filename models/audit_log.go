package models

import (
	"encoding/json"
	"errors"
	"reflect"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditAction represents the type of operation performed
type AuditAction string

const (
	AuditActionCreate       AuditAction = "CREATE"
	AuditActionUpdate       AuditAction = "UPDATE"
	AuditActionDelete       AuditAction = "DELETE"
	AuditActionStatusChange AuditAction = "STATUS_CHANGE"
	AuditActionOnboard      AuditAction = "ONBOARD"
	AuditActionLogin        AuditAction = "LOGIN"
	AuditActionLogout       AuditAction = "LOGOUT"
)

// ErrAuditLogImmutable is returned by the hooks guarding audit rows
var ErrAuditLogImmutable = errors.New("audit logs are immutable")

// AuditLog represents an immutable record of an employee action
type AuditLog struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index:idx_audit_created_at" json:"created_at"`

	// Actor identification (denormalized for historical accuracy)
	EmployeeID   *string `gorm:"type:uuid;index:idx_audit_employee" json:"employee_id,omitempty"`
	EmployeeName string  `json:"employee_name"`
	EmployeeRole string  `json:"employee_role"`

	// Target resource
	ResourceType string `gorm:"not null;index:idx_audit_resource" json:"resource_type"` // e.g., "head_category", "lead"
	ResourceID   string `gorm:"not null;index:idx_audit_resource" json:"resource_id"`
	ResourceName string `json:"resource_name,omitempty"`

	Action      AuditAction `gorm:"not null;index:idx_audit_action" json:"action"`
	Description string      `gorm:"type:text" json:"description,omitempty"`

	// Change tracking (JSON encoded)
	OldValues string `gorm:"type:text" json:"old_values,omitempty"`
	NewValues string `gorm:"type:text" json:"new_values,omitempty"`

	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	RequestID string `gorm:"index:idx_audit_request" json:"request_id,omitempty"`
}

// AuditChange represents a single field change
type AuditChange struct {
	Field string      `json:"field"`
	Old   interface{} `json:"old,omitempty"`
	New   interface{} `json:"new,omitempty"`
}

// Changes lists the fields whose old and new values differ, sorted by name.
// Values that are not JSON objects contribute nothing.
func (a *AuditLog) Changes() []AuditChange {
	before := decodeValues(a.OldValues)
	after := decodeValues(a.NewValues)

	var changes []AuditChange
	for field, old := range before {
		if n, ok := after[field]; !ok || !reflect.DeepEqual(old, n) {
			changes = append(changes, AuditChange{Field: field, Old: old, New: after[field]})
		}
	}
	for field, n := range after {
		if _, ok := before[field]; !ok {
			changes = append(changes, AuditChange{Field: field, New: n})
		}
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].Field < changes[j].Field })
	return changes
}

func decodeValues(raw string) map[string]interface{} {
	values := map[string]interface{}{}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &values); err != nil {
			return map[string]interface{}{}
		}
	}
	return values
}

// BeforeCreate generates the UUID
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// BeforeUpdate prevents modification of audit logs
func (a *AuditLog) BeforeUpdate(tx *gorm.DB) error {
	return ErrAuditLogImmutable
}

// BeforeDelete prevents deletion of audit logs
func (a *AuditLog) BeforeDelete(tx *gorm.DB) error {
	return ErrAuditLogImmutable
}

// TableName specifies the table name
func (AuditLog) TableName() string {
	return "audit_logs"
}
