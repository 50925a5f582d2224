package services

import (
	"context"
	"encoding/json"

	"marketplace_console_go/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuditContext identifies who performed an action and from where
type AuditContext struct {
	EmployeeID   string
	EmployeeName string
	EmployeeRole string
	IPAddress    string
	UserAgent    string
	RequestID    string
}

// AuditContextFor builds the actor part of an audit entry from an employee
func AuditContextFor(employee *models.Employee, ipAddress, userAgent string) AuditContext {
	ctx := AuditContext{IPAddress: ipAddress, UserAgent: userAgent}
	if employee != nil {
		ctx.EmployeeID = employee.ID
		ctx.EmployeeName = employee.Name
		ctx.EmployeeRole = employee.Role
	}
	return ctx
}

// AuditEntry is the resource part of an audit entry
type AuditEntry struct {
	Action       models.AuditAction
	ResourceType string
	ResourceID   string
	ResourceName string
	Description  string
	OldValues    interface{}
	NewValues    interface{}
}

// AuditLogger writes audit rows. A nil *AuditLogger discards entries.
type AuditLogger struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewAuditLogger(db *gorm.DB, logger *zap.Logger) *AuditLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditLogger{db: db, logger: logger}
}

// Log writes one entry synchronously. A failed write is logged and otherwise ignored,
// so auditing never fails the action being audited.
func (a *AuditLogger) Log(ctx context.Context, actor AuditContext, entry AuditEntry) {
	if a == nil {
		return
	}

	row := models.AuditLog{
		EmployeeID:   ptrIfNotEmpty(actor.EmployeeID),
		EmployeeName: actor.EmployeeName,
		EmployeeRole: actor.EmployeeRole,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		ResourceName: entry.ResourceName,
		Action:       entry.Action,
		Description:  entry.Description,
		OldValues:    a.encode(entry.OldValues),
		NewValues:    a.encode(entry.NewValues),
		IPAddress:    actor.IPAddress,
		UserAgent:    actor.UserAgent,
		RequestID:    actor.RequestID,
	}

	if err := a.db.WithContext(ctx).Create(&row).Error; err != nil {
		a.logger.Error("failed to create audit log",
			zap.String("resource_type", entry.ResourceType),
			zap.String("resource_id", entry.ResourceID),
			zap.Error(err))
	}
}

func (a *AuditLogger) encode(v interface{}) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		a.logger.Warn("failed to encode audit values", zap.Error(err))
		return ""
	}
	return string(b)
}

// GetResourceAuditHistory retrieves the audit history for a specific resource
func GetResourceAuditHistory(db *gorm.DB, resourceType, resourceID string) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := db.Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, err
}

// ptrIfNotEmpty returns a pointer to the string if not empty, nil otherwise
func ptrIfNotEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
