package handlers

import (
	"net/http"

	"marketplace_console_go/models"
	"marketplace_console_go/services"

	"github.com/labstack/echo/v4"
)

// auditEntry is one audit row with its field-level diff
type auditEntry struct {
	models.AuditLog
	Changes []models.AuditChange `json:"changes,omitempty"`
}

// ResourceHistory returns the audit trail of one resource, newest first
// GET /audit/:resource/:id
func (h *Handler) ResourceHistory(c echo.Context) error {
	logs, err := services.GetResourceAuditHistory(h.db.WithContext(c.Request().Context()), c.Param("resource"), c.Param("id"))
	if err != nil {
		return err
	}

	entries := make([]auditEntry, 0, len(logs))
	for i := range logs {
		entries = append(entries, auditEntry{AuditLog: logs[i], Changes: logs[i].Changes()})
	}
	return c.JSON(http.StatusOK, entries)
}
