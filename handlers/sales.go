package handlers

import (
	"fmt"
	"net/http"
	"time"

	"marketplace_console_go/middleware"
	"marketplace_console_go/services"

	"github.com/labstack/echo/v4"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SalesStats returns this week's lead and revenue figures against last week's
// GET /sales/stats
func (h *Handler) SalesStats(c echo.Context) error {
	stats, err := h.stats.Compute(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// leadFilters reads status, q, from and to (YYYY-MM-DD, to is inclusive)
func leadFilters(c echo.Context) (services.LeadFilters, error) {
	filters := services.LeadFilters{
		Status: c.QueryParam("status"),
		Search: c.QueryParam("q"),
	}
	if from := c.QueryParam("from"); from != "" {
		t, err := time.Parse(time.DateOnly, from)
		if err != nil {
			return filters, services.NewValidationError("from", "from must be a date like 2026-01-31")
		}
		filters.From = t
	}
	if to := c.QueryParam("to"); to != "" {
		t, err := time.Parse(time.DateOnly, to)
		if err != nil {
			return filters, services.NewValidationError("to", "to must be a date like 2026-01-31")
		}
		filters.To = t.AddDate(0, 0, 1)
	}
	return filters, nil
}

// ListLeads returns one page of leads
// GET /sales/leads?status=&q=&from=&to=&page=&limit=
func (h *Handler) ListLeads(c echo.Context) error {
	filters, err := leadFilters(c)
	if err != nil {
		return err
	}
	page, limit := pageParams(c)

	leads, total, err := h.leads.ListLeads(c.Request().Context(), filters, page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pageResponse{Items: leads, Total: total, Page: page, Limit: limit})
}

// ExportLeads downloads the filtered leads as a spreadsheet
// GET /sales/leads/export
func (h *Handler) ExportLeads(c echo.Context) error {
	filters, err := leadFilters(c)
	if err != nil {
		return err
	}

	leads, err := h.leads.ExportLeads(c.Request().Context(), filters)
	if err != nil {
		return err
	}
	buf, err := services.BuildLeadWorkbook(leads)
	if err != nil {
		return err
	}

	filename := fmt.Sprintf("leads_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+filename)
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

type leadStatusRequest struct {
	Status string `json:"status" form:"status"`
}

// UpdateLeadStatus moves a lead to a new status
// PATCH /sales/leads/:leadId/status
func (h *Handler) UpdateLeadStatus(c echo.Context) error {
	var req leadStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	lead, err := h.leads.UpdateLeadStatus(c.Request().Context(), c.Param("leadId"), req.Status, middleware.GetAuditContext(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lead)
}

// PricingRules lists the active lead pricing rules
// GET /sales/pricing-rules
func (h *Handler) PricingRules(c echo.Context) error {
	rules, err := h.leads.ListActivePricingRules(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rules)
}
