package handlers

import (
	"net/http"

	"marketplace_console_go/middleware"
	"marketplace_console_go/services"

	"github.com/labstack/echo/v4"
)

// OnboardVendor creates the vendor's login identity and profile
// POST /vendors
func (h *Handler) OnboardVendor(c echo.Context) error {
	var form services.VendorForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	result, err := h.onboarding.Onboard(c.Request().Context(), form, middleware.GetAuditContext(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}

// ListVendors returns vendors newest first
// GET /vendors?q=&page=&limit=
func (h *Handler) ListVendors(c echo.Context) error {
	page, limit := pageParams(c)
	vendors, total, err := services.ListVendors(h.db.WithContext(c.Request().Context()), c.QueryParam("q"), page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pageResponse{Items: vendors, Total: total, Page: page, Limit: limit})
}

// GetVendor returns one vendor
// GET /vendors/:id
func (h *Handler) GetVendor(c echo.Context) error {
	vendor, err := services.GetVendor(h.db.WithContext(c.Request().Context()), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, vendor)
}
