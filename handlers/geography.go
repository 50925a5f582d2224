package handlers

import (
	"net/http"

	"marketplace_console_go/services"

	"github.com/labstack/echo/v4"
)

// ListStates returns all active states
// GET /geography/states
func (h *Handler) ListStates(c echo.Context) error {
	states, err := services.GetActiveStates(h.db.WithContext(c.Request().Context()))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, states)
}

// ListCities returns the active cities of a state
// GET /geography/states/:stateId/cities
func (h *Handler) ListCities(c echo.Context) error {
	cities, err := services.GetCitiesByState(h.db.WithContext(c.Request().Context()), c.Param("stateId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cities)
}
