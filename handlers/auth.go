package handlers

import (
	"errors"
	"net/http"

	"marketplace_console_go/middleware"
	"marketplace_console_go/models"
	"marketplace_console_go/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// dummyHash keeps the unknown-email path as slow as a wrong password
var dummyHash string

func init() {
	dummyHash, _ = services.HashPassword("dummy_password_for_timing_mitigation")
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type loginResponse struct {
	Token     string           `json:"token"`
	ExpiresAt string           `json:"expires_at"`
	Employee  *models.Employee `json:"employee"`
}

// Login checks credentials and starts a session
// POST /login
func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email and password are required")
	}

	employee, err := services.Authenticate(h.db, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			services.VerifyPassword(dummyHash, req.Password)
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		case errors.Is(err, services.ErrAccountLocked):
			return echo.NewHTTPError(http.StatusTooManyRequests, err.Error())
		case errors.Is(err, services.ErrAccountInactive):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		return err
	}

	session, err := services.CreateSession(h.db, employee.ID, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return err
	}
	middleware.SetSessionCookie(c, session)

	actor := services.AuditContextFor(employee, c.RealIP(), c.Request().UserAgent())
	actor.RequestID = middleware.RequestID(c)
	h.audit.Log(c.Request().Context(), actor, services.AuditEntry{
		Action:       models.AuditActionLogin,
		ResourceType: "employee",
		ResourceID:   employee.ID,
		ResourceName: employee.Name,
		Description:  "Employee logged in",
	})
	h.logger.Info("employee logged in", zap.String("employee_id", employee.ID))

	return c.JSON(http.StatusOK, loginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.UTC().Format(http.TimeFormat),
		Employee:  employee,
	})
}

// Logout ends the current session
// POST /logout
func (h *Handler) Logout(c echo.Context) error {
	if session := middleware.GetCurrentSession(c); session != nil {
		if err := services.DeleteSession(h.db, session.Token); err != nil {
			return err
		}
	}
	middleware.ClearSessionCookie(c)

	if employee := middleware.GetCurrentEmployee(c); employee != nil {
		h.audit.Log(c.Request().Context(), middleware.GetAuditContext(c), services.AuditEntry{
			Action:       models.AuditActionLogout,
			ResourceType: "employee",
			ResourceID:   employee.ID,
			ResourceName: employee.Name,
			Description:  "Employee logged out",
		})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the signed-in employee
// GET /me
func (h *Handler) Me(c echo.Context) error {
	employee := middleware.GetCurrentEmployee(c)
	if employee == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}
	return c.JSON(http.StatusOK, employee)
}

// Health reports that the process is serving and the database answers
// GET /health
func (h *Handler) Health(c echo.Context) error {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request().Context())
	}
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
