package middleware

import (
	"errors"
	"net/http"
	"strings"

	"marketplace_console_go/config"
	"marketplace_console_go/models"
	"marketplace_console_go/services"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const (
	// SessionCookieName is the name of the session cookie
	SessionCookieName = "console_session"
	// ContextKeyEmployee is the context key for the authenticated employee
	ContextKeyEmployee = "employee"
	// ContextKeySession is the context key for the session
	ContextKeySession = "session"
	// ContextKeyConfig is the context key for the app config
	ContextKeyConfig = "config"
)

// sessionToken reads the session cookie, falling back to an Authorization: Bearer header
func sessionToken(c echo.Context) string {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// RequireAuth is middleware that requires an authenticated employee session
func RequireAuth(db *gorm.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := sessionToken(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
			}

			session, err := services.ValidateSession(db, token)
			if err != nil {
				if errors.Is(err, services.ErrSessionNotFound) || errors.Is(err, services.ErrSessionExpired) {
					ClearSessionCookie(c)
					return echo.NewHTTPError(http.StatusUnauthorized, "Session expired, please log in again")
				}
				return err
			}

			if !session.Employee.IsActive {
				ClearSessionCookie(c)
				return echo.NewHTTPError(http.StatusUnauthorized, "Account is deactivated")
			}

			c.Set(ContextKeyEmployee, &session.Employee)
			c.Set(ContextKeySession, session)

			return next(c)
		}
	}
}

// RequireRole is middleware that requires specific roles
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			employee := GetCurrentEmployee(c)
			if employee == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
			}

			if !employee.HasRole(roles...) {
				return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
			}

			return next(c)
		}
	}
}

// GetCurrentEmployee retrieves the current employee from context
func GetCurrentEmployee(c echo.Context) *models.Employee {
	employee, ok := c.Get(ContextKeyEmployee).(*models.Employee)
	if !ok {
		return nil
	}
	return employee
}

// GetCurrentSession retrieves the current session from context
func GetCurrentSession(c echo.Context) *models.Session {
	session, ok := c.Get(ContextKeySession).(*models.Session)
	if !ok {
		return nil
	}
	return session
}

// WithConfig stores the app config on every request
func WithConfig(cfg *config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(ContextKeyConfig, cfg)
			return next(c)
		}
	}
}

func isProduction(c echo.Context) bool {
	cfg, ok := c.Get(ContextKeyConfig).(*config.Config)
	return ok && cfg.Environment == "production"
}

// SetSessionCookie writes the session cookie after a successful login
func SetSessionCookie(c echo.Context, session *models.Session) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   isProduction(c),
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie clears the session cookie
func ClearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isProduction(c),
		SameSite: http.SameSiteLaxMode,
	})
}
