package middleware

import (
	"marketplace_console_go/services"

	"github.com/labstack/echo/v4"
)

const ContextKeyAuditContext = "audit_context"

// AuditContext captures the acting employee, client address and request id
// for the audit trail. Register it after RequireAuth.
func AuditContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor := services.AuditContextFor(GetCurrentEmployee(c), c.RealIP(), c.Request().UserAgent())
			actor.RequestID = RequestID(c)
			c.Set(ContextKeyAuditContext, actor)
			return next(c)
		}
	}
}

// GetAuditContext returns the captured actor, or an anonymous one when the
// middleware did not run.
func GetAuditContext(c echo.Context) services.AuditContext {
	if actor, ok := c.Get(ContextKeyAuditContext).(services.AuditContext); ok {
		return actor
	}
	return services.AuditContext{}
}

// RequestID returns the id echo's RequestID middleware put on the response,
// falling back to one forwarded by a proxy.
func RequestID(c echo.Context) string {
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}
