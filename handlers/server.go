package handlers

import (
	"marketplace_console_go/config"
	"marketplace_console_go/logging"
	"marketplace_console_go/middleware"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const chatPath = "/chat"

// ConfigureEcho installs the error handler and the middleware every route
// runs through. The console CORS policy (ALLOWED_ORIGINS with credentials)
// skips the public chat webhook, which answers any origin itself.
func ConfigureEcho(e *echo.Echo, cfg *config.Config, logger *zap.Logger) {
	e.HideBanner = true
	e.HTTPErrorHandler = HTTPErrorHandler(logger)

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(logging.RequestLogger(logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		Skipper:          isChatRequest,
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: true,
	}))
	e.Use(echomiddleware.BodyLimit("10M"))
	e.Use(middleware.WithConfig(cfg))
}

func isChatRequest(c echo.Context) bool {
	return c.Request().URL.Path == chatPath
}
