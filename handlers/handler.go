package handlers

import (
	"net/http"
	"strings"

	"marketplace_console_go/config"
	"marketplace_console_go/middleware"
	"marketplace_console_go/models"
	"marketplace_console_go/services"
	"marketplace_console_go/services/faq"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler serves the console API. Every dependency is injected at construction.
type Handler struct {
	db     *gorm.DB
	cfg    *config.Config
	logger *zap.Logger

	categories map[services.CategoryLevel]categoryEndpoint
	uploads    *services.ImageUploadService
	onboarding *services.VendorOnboardingService
	leads      *services.LeadService
	stats      *services.SalesStatsService
	audit      *services.AuditLogger
	faq        *faq.Responder

	loginLimiter *middleware.RateLimiter
	chatLimiter  *middleware.RateLimiter
}

// New builds the handler graph. Image uploads from category forms go through
// the same upload service that backs POST /category-image-upload.
func New(db *gorm.DB, cfg *config.Config, logger *zap.Logger, storage services.StorageProvider, mailer services.Mailer, responder *faq.Responder) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	uploads := services.NewImageUploadService(storage)
	gate := services.NewImageGate(uploads)
	audit := services.NewAuditLogger(db, logger)

	h := &Handler{
		db:      db,
		cfg:     cfg,
		logger:  logger,
		uploads: uploads,
		leads:   services.NewLeadService(db, audit),
		stats:   services.NewSalesStatsService(db),
		audit:   audit,
		faq:     responder,
		categories: map[services.CategoryLevel]categoryEndpoint{
			services.LevelHead:  categoryAPI[models.HeadCategory]{m: services.NewHeadCategoryManager(db, gate)},
			services.LevelSub:   categoryAPI[models.SubCategory]{m: services.NewSubCategoryManager(db, gate)},
			services.LevelMicro: categoryAPI[models.MicroCategory]{m: services.NewMicroCategoryManager(db, gate)},
		},
		loginLimiter: middleware.NewLoginRateLimiter(),
		chatLimiter:  middleware.NewChatRateLimiter(cfg.ChatRateLimit),
	}
	h.onboarding = services.NewVendorOnboardingService(
		db,
		services.NewDBIdentityProvider(db),
		services.NewDBVendorRegistry(db),
		mailer,
		audit,
		logger,
		strings.TrimSuffix(cfg.AppURL, "/")+"/login",
	)
	return h
}

// Close stops the rate limiters' background cleanup
func (h *Handler) Close() {
	h.loginLimiter.Stop()
	h.chatLimiter.Stop()
}

// Register mounts every route on e
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/health", h.Health)

	e.POST("/login", h.Login, h.loginLimiter.Middleware())

	// Public chat webhook
	chatCORS := echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	})
	e.POST(chatPath, h.Chat, chatCORS, echomiddleware.BodyLimit("64K"), h.chatLimiter.Middleware())
	e.OPTIONS(chatPath, h.ChatPreflight, chatCORS)

	// Everything below requires an employee session
	auth := []echo.MiddlewareFunc{middleware.RequireAuth(h.db), middleware.AuditContext()}
	e.POST("/logout", h.Logout, auth...)
	e.GET("/me", h.Me, auth...)

	e.GET("/categories/:level", h.ListCategories, auth...)
	e.POST("/categories/:level", h.CreateCategory, auth...)
	e.GET("/categories/:level/:id", h.GetCategory, auth...)
	e.PUT("/categories/:level/:id", h.UpdateCategory, auth...)
	e.DELETE("/categories/:level/:id", h.DeleteCategory, auth...)
	e.GET("/categories/:level/:id/children/count", h.CountCategoryChildren, auth...)
	e.POST("/category-image-upload", h.UploadCategoryImage, auth...)

	e.GET("/geography/states", h.ListStates, auth...)
	e.GET("/geography/states/:stateId/cities", h.ListCities, auth...)

	e.GET("/vendors", h.ListVendors, auth...)
	e.POST("/vendors", h.OnboardVendor, auth...)
	e.GET("/vendors/:id", h.GetVendor, auth...)

	sales := append(auth, middleware.RequireRole(models.SalesRoles...))
	e.GET("/sales/stats", h.SalesStats, sales...)
	e.GET("/sales/leads", h.ListLeads, sales...)
	e.GET("/sales/leads/export", h.ExportLeads, sales...)
	e.PATCH("/sales/leads/:leadId/status", h.UpdateLeadStatus, sales...)
	e.GET("/sales/pricing-rules", h.PricingRules, sales...)

	admin := append(auth, middleware.RequireRole(models.RoleAdmin, models.RoleSuperadmin))
	e.GET("/audit/:resource/:id", h.ResourceHistory, admin...)
}
