package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"marketplace_console_go/config"
	"marketplace_console_go/models"
	"marketplace_console_go/services"
	"marketplace_console_go/services/faq"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique shared-cache name isolates tests; one connection keeps them on the same database
	dbName := "mem_" + uuid.New().String()
	testDB, err := gorm.Open(sqlite.Open("file:"+dbName+"?mode=memory&cache=shared&_busy_timeout=5000"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	err = testDB.AutoMigrate(
		&models.Employee{},
		&models.Session{},
		&models.HeadCategory{},
		&models.SubCategory{},
		&models.MicroCategory{},
		&models.MicroCategoryMeta{},
		&models.State{},
		&models.City{},
		&models.AuthUser{},
		&models.Vendor{},
		&models.Lead{},
		&models.LeadPurchase{},
		&models.PricingRule{},
		&models.AuditLog{},
	)
	require.NoError(t, err)
	return testDB
}

const consoleOrigin = "https://console.example.com"

type testEnv struct {
	db        *gorm.DB
	e         *echo.Echo
	h         *Handler
	cfg       *config.Config
	uploadDir string
}

func setupEcho(t *testing.T, opts ...func(*config.Config)) *testEnv {
	t.Helper()

	uploadDir := t.TempDir()
	cfg := &config.Config{
		Environment:    "test",
		AppURL:         "http://console.test",
		UploadDir:      uploadDir,
		EmailTestMode:  true,
		ChatRateLimit:  100,
		AllowedOrigins: []string{consoleOrigin},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	db := setupTestDB(t)
	rules, err := faq.LoadRules("")
	require.NoError(t, err)

	h := New(db, cfg, zap.NewNop(), services.NewLocalStorage(uploadDir), services.NewResendMailer(cfg, zap.NewNop()), faq.NewResponder(rules))
	t.Cleanup(h.Close)

	e := echo.New()
	ConfigureEcho(e, cfg, zap.NewNop())
	h.Register(e)

	return &testEnv{db: db, e: e, h: h, cfg: cfg, uploadDir: uploadDir}
}

// signIn creates an employee with role and returns a session token for it
func (env *testEnv) signIn(t *testing.T, role string) string {
	t.Helper()
	employee := &models.Employee{
		Name:     "Test " + role,
		Email:    role + "-" + uuid.New().String()[:8] + "@example.com",
		Password: "unused",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, env.db.Create(employee).Error)
	session, err := services.CreateSession(env.db, employee.ID, "127.0.0.1", "test-agent")
	require.NoError(t, err)
	return session.Token
}

func (env *testEnv) do(method, path, token, contentType string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) doJSON(t *testing.T, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	return env.do(method, path, token, echo.MIMEApplicationJSON, body)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createLead(t *testing.T, db *gorm.DB, name, status string, createdAt time.Time) *models.Lead {
	t.Helper()
	lead := &models.Lead{Name: name, Email: name + "@buyer.example.com", Status: status, Source: "web", CreatedAt: createdAt}
	require.NoError(t, db.Create(lead).Error)
	return lead
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, code int) {
	t.Helper()
	require.Equal(t, code, rec.Code, "body: %s", rec.Body.String())
}

func newRequest(method, path, body string) *http.Request {
	return httptest.NewRequest(method, path, strings.NewReader(body))
}

func serve(env *testEnv, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}
