package handlers

import (
	"net/http"
	"strings"
	"testing"

	"marketplace_console_go/middleware"
	"marketplace_console_go/models"
	"marketplace_console_go/services"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginFlow(t *testing.T) {
	env := setupEcho(t)
	_, err := services.CreateEmployee(env.db, "Asha Rao", "asha@example.com", "Str0ng!Passw0rd", models.RoleSales)
	require.NoError(t, err)

	rec := env.doJSON(t, http.MethodPost, "/login", "", map[string]string{"email": "ASHA@example.com ", "password": "Str0ng!Passw0rd"})
	assertStatus(t, rec, http.StatusOK)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), middleware.SessionCookieName+"=")

	login := decode[loginResponse](t, rec)
	require.NotEmpty(t, login.Token)
	assert.Equal(t, "asha@example.com", login.Employee.Email)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = env.do(http.MethodGet, "/me", login.Token, "", nil)
	assertStatus(t, rec, http.StatusOK)
	me := decode[models.Employee](t, rec)
	assert.Equal(t, "Asha Rao", me.Name)

	rec = env.do(http.MethodPost, "/logout", login.Token, "", nil)
	assertStatus(t, rec, http.StatusNoContent)

	rec = env.do(http.MethodGet, "/me", login.Token, "", nil)
	assertStatus(t, rec, http.StatusUnauthorized)

	var actions []string
	require.NoError(t, env.db.Model(&models.AuditLog{}).Order("created_at").Pluck("action", &actions).Error)
	assert.Equal(t, []string{"LOGIN", "LOGOUT"}, actions)
}

func TestLoginFailures(t *testing.T) {
	env := setupEcho(t)
	_, err := services.CreateEmployee(env.db, "Asha Rao", "asha@example.com", "Str0ng!Passw0rd", models.RoleSales)
	require.NoError(t, err)

	t.Run("WrongPassword", func(t *testing.T) {
		rec := env.doJSON(t, http.MethodPost, "/login", "", map[string]string{"email": "asha@example.com", "password": "nope"})
		assertStatus(t, rec, http.StatusUnauthorized)
		assert.Equal(t, services.ErrInvalidCredentials.Error(), decode[ErrorResponse](t, rec).Error)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		rec := env.doJSON(t, http.MethodPost, "/login", "", map[string]string{"email": "ghost@example.com", "password": "nope"})
		assertStatus(t, rec, http.StatusUnauthorized)
	})

	t.Run("MissingFields", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/login", "", echo.MIMEApplicationForm, strings.NewReader("email=asha%40example.com"))
		assertStatus(t, rec, http.StatusBadRequest)
	})
}

func TestMeRequiresSession(t *testing.T) {
	env := setupEcho(t)

	rec := env.do(http.MethodGet, "/me", "", "", nil)
	assertStatus(t, rec, http.StatusUnauthorized)
	assert.Equal(t, "Not authenticated", decode[ErrorResponse](t, rec).Error)

	rec = env.do(http.MethodGet, "/me", "not-a-token", "", nil)
	assertStatus(t, rec, http.StatusUnauthorized)
}

func TestHealth(t *testing.T) {
	env := setupEcho(t)
	rec := env.do(http.MethodGet, "/health", "", "", nil)
	assertStatus(t, rec, http.StatusOK)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
