package handlers

import (
	"net/http"
	"testing"

	"marketplace_console_go/models"
	"marketplace_console_go/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedPune(t *testing.T, env *testEnv) (models.State, models.City) {
	t.Helper()
	require.NoError(t, services.SeedGeography(env.db, zap.NewNop()))

	var state models.State
	require.NoError(t, env.db.First(&state, "code = ?", "MH").Error)
	var city models.City
	require.NoError(t, env.db.First(&city, "state_id = ? AND name = ?", state.ID, "Pune").Error)
	return state, city
}

func vendorPayload(state models.State, city models.City) map[string]string {
	return map[string]string{
		"company_name": "Acme Traders",
		"owner_name":   "Ravi Kumar",
		"email":        "ravi@acme.example.com",
		"phone":        "+91 98765 43210",
		"address":      "12, MG Road, Pune",
		"pincode":      "411001",
		"state_id":     state.ID,
		"city_id":      city.ID,
	}
}

func TestGeographyEndpoints(t *testing.T) {
	env := setupEcho(t)
	token := env.signIn(t, models.RoleEmployee)
	state, _ := seedPune(t, env)

	rec := env.do(http.MethodGet, "/geography/states", token, "", nil)
	assertStatus(t, rec, http.StatusOK)
	states := decode[[]models.State](t, rec)
	codes := make([]string, 0, len(states))
	for _, s := range states {
		codes = append(codes, s.Code)
	}
	assert.Contains(t, codes, "MH")

	rec = env.do(http.MethodGet, "/geography/states/"+state.ID+"/cities", token, "", nil)
	assertStatus(t, rec, http.StatusOK)
	cities := decode[[]models.City](t, rec)
	names := make([]string, 0, len(cities))
	for _, c := range cities {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "Pune")
}

func TestOnboardVendorEndpoint(t *testing.T) {
	env := setupEcho(t)
	token := env.signIn(t, models.RoleEmployee)
	state, city := seedPune(t, env)

	rec := env.doJSON(t, http.MethodPost, "/vendors", token, vendorPayload(state, city))
	assertStatus(t, rec, http.StatusCreated)

	result := decode[services.OnboardingResult](t, rec)
	require.NotNil(t, result.Vendor)
	assert.Equal(t, "Acme Traders", result.Vendor.CompanyName)
	assert.Equal(t, "Pune", result.Vendor.CityName)
	assert.Equal(t, result.UserID, result.Vendor.UserID)
	assert.Len(t, result.GeneratedPassword, 14)
	assert.NoError(t, services.ValidatePassword(result.GeneratedPassword))

	t.Run("DuplicateEmail", func(t *testing.T) {
		rec := env.doJSON(t, http.MethodPost, "/vendors", token, vendorPayload(state, city))
		assertStatus(t, rec, http.StatusBadRequest)
		assert.Contains(t, decode[ErrorResponse](t, rec).Fields, "email")
	})

	t.Run("InvalidFields", func(t *testing.T) {
		payload := vendorPayload(state, city)
		payload["email"] = "other@acme.example.com"
		payload["pincode"] = "12"
		payload["company_name"] = ""
		rec := env.doJSON(t, http.MethodPost, "/vendors", token, payload)
		assertStatus(t, rec, http.StatusBadRequest)
		fields := decode[ErrorResponse](t, rec).Fields
		assert.Contains(t, fields, "pincode")
		assert.Contains(t, fields, "company_name")
	})

	t.Run("CityOutsideState", func(t *testing.T) {
		var other models.State
		require.NoError(t, env.db.First(&other, "code = ?", "KA").Error)
		payload := vendorPayload(other, city)
		payload["email"] = "third@acme.example.com"
		rec := env.doJSON(t, http.MethodPost, "/vendors", token, payload)
		assertStatus(t, rec, http.StatusBadRequest)
		assert.Contains(t, decode[ErrorResponse](t, rec).Fields, "city_id")
	})

	t.Run("ListAndGet", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/vendors?q=acme", token, "", nil)
		assertStatus(t, rec, http.StatusOK)
		page := decode[struct {
			Items []models.Vendor `json:"items"`
			Total int64           `json:"total"`
			Page  int             `json:"page"`
			Limit int             `json:"limit"`
		}](t, rec)
		assert.EqualValues(t, 1, page.Total)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, defaultPageSize, page.Limit)
		require.Len(t, page.Items, 1)

		rec = env.do(http.MethodGet, "/vendors/"+page.Items[0].ID, token, "", nil)
		assertStatus(t, rec, http.StatusOK)
		assert.Equal(t, "ravi@acme.example.com", decode[models.Vendor](t, rec).Email)

		rec = env.do(http.MethodGet, "/vendors/missing", token, "", nil)
		assertStatus(t, rec, http.StatusNotFound)
	})
}
