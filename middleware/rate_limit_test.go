package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRateLimiter(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{
		Requests: 10,
		Window:   time.Minute,
	})
	defer rl.Stop()

	assert.NotNil(t, rl)
	assert.Equal(t, 10, rl.config.Requests)
	assert.Equal(t, time.Minute, rl.config.Window)
	assert.NotNil(t, rl.config.KeyFunc)
	assert.Equal(t, "Too many requests. Please try again later.", rl.config.Message)
}

func TestRateLimiterMiddleware(t *testing.T) {
	e := echo.New()

	t.Run("WithinLimit", func(t *testing.T) {
		rl := NewRateLimiter(RateLimitConfig{
			Requests: 2,
			Window:   time.Second,
		})
		defer rl.Stop()

		handler := rl.Middleware()(func(c echo.Context) error {
			return c.String(http.StatusOK, "success")
		})

		for i := 0; i < 2; i++ {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			assert.NoError(t, handler(c))
			assert.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("ExceededLimit", func(t *testing.T) {
		rl := NewRateLimiter(RateLimitConfig{
			Requests: 1,
			Window:   time.Minute,
		})
		defer rl.Stop()

		handler := rl.Middleware()(func(c echo.Context) error {
			return c.String(http.StatusOK, "success")
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		assert.NoError(t, handler(e.NewContext(req, rec)))

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		rec = httptest.NewRecorder()
		err := handler(e.NewContext(req, rec))

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusTooManyRequests, he.Code)
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	})

	t.Run("SeparateKeys", func(t *testing.T) {
		rl := NewRateLimiter(RateLimitConfig{
			Requests: 1,
			Window:   time.Minute,
			KeyFunc: func(c echo.Context) string {
				return c.Request().Header.Get("X-Client")
			},
		})
		defer rl.Stop()

		handler := rl.Middleware()(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})

		for _, client := range []string{"a", "b"} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Client", client)
			assert.NoError(t, handler(e.NewContext(req, httptest.NewRecorder())))
		}
	})
}

func TestRateLimiterWindowResets(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Requests: 1, Window: 20 * time.Millisecond})
	defer rl.Stop()

	ok, _ := rl.Allow("ip")
	assert.True(t, ok)
	ok, wait := rl.Allow("ip")
	assert.False(t, ok)
	assert.Greater(t, wait, time.Duration(0))

	time.Sleep(30 * time.Millisecond)
	ok, _ = rl.Allow("ip")
	assert.True(t, ok)
}

func TestChatRateLimiterDefault(t *testing.T) {
	rl := NewChatRateLimiter(0)
	defer rl.Stop()
	assert.Equal(t, 30, rl.config.Requests)
}
