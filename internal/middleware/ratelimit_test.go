package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(mw)
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return router
}

func get(router *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimit_AllowsUnderLimit(t *testing.T) {
	router := newRouter(NewRateLimiter(3).RateLimit())

	for i := 0; i < 3; i++ {
		w := get(router, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimit_BlocksOverLimit(t *testing.T) {
	router := newRouter(NewRateLimiter(2).RateLimit())

	get(router, nil)
	get(router, nil)
	w := get(router, nil)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestSecurityHeaders(t *testing.T) {
	router := newRouter(SecurityHeaders())

	w := get(router, nil)

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	router := newRouter(RequestID())

	w := get(router, nil)

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRequestID_PreservesProvided(t *testing.T) {
	router := newRouter(RequestID())

	w := get(router, map[string]string{"X-Request-ID": "abc123"})

	assert.Equal(t, "abc123", w.Header().Get("X-Request-ID"))
}

func TestPasscodeAuth(t *testing.T) {
	router := newRouter(PasscodeAuth("hunter2"))

	w := get(router, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = get(router, map[string]string{"X-Passcode": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = get(router, map[string]string{"X-Passcode": "hunter2"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPasscodeAuth_DisabledWhenUnset(t *testing.T) {
	router := newRouter(PasscodeAuth(""))

	w := get(router, nil)

	assert.Equal(t, http.StatusOK, w.Code)
}
