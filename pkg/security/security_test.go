package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func get(r http.Handler, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORS(t *testing.T) {
	origins := NewOrigins([]string{"https://pracas.example"})
	r := newRouter(CORS(origins))

	w := get(r, http.MethodGet, "https://pracas.example")
	assert.Equal(t, "https://pracas.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	w = get(r, http.MethodGet, "https://evil.example")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	t.Run("preflight", func(t *testing.T) {
		w := get(r, http.MethodOptions, "https://pracas.example")
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("reloaded whitelist", func(t *testing.T) {
		origins.Set([]string{"https://evil.example"})
		assert.Equal(t, "https://evil.example", get(r, http.MethodGet, "https://evil.example").Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, get(r, http.MethodGet, "https://pracas.example").Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard", func(t *testing.T) {
		assert.True(t, NewOrigins([]string{"*"}).Allowed("http://anything"))
	})
}

func TestSecure(t *testing.T) {
	w := get(newRouter(Secure()), http.MethodGet, "")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestRateLimiter(t *testing.T) {
	r := newRouter(RateLimiter(2, time.Hour))

	assert.Equal(t, http.StatusOK, get(r, http.MethodGet, "").Code)
	assert.Equal(t, http.StatusOK, get(r, http.MethodGet, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, http.MethodGet, "").Code)

	t.Run("disabled", func(t *testing.T) {
		r := newRouter(RateLimiter(0, time.Minute))
		for i := 0; i < 5; i++ {
			assert.Equal(t, http.StatusOK, get(r, http.MethodGet, "").Code)
		}
	})
}

func TestLimiterStoreSweep(t *testing.T) {
	now := time.Now()
	s := &limiterStore{visitors: make(map[string]*visitor), limit: 1, burst: 1}
	s.get("a", now.Add(-time.Hour))
	s.get("b", now)

	s.sweep(now, time.Minute)
	assert.NotContains(t, s.visitors, "a")
	assert.Contains(t, s.visitors, "b")
}
