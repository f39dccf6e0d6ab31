package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	require.NoError(t, Init("pt-BR"))

	tests := []struct {
		lang string
		want string
	}{
		{"pt-BR", "SEM RESPOSTA"},
		{"en", "NO ANSWER"},
		{"en-US,en;q=0.9", "NO ANSWER"},
		{"fr", "SEM RESPOSTA"},
	}
	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			ctx := WithLocalizer(context.Background(), NewLocalizer(tt.lang))
			assert.Equal(t, tt.want, T(ctx, "NoAnswer"))
		})
	}
}

func TestTranslateFallbacks(t *testing.T) {
	require.NoError(t, Init("pt-BR"))

	assert.Equal(t, "SEM RESPOSTA", T(context.Background(), "NoAnswer"))
	assert.Equal(t, "NoSuchMessage", T(context.Background(), "NoSuchMessage"))
}

func TestMiddleware(t *testing.T) {
	require.NoError(t, Init("pt-BR"))
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Middleware())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, T(c.Request.Context(), "NotFound"))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "Resource not found", w.Body.String())
}
