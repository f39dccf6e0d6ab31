package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pracas_backend/internal/access"
	"pracas_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers map[uint]bool

func (f fakeUsers) IsActive(id uint) (bool, error) { return f[id], nil }

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.String(http.StatusOK, "%d", util.GetPrincipal(c).UserID)
	})
	r.GET("/", handlers...)
	return r
}

func do(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func token(t *testing.T, id uint, roles ...access.Role) string {
	t.Helper()
	tok, err := util.GenerateJWT(access.Principal{UserID: id, Roles: roles}, "s3cret", time.Hour)
	require.NoError(t, err)
	return tok
}

func TestAuthMiddleware(t *testing.T) {
	users := fakeUsers{1: true, 2: false}
	r := newRouter(AuthMiddleware("s3cret", users))

	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, token(t, 2)).Code)

	w := do(r, token(t, 1))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Body.String())
}

func TestRequireRoles(t *testing.T) {
	r := newRouter(AuthMiddleware("s3cret", nil), RequireRoles(access.ParkManager))

	assert.Equal(t, http.StatusForbidden, do(r, token(t, 1, access.ParkViewer)).Code)
	assert.Equal(t, http.StatusOK, do(r, token(t, 1, access.ParkManager)).Code)
}

func TestRequireGroups(t *testing.T) {
	r := newRouter(AuthMiddleware("s3cret", nil), RequireGroups(access.GroupTally))

	assert.Equal(t, http.StatusForbidden, do(r, token(t, 1, access.FormManager)).Code)
	assert.Equal(t, http.StatusOK, do(r, token(t, 1, access.TallyViewer)).Code)
}

func TestRequireWithoutAuth(t *testing.T) {
	r := newRouter(RequireRoles(access.ParkManager))
	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
}
