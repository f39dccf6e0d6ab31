package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pracas_backend/internal/access"
	"pracas_backend/internal/config"
	"pracas_backend/internal/model"
	"pracas_backend/internal/repository"
	"pracas_backend/internal/util"
	"pracas_backend/pkg/database"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminPassword = "Praca#2024"

func newTestApp(t *testing.T) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Database:  config.DatabaseConfig{Driver: "sqlite", Path: ":memory:", LogLevel: "silent"},
		JWT:       config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour},
		Storage:   config.StorageConfig{Type: "local", LocalPath: t.TempDir()},
		RateLimit: config.RateLimitConfig{MaxRequests: 0},
		Invite:    config.InviteConfig{ExpireDays: 30},
	}
	db, spatial, err := OpenDatabase(cfg)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, spatial))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	_, err = NewAuthService(db, cfg).CreateAdmin("admin@pracas.dev", "Admin", adminPassword)
	require.NoError(t, err)

	a := &App{Config: cfg, DB: db}
	repos := a.initRepositories(db, spatial, nil, cfg)
	controllers := a.initControllers(a.initServices(repos, cfg), db)
	a.Router = gin.New()
	a.registerRoutes(a.Router, controllers, repos, cfg)
	return a
}

func (a *App) call(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, util.Response) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	var resp util.Response
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func (a *App) login(t *testing.T, email, password string) string {
	t.Helper()
	w, resp := a.call(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return resp.Data.(map[string]interface{})["token"].(string)
}

func dataID(t *testing.T, resp util.Response) uint {
	t.Helper()
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	return uint(data["id"].(float64))
}

func TestPublicRoutes(t *testing.T) {
	a := newTestApp(t)

	w, _ := a.call(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = a.call(t, http.MethodGet, "/api/locations", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = a.call(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "admin@pracas.dev", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := a.login(t, "admin@pracas.dev", adminPassword)
	w, resp := a.call(t, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin@pracas.dev", resp.Data.(map[string]interface{})["email"])
}

func TestRoleGates(t *testing.T) {
	a := newTestApp(t)

	viewer := model.User{Email: "viewer@pracas.dev", Name: "Viewer", Roles: []access.Role{access.AssessmentViewer}, Active: true}
	require.NoError(t, repository.NewUserRepository(a.DB).Create(&viewer))
	token, err := util.GenerateJWT(viewer.Principal(), a.Config.JWT.Secret, time.Hour)
	require.NoError(t, err)

	w, _ := a.call(t, http.MethodGet, "/api/locations", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = a.call(t, http.MethodGet, "/api/assessments", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = a.call(t, http.MethodPost, "/api/invites", token, gin.H{"email": "x@pracas.dev"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLocationTallyAndExport(t *testing.T) {
	a := newTestApp(t)
	token := a.login(t, "admin@pracas.dev", adminPassword)

	w, resp := a.call(t, http.MethodPost, "/api/locations", token, gin.H{"name": "Praça XV", "firstStreet": "Rua A"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	locationID := dataID(t, resp)

	w, _ = a.call(t, http.MethodPut, fmt.Sprintf("/api/locations/%d/polygon", locationID), token,
		gin.H{"wkt": "POLYGON((0 0, 0 1, 1 1, 1 0, 0 0))"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = a.call(t, http.MethodPut, fmt.Sprintf("/api/locations/%d/polygon", locationID), token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp = a.call(t, http.MethodPost, fmt.Sprintf("/api/locations/%d/tallies", locationID), token, gin.H{
		"observer": "Ana", "startDate": "2024-05-01T10:00:00Z", "weatherCondition": "SUNNY",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	tallyID := dataID(t, resp)

	person := gin.H{"ageGroup": "ADULT", "gender": "FEMALE", "activity": "WALKING", "quantity": 2}
	w, resp = a.call(t, http.MethodPost, fmt.Sprintf("/api/locations/%d/tallies/%d/people", locationID, tallyID), token, person)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 2, resp.Data.(map[string]interface{})["total"])

	w, _ = a.call(t, http.MethodPost, fmt.Sprintf("/api/locations/%d/tallies/%d/people", locationID+100, tallyID), token, person)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = a.call(t, http.MethodPost, "/api/export/csv", token, gin.H{
		"locations": []gin.H{{"id": locationID, "tallyIds": []uint{tallyID}, "registrationInfo": true}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), util.MimeCSV))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Body.String(), "Praça XV")
}
