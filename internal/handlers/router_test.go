package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tusharsharma89566/Edu-Learn/internal/config"
	"github.com/tusharsharma89566/Edu-Learn/internal/events"
	"github.com/tusharsharma89566/Edu-Learn/internal/repositories/postgres"
	"github.com/tusharsharma89566/Edu-Learn/internal/services"
	"github.com/tusharsharma89566/Edu-Learn/internal/validator"
	"github.com/tusharsharma89566/Edu-Learn/pkg"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	db, err := pkg.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		Environment: "test",
		Auth: config.AuthConfig{
			JWTSecret:  "router-secret",
			Issuer:     "edulearn-test",
			TokenTTL:   time.Hour,
			BcryptCost: 4,
		},
	}
	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db})
	sm := services.NewServiceManager(db, repo, slogger, validator.New(), cfg, events.NewMockEventPublisher(slogger), nil)
	require.NoError(t, sm.Initialize(context.Background()))

	router := gin.New()
	SetupMiddleware(router, discardLogger(), cfg)
	NewHandlerManager(sm, discardLogger(), false).SetupRoutes(router)
	return router
}

func doJSON(router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func registerAndLogin(t *testing.T, router *gin.Engine, username, role string) string {
	t.Helper()
	email := username + "@example.com"
	w := doJSON(router, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": "Passw0rd!",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(router, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": "Passw0rd!",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp services.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, email, resp.User.Email)
	return resp.Token
}

func TestRouter_PublicAndAuth(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"healthy"`)
	assert.Contains(t, w.Body.String(), `"cache_enabled":false`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))

	w = doJSON(router, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/courses", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"unauthorized"`)

	w = doJSON(router, http.MethodGet, "/api/v1/courses", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "Passw0rd!",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := registerAndLogin(t, router, "student1", "student")

	w = doJSON(router, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "student1",
		"email":    "student1@example.com",
		"password": "Passw0rd!",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "student1@example.com")
}

func TestRouter_RoleGates(t *testing.T) {
	router := newTestRouter(t)
	student := registerAndLogin(t, router, "student2", "student")
	teacher := registerAndLogin(t, router, "teacher2", "teacher")

	w := doJSON(router, http.MethodPost, "/api/v1/courses", student, map[string]string{"title": "Go"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/admin/analytics", student, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = doJSON(router, http.MethodGet, "/api/v1/admin/analytics", teacher, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = doJSON(router, http.MethodDelete, "/api/v1/admin/cache", teacher, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(router, http.MethodPost, "/api/v1/courses", teacher, map[string]string{"title": "Go Basics", "level": "beginner"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(router, http.MethodGet, "/api/v1/courses/abc", student, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(router, http.MethodGet, "/api/v1/courses/9999", student, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_StudentEndpoints(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router, "student3", "student")

	w := doJSON(router, http.MethodPost, "/api/v1/chat/send", token, map[string]string{"message": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/gamification/badges", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), `{"data":`), w.Body.String())

	w = doJSON(router, http.MethodGet, "/api/v1/gamification/points", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
