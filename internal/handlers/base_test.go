package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tusharsharma89566/Edu-Learn/internal/services"
	"github.com/tusharsharma89566/Edu-Learn/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func serviceErrorResponse(t *testing.T, err error) (int, ErrorResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/things", nil)

	NewBaseHandler(discardLogger()).handleServiceError(c, err)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", services.NewValidationError("title", "is required", ""), http.StatusBadRequest},
		{"permission", services.NewPermissionError("u1", 3, "course", "update", "not owner"), http.StatusForbidden},
		{"wrapped not found", fmt.Errorf("loading: %w", services.ErrCourseNotFound), http.StatusNotFound},
		{"reminder time", services.ErrInvalidReminderTime, http.StatusBadRequest},
		{"credentials", services.ErrInvalidCredentials, http.StatusUnauthorized},
		{"not enrolled", services.ErrNotEnrolled, http.StatusForbidden},
		{"duplicate answer", services.ErrQuestionAlreadyAnswered, http.StatusConflict},
		{"no grading model", services.ErrNoGradingModel, http.StatusUnprocessableEntity},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := serviceErrorResponse(t, tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, http.StatusText(tt.status), body.Error)
			assert.Equal(t, "/api/v1/things", body.Path)
		})
	}

	_, body := serviceErrorResponse(t, services.ErrCourseNotFound)
	assert.Equal(t, "Course not found", body.Message)

	_, body = serviceErrorResponse(t, errors.New("secret internals"))
	assert.Equal(t, "Internal server error", body.Message)

	_, body = serviceErrorResponse(t, services.NewPermissionError("u1", 3, "course", "update", "not owner"))
	details, ok := body.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "course", details["resource"])
	assert.Equal(t, "not owner", details["reason"])
}

func TestBaseHandler_Params(t *testing.T) {
	h := NewBaseHandler(discardLogger())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x?page=3&course_id=0&topic_id=7&size=abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "42"}}

	id, ok := h.parseIDParam(c, "id")
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)
	assert.Equal(t, 3, h.parseIntQuery(c, "page", 1))
	assert.Equal(t, 20, h.parseIntQuery(c, "size", 20))
	assert.Nil(t, h.parseUintQuery(c, "course_id"))
	require.NotNil(t, h.parseUintQuery(c, "topic_id"))
	assert.Equal(t, uint(7), *h.parseUintQuery(c, "topic_id"))

	_, ok = h.userID(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	c.Params = gin.Params{{Key: "id", Value: "0"}}
	_, ok = h.parseIDParam(c, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
