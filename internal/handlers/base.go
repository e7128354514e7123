package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tusharsharma89566/Edu-Learn/internal/services"
	"github.com/tusharsharma89566/Edu-Learn/internal/utils"
)

// ===== RESPONSES =====

type ErrorResponse struct {
	Error     string      `json:"error,omitempty"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Path      string      `json:"path,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse wraps plain slices so list endpoints share one shape
type ListResponse struct {
	Data interface{} `json:"data"`
}

// ===== BASE HANDLER =====

type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs through the request-scoped logger when one is attached
func (h BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.LoggerFromContext(c.Request.Context(), h.logger).Info(msg, args...)
}

func (h BaseHandler) abort(c *gin.Context, status int, message string, details interface{}) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		Path:      c.Request.URL.Path,
	})
}

// userID returns the authenticated user or writes a 401
func (h BaseHandler) userID(c *gin.Context) (string, bool) {
	userID := c.GetString("user_id")
	if userID == "" {
		h.abort(c, http.StatusUnauthorized, "User not authenticated", nil)
		return "", false
	}
	return userID, true
}

func (h BaseHandler) bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		h.abort(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return false
	}
	return true
}

func (h BaseHandler) parseIDParam(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		details := "must be a positive integer"
		if err != nil {
			details = err.Error()
		}
		h.abort(c, http.StatusBadRequest, "Invalid "+param, details)
		return 0, false
	}
	return uint(id), true
}

func (h BaseHandler) parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	value, err := strconv.Atoi(strings.TrimSpace(c.Query(param)))
	if err != nil {
		return defaultValue
	}
	return value
}

func (h BaseHandler) parseUintQuery(c *gin.Context, param string) *uint {
	value, err := strconv.ParseUint(strings.TrimSpace(c.Query(param)), 10, 32)
	if err != nil || value == 0 {
		return nil
	}
	id := uint(value)
	return &id
}

// handleServiceError maps service errors to HTTP responses
func (h BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationError *services.ValidationError
	if errors.As(err, &validationError) {
		h.abort(c, http.StatusBadRequest, "Validation failed", validationError.Errors)
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		h.abort(c, http.StatusForbidden, "Access denied", map[string]interface{}{
			"resource": permissionError.Resource,
			"action":   permissionError.Action,
			"reason":   permissionError.Reason,
		})
		return
	}

	switch {
	case isNotFound(err):
		h.abort(c, http.StatusNotFound, capitalize(err.Error()), nil)
	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrInvalidContentType),
		errors.Is(err, services.ErrInvalidReminderTime),
		errors.Is(err, services.ErrUnsupportedFileFormat),
		errors.Is(err, services.ErrEmptyMessage),
		errors.Is(err, services.ErrNoQuestionsAvailable):
		h.abort(c, http.StatusBadRequest, capitalize(err.Error()), nil)
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken),
		errors.Is(err, services.ErrUnauthorized):
		h.abort(c, http.StatusUnauthorized, capitalize(err.Error()), nil)
	case errors.Is(err, services.ErrForbidden),
		errors.Is(err, services.ErrNotEnrolled),
		errors.Is(err, services.ErrCourseInactive):
		h.abort(c, http.StatusForbidden, capitalize(err.Error()), nil)
	case errors.Is(err, services.ErrDuplicateUsername),
		errors.Is(err, services.ErrDuplicateEmail),
		errors.Is(err, services.ErrAlreadyEnrolled),
		errors.Is(err, services.ErrCourseFull),
		errors.Is(err, services.ErrMaxAttemptsReached),
		errors.Is(err, services.ErrAttemptAlreadySubmitted),
		errors.Is(err, services.ErrSubmissionGraded),
		errors.Is(err, services.ErrAssessmentNotInProgress),
		errors.Is(err, services.ErrAssessmentNotCompleted),
		errors.Is(err, services.ErrQuestionAlreadyAnswered):
		h.abort(c, http.StatusConflict, capitalize(err.Error()), nil)
	case errors.Is(err, services.ErrNoGradingModel):
		h.abort(c, http.StatusUnprocessableEntity, capitalize(err.Error()), nil)
	default:
		utils.LoggerFromContext(c.Request.Context(), h.logger).Error("Unhandled service error", "error", err, "path", c.Request.URL.Path)
		h.abort(c, http.StatusInternalServerError, "Internal server error", nil)
	}
}

var notFoundErrors = []error{
	services.ErrUserNotFound,
	services.ErrCourseNotFound,
	services.ErrTopicNotFound,
	services.ErrMaterialNotFound,
	services.ErrAssignmentNotFound,
	services.ErrSubmissionNotFound,
	services.ErrQuizNotFound,
	services.ErrAttemptNotFound,
	services.ErrQuestionNotFound,
	services.ErrAssessmentNotFound,
	services.ErrBadgeNotFound,
	services.ErrLeaderboardNotFound,
	services.ErrSessionNotFound,
	services.ErrActivityNotFound,
	services.ErrGradingResultNotFound,
	services.ErrResponseNotFound,
	services.ErrNotificationNotFound,
	services.ErrReminderNotFound,
	services.ErrFAQNotFound,
	services.ErrRecommendationNotFound,
	services.ErrGradingModelNotFound,
}

func isNotFound(err error) bool {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
