package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tusharsharma89566/Edu-Learn/internal/models"
	"github.com/tusharsharma89566/Edu-Learn/internal/services"
	"github.com/tusharsharma89566/Edu-Learn/internal/utils"
)

type ProgressHandler struct {
	BaseHandler
	progressService services.ProgressService
}

func NewProgressHandler(progressService services.ProgressService, logger utils.Logger) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler:     NewBaseHandler(logger),
		progressService: progressService,
	}
}

// ===== SESSIONS =====

// @Router /progress/sessions/start [post]
func (h *ProgressHandler) StartSession(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req services.StartSessionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	session, err := h.progressService.StartSession(c.Request.Context(), &req, userID, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// @Router /progress/sessions/{id}/end [post]
func (h *ProgressHandler) EndSession(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	session, err := h.progressService.EndSession(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// ActiveSession returns the open session, or null when there is none
// @Router /progress/sessions/active [get]
func (h *ProgressHandler) ActiveSession(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	session, err := h.progressService.ActiveSession(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

// ===== ACTIVITIES =====

// @Router /progress/activities/start [post]
func (h *ProgressHandler) StartActivity(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req services.StartActivityRequest
	if !h.bindJSON(c, &req) {
		return
	}

	activity, err := h.progressService.StartActivity(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, activity)
}

// @Router /progress/activities/{id}/update [put]
func (h *ProgressHandler) UpdateActivity(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req services.UpdateActivityRequest
	if !h.bindJSON(c, &req) {
		return
	}

	activity, err := h.progressService.UpdateActivity(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, activity)
}

// CompleteActivity accepts an empty body
// @Router /progress/activities/{id}/complete [post]
func (h *ProgressHandler) CompleteActivity(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req services.CompleteActivityRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}

	activity, err := h.progressService.CompleteActivity(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, activity)
}

// ===== PROGRESS =====

// @Router /progress/course/{id} [get]
func (h *ProgressHandler) CourseProgress(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	progress, err := h.progressService.CourseProgress(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// @Router /progress/topic/{id} [get]
func (h *ProgressHandler) TopicProgress(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	progress, err := h.progressService.TopicProgress(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// @Router /progress/overview [get]
func (h *ProgressHandler) Overview(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	overview, err := h.progressService.Overview(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}

// @Router /progress/analytics/{period} [get]
func (h *ProgressHandler) Analytics(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	analytics, err := h.progressService.Analytics(c.Request.Context(), userID, models.PeriodType(c.Param("period")))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, analytics)
}
