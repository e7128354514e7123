package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tusharsharma89566/Edu-Learn/internal/services"
	"github.com/tusharsharma89566/Edu-Learn/internal/utils"
)

type GradingHandler struct {
	BaseHandler
	gradingService services.GradingService
}

func NewGradingHandler(gradingService services.GradingService, logger utils.Logger) *GradingHandler {
	return &GradingHandler{
		BaseHandler:    NewBaseHandler(logger),
		gradingService: gradingService,
	}
}

// @Router /grading/models [get]
func (h *GradingHandler) ListModels(c *gin.Context) {
	gradingModels, err := h.gradingService.ListModels(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: gradingModels})
}

// @Router /grading/models [post]
func (h *GradingHandler) CreateModel(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req services.CreateGradingModelRequest
	if !h.bindJSON(c, &req) {
		return
	}

	model, err := h.gradingService.CreateModel(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, model)
}

// @Router /grading/criteria [post]
func (h *GradingHandler) CreateCriteria(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req services.CreateGradingCriteriaRequest
	if !h.bindJSON(c, &req) {
		return
	}

	criteria, err := h.gradingService.CreateCriteria(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, criteria)
}

// @Router /grading/criteria/{question_id} [get]
func (h *GradingHandler) ListCriteria(c *gin.Context) {
	questionID, ok := h.parseIDParam(c, "question_id")
	if !ok {
		return
	}

	criteria, err := h.gradingService.ListCriteria(c.Request.Context(), questionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: criteria})
}

// Grade auto-grades one assessment response
// @Router /grading/grade [post]
func (h *GradingHandler) Grade(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req services.GradeResponseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Grading response", "response_id", req.ResponseID)

	result, err := h.gradingService.Grade(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Router /grading/responses/{id} [get]
func (h *GradingHandler) GetResult(c *gin.Context) {
	responseID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	result, err := h.gradingService.GetResult(c.Request.Context(), responseID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Router /grading/review [post]
func (h *GradingHandler) Review(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req services.HumanReviewRequest
	if !h.bindJSON(c, &req) {
		return
	}

	review, err := h.gradingService.Review(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, review)
}

// @Router /grading/pending-reviews [get]
func (h *GradingHandler) PendingReviews(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	results, err := h.gradingService.PendingReviews(c.Request.Context(), userID, h.parseIntQuery(c, "limit", 50))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: results})
}

// @Router /grading/analytics [get]
func (h *GradingHandler) Analytics(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	stats, err := h.gradingService.Analytics(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
