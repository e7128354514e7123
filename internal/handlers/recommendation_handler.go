package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tusharsharma89566/Edu-Learn/internal/models"
	"github.com/tusharsharma89566/Edu-Learn/internal/services"
	"github.com/tusharsharma89566/Edu-Learn/internal/utils"
)

type RecommendationHandler struct {
	BaseHandler
	recommendationService services.RecommendationService
}

func NewRecommendationHandler(recommendationService services.RecommendationService, logger utils.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		BaseHandler:           NewBaseHandler(logger),
		recommendationService: recommendationService,
	}
}

// @Router /recommendations [get]
func (h *RecommendationHandler) List(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	recs, err := h.recommendationService.ListActive(c.Request.Context(), userID, h.parseIntQuery(c, "limit", 0))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: recs})
}

// Generate replaces the caller's active recommendations
// @Router /recommendations/generate [post]
func (h *RecommendationHandler) Generate(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Generating recommendations", "user_id", userID)

	recs, err := h.recommendationService.Generate(c.Request.Context(), userID, h.parseIntQuery(c, "limit", 0))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: recs})
}

// @Router /recommendations/preferences [get]
func (h *RecommendationHandler) GetPreferences(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	pref, err := h.recommendationService.GetPreferences(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, pref)
}

// @Router /recommendations/preferences [put]
func (h *RecommendationHandler) UpdatePreferences(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req services.UpdatePreferenceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	pref, err := h.recommendationService.UpdatePreferences(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, pref)
}

type markFunc func(ctx context.Context, id uint, userID string) (*models.UserRecommendation, error)

func (h *RecommendationHandler) mark(c *gin.Context, fn markFunc) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	rec, err := fn(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// @Router /recommendations/{id}/viewed [post]
func (h *RecommendationHandler) MarkViewed(c *gin.Context) {
	h.mark(c, h.recommendationService.MarkViewed)
}

// @Router /recommendations/{id}/clicked [post]
func (h *RecommendationHandler) MarkClicked(c *gin.Context) {
	h.mark(c, h.recommendationService.MarkClicked)
}

// @Router /recommendations/{id}/completed [post]
func (h *RecommendationHandler) MarkCompleted(c *gin.Context) {
	h.mark(c, h.recommendationService.MarkCompleted)
}

// @Router /recommendations/pattern/refresh [post]
func (h *RecommendationHandler) RefreshPattern(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	pattern, err := h.recommendationService.RefreshPattern(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, pattern)
}
