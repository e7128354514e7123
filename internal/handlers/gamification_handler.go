package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tusharsharma89566/Edu-Learn/internal/services"
	"github.com/tusharsharma89566/Edu-Learn/internal/utils"
)

type GamificationHandler struct {
	BaseHandler
	gamificationService services.GamificationService
}

func NewGamificationHandler(gamificationService services.GamificationService, logger utils.Logger) *GamificationHandler {
	return &GamificationHandler{
		BaseHandler:         NewBaseHandler(logger),
		gamificationService: gamificationService,
	}
}

// ===== BADGES =====

// @Router /gamification/badges [get]
func (h *GamificationHandler) ListBadges(c *gin.Context) {
	badges, err := h.gamificationService.ListBadges(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: badges})
}

// @Router /gamification/badges [post]
func (h *GamificationHandler) CreateBadge(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req services.CreateBadgeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	badge, err := h.gamificationService.CreateBadge(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, badge)
}

// @Router /gamification/badges/me [get]
func (h *GamificationHandler) MyBadges(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	badges, err := h.gamificationService.UserBadges(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: badges})
}

// ===== POINTS =====

// @Router /gamification/points [get]
func (h *GamificationHandler) GetPoints(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	points, err := h.gamificationService.GetPoints(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, points)
}

// AddPoints credits the caller, or another user when the caller is staff
// @Router /gamification/points/add [post]
func (h *GamificationHandler) AddPoints(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req services.AddPointsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.gamificationService.AddPoints(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ===== LEADERBOARDS =====

// @Router /gamification/leaderboards [get]
func (h *GamificationHandler) ListLeaderboards(c *gin.Context) {
	boards, err := h.gamificationService.ListLeaderboards(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: boards})
}

// @Router /gamification/leaderboards [post]
func (h *GamificationHandler) CreateLeaderboard(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req services.CreateLeaderboardRequest
	if !h.bindJSON(c, &req) {
		return
	}

	board, err := h.gamificationService.CreateLeaderboard(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, board)
}

// @Router /gamification/leaderboards/{id}/entries [get]
func (h *GamificationHandler) LeaderboardEntries(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	entries, err := h.gamificationService.LeaderboardEntries(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: entries})
}

// @Router /gamification/leaderboards/{id}/entries [post]
func (h *GamificationHandler) UpdateLeaderboardEntry(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req services.LeaderboardEntryRequest
	if !h.bindJSON(c, &req) {
		return
	}

	entries, err := h.gamificationService.UpdateLeaderboardEntry(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: entries})
}

// ===== ACHIEVEMENTS =====

// @Router /gamification/achievements [get]
func (h *GamificationHandler) ListAchievements(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	achievements, err := h.gamificationService.ListAchievements(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: achievements})
}

// @Router /gamification/achievements/update [post]
func (h *GamificationHandler) UpdateAchievement(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req services.UpdateAchievementRequest
	if !h.bindJSON(c, &req) {
		return
	}

	achievement, err := h.gamificationService.UpdateAchievement(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, achievement)
}

// ===== NOTIFICATIONS =====

// @Router /gamification/notifications [get]
func (h *GamificationHandler) ListNotifications(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	notifications, err := h.gamificationService.ListNotifications(c.Request.Context(), userID, c.Query("unread_only") == "true")
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: notifications})
}

// @Router /gamification/notifications/{id}/read [post]
func (h *GamificationHandler) MarkNotificationRead(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	if err := h.gamificationService.MarkNotificationRead(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Notification marked as read"})
}

// @Router /gamification/notifications/read-all [post]
func (h *GamificationHandler) MarkAllNotificationsRead(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	count, err := h.gamificationService.MarkAllNotificationsRead(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Notifications marked as read",
		Data:    gin.H{"updated": count},
	})
}

// @Router /gamification/stats [get]
func (h *GamificationHandler) Stats(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	stats, err := h.gamificationService.Stats(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
