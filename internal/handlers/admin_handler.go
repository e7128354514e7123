package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tusharsharma89566/Edu-Learn/internal/services"
	"github.com/tusharsharma89566/Edu-Learn/internal/utils"
)

type AdminHandler struct {
	BaseHandler
	adminService services.AdminService
}

func NewAdminHandler(adminService services.AdminService, logger utils.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler:  NewBaseHandler(logger),
		adminService: adminService,
	}
}

// ===== MODERATION =====

// Pending lists unreviewed content of ?type=course|material|assignment
// @Router /admin/moderation/pending [get]
func (h *AdminHandler) Pending(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	items, err := h.adminService.Pending(c.Request.Context(), c.DefaultQuery("type", "course"), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: items})
}

// @Router /admin/moderation/reported [get]
func (h *AdminHandler) Reported(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	items, err := h.adminService.Reported(c.Request.Context(), c.DefaultQuery("type", "course"), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: items})
}

// moderationTarget reads :type, :id, the caller and an optional reason body
func (h *AdminHandler) moderationTarget(c *gin.Context) (string, uint, string, string, bool) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return "", 0, "", "", false
	}
	userID, ok := h.userID(c)
	if !ok {
		return "", 0, "", "", false
	}
	var req services.ModerationActionRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return "", 0, "", "", false
	}
	return c.Param("type"), id, userID, req.Reason, true
}

// @Router /admin/moderation/{type}/{id}/approve [post]
func (h *AdminHandler) Approve(c *gin.Context) {
	contentType, id, userID, _, ok := h.moderationTarget(c)
	if !ok {
		return
	}

	if err := h.adminService.Approve(c.Request.Context(), contentType, id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Content approved"})
}

// @Router /admin/moderation/{type}/{id}/reject [post]
func (h *AdminHandler) Reject(c *gin.Context) {
	contentType, id, userID, reason, ok := h.moderationTarget(c)
	if !ok {
		return
	}

	if err := h.adminService.Reject(c.Request.Context(), contentType, id, reason, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Content rejected"})
}

// @Router /admin/moderation/{type}/{id}/resolve [post]
func (h *AdminHandler) ResolveReport(c *gin.Context) {
	contentType, id, userID, resolution, ok := h.moderationTarget(c)
	if !ok {
		return
	}

	if err := h.adminService.ResolveReport(c.Request.Context(), contentType, id, resolution, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Report resolved"})
}

// @Router /admin/moderation/{type}/{id}/remove [post]
func (h *AdminHandler) Remove(c *gin.Context) {
	contentType, id, userID, reason, ok := h.moderationTarget(c)
	if !ok {
		return
	}

	if err := h.adminService.Remove(c.Request.Context(), contentType, id, reason, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Content removed"})
}

// ===== USERS =====

// @Router /admin/users/bulk-upload [post]
func (h *AdminHandler) BulkUploadUsers(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.abort(c, http.StatusBadRequest, "File is required", err.Error())
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		h.abort(c, http.StatusBadRequest, "Unable to read uploaded file", err.Error())
		return
	}
	defer file.Close()

	h.LogRequest(c, "Bulk uploading users", "filename", fileHeader.Filename)

	result, err := h.adminService.BulkUploadUsers(c.Request.Context(), fileHeader.Filename, file, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ===== ANALYTICS =====

// @Router /admin/analytics [get]
func (h *AdminHandler) SystemAnalytics(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	analytics, err := h.adminService.SystemAnalytics(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, analytics)
}

// @Router /admin/analytics/export [get]
func (h *AdminHandler) ExportAnalytics(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.adminService.ExportAnalytics(c.Request.Context(), userID, &buf); err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("system_analytics_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ===== CACHE =====

// @Router /admin/cache [get]
func (h *AdminHandler) CacheStats(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	stats, err := h.adminService.CacheStats(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// @Router /admin/cache [delete]
func (h *AdminHandler) ClearCache(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	if err := h.adminService.ClearCache(c.Request.Context(), userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cache cleared"})
}
