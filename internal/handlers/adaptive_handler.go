package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tusharsharma89566/Edu-Learn/internal/models"
	"github.com/tusharsharma89566/Edu-Learn/internal/repositories"
	"github.com/tusharsharma89566/Edu-Learn/internal/services"
	"github.com/tusharsharma89566/Edu-Learn/internal/utils"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxUploadBytes  = 10 << 20
)

type AdaptiveHandler struct {
	BaseHandler
	adaptiveService services.AdaptiveService
}

func NewAdaptiveHandler(adaptiveService services.AdaptiveService, logger utils.Logger) *AdaptiveHandler {
	return &AdaptiveHandler{
		BaseHandler:     NewBaseHandler(logger),
		adaptiveService: adaptiveService,
	}
}

// ===== QUESTION BANK =====

func (h *AdaptiveHandler) parseQuestionFilters(c *gin.Context) repositories.AdaptiveQuestionFilters {
	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 50)
	if page < 1 {
		page = 1
	}

	filters := repositories.AdaptiveQuestionFilters{
		CourseID: h.parseUintQuery(c, "course_id"),
		TopicID:  h.parseUintQuery(c, "topic_id"),
		Limit:    size,
		Offset:   (page - 1) * size,
	}
	if difficulty := c.Query("difficulty"); difficulty != "" {
		level := models.DifficultyLevel(difficulty)
		filters.Difficulty = &level
	}
	if questionType := c.Query("question_type"); questionType != "" {
		qt := models.QuestionType(questionType)
		filters.QuestionType = &qt
	}
	return filters
}

// @Router /adaptive/questions [get]
func (h *AdaptiveHandler) ListQuestions(c *gin.Context) {
	questions, err := h.adaptiveService.ListQuestions(c.Request.Context(), h.parseQuestionFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: questions})
}

// @Router /adaptive/questions [post]
func (h *AdaptiveHandler) CreateQuestion(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req services.CreateAdaptiveQuestionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	question, err := h.adaptiveService.CreateQuestion(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

// ImportQuestions loads questions from an uploaded .csv or .xlsx file
// @Router /adaptive/questions/import [post]
func (h *AdaptiveHandler) ImportQuestions(c *gin.Context) {
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

	h.LogRequest(c, "Importing adaptive questions", "filename", fileHeader.Filename, "size", fileHeader.Size)

	result, err := h.adaptiveService.ImportQuestions(c.Request.Context(), fileHeader.Filename, file, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Router /adaptive/questions/export [get]
func (h *AdaptiveHandler) ExportQuestions(c *gin.Context) {
	filters := h.parseQuestionFilters(c)
	filters.Limit, filters.Offset = 0, 0

	var buf bytes.Buffer
	if _, err := h.adaptiveService.ExportQuestions(c.Request.Context(), filters, &buf); err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("adaptive_questions_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ===== ASSESSMENTS =====

// @Router /adaptive/assessments [get]
func (h *AdaptiveHandler) ListAssessments(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 10)
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}
	filters := repositories.AssessmentFilters{
		CourseID: h.parseUintQuery(c, "course_id"),
		Limit:    size,
		Offset:   (page - 1) * size,
	}
	if status := c.Query("status"); status != "" {
		assessmentStatus := models.AssessmentStatus(status)
		filters.Status = &assessmentStatus
	}

	resp, err := h.adaptiveService.ListAssessments(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Router /adaptive/assessments [post]
func (h *AdaptiveHandler) CreateAssessment(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req services.CreateAdaptiveAssessmentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	assessment, err := h.adaptiveService.CreateAssessment(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, assessment)
}

// @Router /adaptive/assessments/{id}/start [post]
func (h *AdaptiveHandler) Start(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	resp, err := h.adaptiveService.Start(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Router /adaptive/assessments/{id}/question [get]
func (h *AdaptiveHandler) CurrentQuestion(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	resp, err := h.adaptiveService.CurrentQuestion(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Router /adaptive/assessments/{id}/answer [post]
func (h *AdaptiveHandler) SubmitAnswer(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req services.SubmitAdaptiveAnswerRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.adaptiveService.SubmitAnswer(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Router /adaptive/assessments/{id}/abandon [post]
func (h *AdaptiveHandler) Abandon(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	assessment, err := h.adaptiveService.Abandon(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assessment)
}

// @Router /adaptive/assessments/{id}/results [get]
func (h *AdaptiveHandler) Results(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	resp, err := h.adaptiveService.Results(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ===== ANALYTICS =====

// @Router /adaptive/analytics [get]
func (h *AdaptiveHandler) GetAnalytics(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	analytics, err := h.adaptiveService.GetAnalytics(c.Request.Context(), userID, h.parseUintQuery(c, "course_id"), h.parseUintQuery(c, "topic_id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, analytics)
}

type updateAnalyticsRequest struct {
	AssessmentID uint `json:"assessment_id" binding:"required"`
}

// @Router /adaptive/analytics/update [post]
func (h *AdaptiveHandler) UpdateAnalytics(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req updateAnalyticsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	analytics, err := h.adaptiveService.UpdateAnalytics(c.Request.Context(), req.AssessmentID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, analytics)
}

// @Router /adaptive/quick-stats [get]
func (h *AdaptiveHandler) QuickStats(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	stats, err := h.adaptiveService.QuickStats(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ===== ADMIN =====

// @Router /adaptive/admin/questions [get]
func (h *AdaptiveHandler) AdminQuestions(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	resp, err := h.adaptiveService.AdminQuestions(c.Request.Context(), userID, h.parseIntQuery(c, "page", 1), h.parseIntQuery(c, "size", 20))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Router /adaptive/admin/analytics [get]
func (h *AdaptiveHandler) AdminAnalytics(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	analytics, err := h.adaptiveService.AdminAnalytics(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, analytics)
}
