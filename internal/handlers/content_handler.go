package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tusharsharma89566/Edu-Learn/internal/repositories"
	"github.com/tusharsharma89566/Edu-Learn/internal/services"
	"github.com/tusharsharma89566/Edu-Learn/internal/utils"
)

// ContentHandler serves courses, topics, materials, assignments and enrollment
type ContentHandler struct {
	BaseHandler
	contentService services.ContentService
	adminService   services.AdminService
}

func NewContentHandler(contentService services.ContentService, adminService services.AdminService, logger utils.Logger) *ContentHandler {
	return &ContentHandler{
		BaseHandler:    NewBaseHandler(logger),
		contentService: contentService,
		adminService:   adminService,
	}
}

// ===== COURSES =====

// ListCourses returns the courses visible to the caller
// @Router /courses [get]
func (h *ContentHandler) ListCourses(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	resp, err := h.contentService.ListCourses(c.Request.Context(), userID, h.parseIntQuery(c, "page", 1), h.parseIntQuery(c, "size", 10))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Catalog searches public courses
// @Router /courses/catalog [get]
func (h *ContentHandler) Catalog(c *gin.Context) {
	resp, err := h.contentService.Catalog(c.Request.Context(), c.Query("q"), h.parseIntQuery(c, "page", 1), h.parseIntQuery(c, "size", 10))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Router /courses [post]
func (h *ContentHandler) CreateCourse(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req services.CreateCourseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	course, err := h.contentService.CreateCourse(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, course)
}

// @Router /courses/{id} [get]
func (h *ContentHandler) GetCourse(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	course, err := h.contentService.GetCourse(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// @Router /courses/{id} [put]
func (h *ContentHandler) UpdateCourse(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req services.UpdateCourseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Updating course", "course_id", id)

	course, err := h.contentService.UpdateCourse(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// @Router /courses/{id} [delete]
func (h *ContentHandler) DeleteCourse(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	if err := h.contentService.DeleteCourse(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Course deleted successfully"})
}

// ReportCourse flags a course for moderation
// @Router /courses/{id}/report [post]
func (h *ContentHandler) ReportCourse(c *gin.Context) {
	h.report(c, repositories.ContentCourse)
}

// ReportMaterial flags a material for moderation
// @Router /materials/{id}/report [post]
func (h *ContentHandler) ReportMaterial(c *gin.Context) {
	h.report(c, repositories.ContentMaterial)
}

func (h *ContentHandler) report(c *gin.Context, contentType string) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req services.ReportRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.adminService.Report(c.Request.Context(), contentType, id, &req, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Content reported successfully"})
}

// ===== TOPICS =====

// @Router /courses/{id}/topics [get]
func (h *ContentHandler) ListTopics(c *gin.Context) {
	courseID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	topics, err := h.contentService.ListTopics(c.Request.Context(), courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: topics})
}

// @Router /courses/{id}/topics [post]
func (h *ContentHandler) CreateTopic(c *gin.Context) {
	courseID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req services.TopicRequest
	if !h.bindJSON(c, &req) {
		return
	}

	topic, err := h.contentService.CreateTopic(c.Request.Context(), courseID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, topic)
}

// @Router /topics/{id} [put]
func (h *ContentHandler) UpdateTopic(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req services.TopicRequest
	if !h.bindJSON(c, &req) {
		return
	}

	topic, err := h.contentService.UpdateTopic(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, topic)
}

// @Router /topics/{id} [delete]
func (h *ContentHandler) DeleteTopic(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	if err := h.contentService.DeleteTopic(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Topic deleted successfully"})
}

// ===== MATERIALS =====

// @Router /topics/{id}/materials [get]
func (h *ContentHandler) ListMaterials(c *gin.Context) {
	topicID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	materials, err := h.contentService.ListMaterials(c.Request.Context(), topicID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: materials})
}

// @Router /topics/{id}/materials [post]
func (h *ContentHandler) CreateMaterial(c *gin.Context) {
	topicID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req services.MaterialRequest
	if !h.bindJSON(c, &req) {
		return
	}

	material, err := h.contentService.CreateMaterial(c.Request.Context(), topicID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, material)
}

// @Router /materials/{id} [put]
func (h *ContentHandler) UpdateMaterial(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req services.MaterialRequest
	if !h.bindJSON(c, &req) {
		return
	}

	material, err := h.contentService.UpdateMaterial(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, material)
}

// @Router /materials/{id} [delete]
func (h *ContentHandler) DeleteMaterial(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	if err := h.contentService.DeleteMaterial(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Material deleted successfully"})
}

// ===== ASSIGNMENTS =====

// @Router /courses/{id}/assignments [get]
func (h *ContentHandler) ListAssignments(c *gin.Context) {
	courseID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	assignments, err := h.contentService.ListAssignments(c.Request.Context(), courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: assignments})
}

// @Router /courses/{id}/assignments [post]
func (h *ContentHandler) CreateAssignment(c *gin.Context) {
	courseID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req services.CreateAssignmentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	assignment, err := h.contentService.CreateAssignment(c.Request.Context(), courseID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, assignment)
}

// @Router /assignments/{id}/submit [post]
func (h *ContentHandler) SubmitAssignment(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req services.SubmissionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	submission, err := h.contentService.SubmitAssignment(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, submission)
}

// @Router /assignments/{id}/submissions [get]
func (h *ContentHandler) ListSubmissions(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	submissions, err := h.contentService.ListSubmissions(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: submissions})
}

// @Router /assignments/{id}/submissions/{sid}/grade [post]
func (h *ContentHandler) GradeSubmission(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	submissionID, ok := h.parseIDParam(c, "sid")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req services.GradeSubmissionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	submission, err := h.contentService.GradeSubmission(c.Request.Context(), id, submissionID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, submission)
}

// ===== ENROLLMENT =====

// @Router /courses/{id}/enroll [post]
func (h *ContentHandler) Enroll(c *gin.Context) {
	courseID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	enrollment, err := h.contentService.Enroll(c.Request.Context(), courseID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, enrollment)
}

// @Router /courses/{id}/unenroll [post]
func (h *ContentHandler) Unenroll(c *gin.Context) {
	courseID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	if err := h.contentService.Unenroll(c.Request.Context(), courseID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Unenrolled successfully"})
}

// @Router /courses/{id}/students [get]
func (h *ContentHandler) CourseStudents(c *gin.Context) {
	courseID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	students, err := h.contentService.CourseStudents(c.Request.Context(), courseID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: students})
}
