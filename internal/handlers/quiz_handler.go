package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tusharsharma89566/Edu-Learn/internal/services"
	"github.com/tusharsharma89566/Edu-Learn/internal/utils"
)

type QuizHandler struct {
	BaseHandler
	quizService services.QuizService
}

func NewQuizHandler(quizService services.QuizService, logger utils.Logger) *QuizHandler {
	return &QuizHandler{
		BaseHandler: NewBaseHandler(logger),
		quizService: quizService,
	}
}

// @Router /topics/{id}/quizzes [get]
func (h *QuizHandler) ListByTopic(c *gin.Context) {
	topicID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	quizzes, err := h.quizService.ListByTopic(c.Request.Context(), topicID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: quizzes})
}

// @Router /topics/{id}/quizzes [post]
func (h *QuizHandler) Create(c *gin.Context) {
	topicID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req services.CreateQuizRequest
	if !h.bindJSON(c, &req) {
		return
	}

	quiz, err := h.quizService.Create(c.Request.Context(), topicID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, quiz)
}

// Get returns the quiz; answer keys are only included for its managers
// @Router /quizzes/{id} [get]
func (h *QuizHandler) Get(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	view, err := h.quizService.Get(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// @Router /quizzes/{id}/attempts [post]
func (h *QuizHandler) StartAttempt(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	attempt, err := h.quizService.StartAttempt(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, attempt)
}

// @Router /quizzes/{id}/attempts [get]
func (h *QuizHandler) ListAttempts(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	attempts, err := h.quizService.ListAttempts(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: attempts})
}

// @Router /quizzes/{id}/attempts/{aid}/submit [post]
func (h *QuizHandler) SubmitAttempt(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	attemptID, ok := h.parseIDParam(c, "aid")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req services.SubmitQuizRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Submitting quiz attempt", "quiz_id", id, "attempt_id", attemptID)

	result, err := h.quizService.SubmitAttempt(c.Request.Context(), id, attemptID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
