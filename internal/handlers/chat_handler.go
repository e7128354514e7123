package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tusharsharma89566/Edu-Learn/internal/services"
	"github.com/tusharsharma89566/Edu-Learn/internal/utils"
)

type ChatHandler struct {
	BaseHandler
	chatbotService services.ChatbotService
}

func NewChatHandler(chatbotService services.ChatbotService, logger utils.Logger) *ChatHandler {
	return &ChatHandler{
		BaseHandler:    NewBaseHandler(logger),
		chatbotService: chatbotService,
	}
}

// @Router /chat/send [post]
func (h *ChatHandler) Send(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req services.ChatSendRequest
	if !h.bindJSON(c, &req) {
		return
	}

	reply, err := h.chatbotService.Send(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, reply)
}

// @Router /chat/history [get]
func (h *ChatHandler) History(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	messages, err := h.chatbotService.History(c.Request.Context(), userID, h.parseIntQuery(c, "limit", 0))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: messages})
}

// ===== REMINDERS =====

// @Router /chat/reminders [get]
func (h *ChatHandler) ListReminders(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	reminders, err := h.chatbotService.ListReminders(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: reminders})
}

// @Router /chat/reminders [post]
func (h *ChatHandler) CreateReminder(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req services.CreateReminderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	reminder, err := h.chatbotService.CreateReminder(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, reminder)
}

// @Router /chat/reminders/{id} [delete]
func (h *ChatHandler) DeleteReminder(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	if err := h.chatbotService.DeleteReminder(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Reminder deleted successfully"})
}

// ===== FAQ =====

// @Router /chat/faqs [get]
func (h *ChatHandler) ListFAQs(c *gin.Context) {
	faqs, err := h.chatbotService.ListFAQs(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: faqs})
}

// @Router /chat/faqs [post]
func (h *ChatHandler) CreateFAQ(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req services.FAQRequest
	if !h.bindJSON(c, &req) {
		return
	}

	faq, err := h.chatbotService.CreateFAQ(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, faq)
}

// @Router /chat/faqs/{id} [put]
func (h *ChatHandler) UpdateFAQ(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req services.FAQRequest
	if !h.bindJSON(c, &req) {
		return
	}

	faq, err := h.chatbotService.UpdateFAQ(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, faq)
}

// @Router /chat/faqs/{id} [delete]
func (h *ChatHandler) DeleteFAQ(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	if err := h.chatbotService.DeleteFAQ(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "FAQ deleted successfully"})
}
