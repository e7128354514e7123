package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tusharsharma89566/Edu-Learn/internal/llm"
	"github.com/tusharsharma89566/Edu-Learn/internal/models"
	"github.com/tusharsharma89566/Edu-Learn/internal/repositories"
	"github.com/tusharsharma89566/Edu-Learn/internal/validator"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	chatMaxTokens       = 512

	chatFallbackReply = "I'm sorry, I'm having trouble connecting to my brain right now. Please try again later."

	tutorSystemPrompt = `You are EduLearn's study assistant. Answer the student's question
clearly and briefly, encourage them, and point them to the relevant part of the
platform (courses, assessments, progress, recommendations, badges) when it helps.`
)

type keywordRule struct {
	keyword string
	reply   string
}

// chatRules are checked in order; the first keyword found in the message wins
var chatRules = []keywordRule{
	{"course", "You can browse and enroll in courses from the Course section. Each course has detailed materials and assessments."},
	{"assessment", "You can take assessments in the Adaptive Assessment section. The system will adjust difficulty based on your performance."},
	{"grading", "Your assignments are automatically graded in the Auto Grading section. You can also view feedback from instructors."},
	{"progress", "Track your learning progress in the Progress section. You can see detailed analytics of your performance."},
	{"recommendation", "The system recommends courses based on your interests and learning history in the Recommendation section."},
	{"gamification", "Earn badges and points through the Gamification system as you complete courses and assessments."},
	{"help", "I can help you with questions about courses, assessments, progress tracking, and more. What would you like to know?"},
	{"support", "For technical support, please contact our support team at support@edulearn.com or use the feedback form."},
}

// reminderLayouts are tried after RFC 3339
var reminderLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

type chatbotService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	provider  llm.Provider
}

func NewChatbotService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, provider llm.Provider) ChatbotService {
	return &chatbotService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		provider:  provider,
	}
}

// ===== CHAT =====

func (s *chatbotService) Send(ctx context.Context, req *ChatSendRequest, userID string) (*ChatReply, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	userMsg := &models.ChatMessage{UserID: userID, Message: text, Sender: models.SenderUser}
	if err := s.repo.Chat().CreateMessage(ctx, nil, userMsg); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	botMsg := &models.ChatMessage{UserID: userID, Message: s.reply(ctx, text), Sender: models.SenderBot}
	if err := s.repo.Chat().CreateMessage(ctx, nil, botMsg); err != nil {
		return nil, fmt.Errorf("failed to store reply: %w", err)
	}

	return &ChatReply{UserMessage: userMsg, BotMessage: botMsg}, nil
}

// reply answers from the keyword rules, then the LLM, then the fixed fallback
func (s *chatbotService) reply(ctx context.Context, text string) string {
	lower := strings.ToLower(text)
	for _, rule := range chatRules {
		if strings.Contains(lower, rule.keyword) {
			return rule.reply
		}
	}

	if s.provider == nil {
		return chatFallbackReply
	}
	answer, err := llm.Ask(ctx, s.provider, tutorSystemPrompt, text, chatMaxTokens)
	if err != nil {
		s.logger.Warn("Chat provider failed", "model", s.provider.ModelID(), "error", err)
		return chatFallbackReply
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return chatFallbackReply
	}
	return answer
}

func (s *chatbotService) History(ctx context.Context, userID string, limit int) ([]*models.ChatMessage, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	messages, err := s.repo.Chat().History(ctx, nil, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	return messages, nil
}

// ===== REMINDERS =====

func (s *chatbotService) ListReminders(ctx context.Context, userID string) ([]*models.StudyReminder, error) {
	reminders, err := s.repo.Chat().UpcomingReminders(ctx, nil, userID, now())
	if err != nil {
		return nil, err
	}
	return reminders, nil
}

func (s *chatbotService) CreateReminder(ctx context.Context, req *CreateReminderRequest, userID string) (*models.StudyReminder, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	at, err := parseReminderTime(req.ReminderTime)
	if err != nil {
		return nil, err
	}

	reminder := &models.StudyReminder{
		UserID:       userID,
		Title:        req.Title,
		Description:  strings.TrimSpace(req.Description),
		ReminderTime: at,
		IsActive:     true,
	}
	if err := s.repo.Chat().CreateReminder(ctx, nil, reminder); err != nil {
		return nil, err
	}

	s.logger.Info("Reminder created", "reminder_id", reminder.ID, "user_id", userID, "at", at)
	return reminder, nil
}

// parseReminderTime accepts RFC 3339 or a zone-less ISO-8601 datetime read as UTC
func parseReminderTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range reminderLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidReminderTime, raw)
}

func (s *chatbotService) DeleteReminder(ctx context.Context, id uint, userID string) error {
	if err := s.repo.Chat().DeleteReminder(ctx, nil, id, userID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrReminderNotFound
		}
		return err
	}
	return nil
}

// ===== FAQ =====

func (s *chatbotService) ListFAQs(ctx context.Context) ([]*models.FAQ, error) {
	faqs, err := s.repo.Chat().ListFAQs(ctx, nil)
	if err != nil {
		return nil, err
	}
	return faqs, nil
}

func (s *chatbotService) CreateFAQ(ctx context.Context, req *FAQRequest, userID string) (*models.FAQ, error) {
	if _, err := requireRole(ctx, s.repo, userID, "faq", "create"); err != nil {
		return nil, err
	}
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	faq := &models.FAQ{
		Question: strings.TrimSpace(req.Question),
		Answer:   strings.TrimSpace(req.Answer),
		Category: strings.TrimSpace(req.Category),
		IsActive: true,
	}
	inactive := req.IsActive != nil && !*req.IsActive
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Chat().CreateFAQ(ctx, tx, faq); err != nil {
			return err
		}
		if !inactive {
			return nil
		}
		faq.IsActive = false
		return restoreZeroValues(ctx, tx, faq, map[string]interface{}{"is_active": false})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("FAQ created", "faq_id", faq.ID, "creator_id", userID)
	return faq, nil
}

func (s *chatbotService) UpdateFAQ(ctx context.Context, id uint, req *FAQRequest, userID string) (*models.FAQ, error) {
	if _, err := requireRole(ctx, s.repo, userID, "faq", "update"); err != nil {
		return nil, err
	}

	faq, err := s.repo.Chat().GetFAQ(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrFAQNotFound
		}
		return nil, err
	}

	if q := strings.TrimSpace(req.Question); q != "" {
		faq.Question = q
	}
	if a := strings.TrimSpace(req.Answer); a != "" {
		faq.Answer = a
	}
	faq.Category = strings.TrimSpace(req.Category)
	if req.IsActive != nil {
		faq.IsActive = *req.IsActive
	}
	if len(faq.Category) > 50 {
		return nil, NewValidationError("category", "must be at most 50 characters", faq.Category)
	}

	if err := s.repo.Chat().UpdateFAQ(ctx, nil, faq); err != nil {
		return nil, err
	}
	s.logger.Info("FAQ updated", "faq_id", faq.ID)
	return faq, nil
}

func (s *chatbotService) DeleteFAQ(ctx context.Context, id uint, userID string) error {
	if _, err := requireRole(ctx, s.repo, userID, "faq", "delete"); err != nil {
		return err
	}
	if err := s.repo.Chat().DeleteFAQ(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrFAQNotFound
		}
		return err
	}
	s.logger.Info("FAQ deleted", "faq_id", id)
	return nil
}
