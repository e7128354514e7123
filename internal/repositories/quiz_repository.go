package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/tusharsharma89566/Edu-Learn/internal/models"
)

type QuizRepository interface {
	// Create stores the quiz together with its questions and options
	Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error)
	// GetForUpdate locks the quiz row where the dialect supports it
	GetForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error)
	GetWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error)
	ListByTopic(ctx context.Context, tx *gorm.DB, topicID uint) ([]*models.Quiz, error)

	// Attempts
	CountAttempts(ctx context.Context, tx *gorm.DB, quizID uint, studentID string) (int64, error)
	CreateAttempt(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error
	GetAttemptForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizAttempt, error)
	// SaveAttempt completes an open attempt, ErrConditionFailed if it was already completed
	SaveAttempt(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error
	CreateAnswers(ctx context.Context, tx *gorm.DB, answers []models.QuizAnswer) error
	ListAttempts(ctx context.Context, tx *gorm.DB, quizID uint, studentID string) ([]*models.QuizAttempt, error)
	CountCompletedAttempts(ctx context.Context, tx *gorm.DB, studentID string) (int64, error)
}
