package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tusharsharma89566/Edu-Learn/internal/models"
	"github.com/tusharsharma89566/Edu-Learn/internal/repositories"
)

type QuizPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewQuizPostgreSQL(db *gorm.DB) repositories.QuizRepository {
	return &QuizPostgreSQL{db: db, helpers: NewSharedHelpers(db)}
}

func (q *QuizPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

// Create inserts the quiz; gorm creates the nested questions and options
func (q *QuizPostgreSQL) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	if err := q.getDB(tx).WithContext(ctx).Create(quiz).Error; err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}
	return nil
}

func (q *QuizPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := q.getDB(tx).WithContext(ctx).First(&quiz, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) GetForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	err := q.getDB(tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&quiz, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock quiz: %w", err)
	}
	return &quiz, nil
}

// GetWithQuestions loads the quiz with ordered questions and options
func (q *QuizPostgreSQL) GetWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	err := q.getDB(tx).WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC, id ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC, id ASC")
		}).
		First(&quiz, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz details: %w", err)
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) ListByTopic(ctx context.Context, tx *gorm.DB, topicID uint) ([]*models.Quiz, error) {
	var quizzes []*models.Quiz
	err := q.getDB(tx).WithContext(ctx).
		Where("topic_id = ? AND is_active = ? AND is_removed = ?", topicID, true, false).
		Order("id ASC").
		Find(&quizzes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	return quizzes, nil
}

func (q *QuizPostgreSQL) CountAttempts(ctx context.Context, tx *gorm.DB, quizID uint, studentID string) (int64, error) {
	return q.helpers.Count(ctx, tx, &models.QuizAttempt{}, "quiz_id = ? AND student_id = ?", quizID, studentID)
}

func (q *QuizPostgreSQL) CreateAttempt(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error {
	if err := q.getDB(tx).WithContext(ctx).Create(attempt).Error; err != nil {
		return fmt.Errorf("failed to create attempt: %w", err)
	}
	return nil
}

func (q *QuizPostgreSQL) GetAttemptForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	err := q.getDB(tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&attempt, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock attempt: %w", err)
	}
	return &attempt, nil
}

// SaveAttempt writes the attempt result columns of a still open attempt
func (q *QuizPostgreSQL) SaveAttempt(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error {
	result := q.getDB(tx).WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("id = ? AND completed_at IS NULL", attempt.ID).
		Updates(map[string]interface{}{
			"completed_at":       attempt.CompletedAt,
			"score":              attempt.Score,
			"max_score":          attempt.MaxScore,
			"percentage":         attempt.Percentage,
			"passed":             attempt.Passed,
			"time_taken_seconds": attempt.TimeTakenSeconds,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to save attempt: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to save attempt %d: %w", attempt.ID, repositories.ErrConditionFailed)
	}
	return nil
}

func (q *QuizPostgreSQL) CreateAnswers(ctx context.Context, tx *gorm.DB, answers []models.QuizAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	if err := q.getDB(tx).WithContext(ctx).Create(&answers).Error; err != nil {
		return fmt.Errorf("failed to create answers: %w", err)
	}
	return nil
}

func (q *QuizPostgreSQL) ListAttempts(ctx context.Context, tx *gorm.DB, quizID uint, studentID string) ([]*models.QuizAttempt, error) {
	var attempts []*models.QuizAttempt
	err := q.getDB(tx).WithContext(ctx).
		Where("quiz_id = ? AND student_id = ?", quizID, studentID).
		Order("attempt_number DESC").
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	return attempts, nil
}

func (q *QuizPostgreSQL) CountCompletedAttempts(ctx context.Context, tx *gorm.DB, studentID string) (int64, error) {
	return q.helpers.Count(ctx, tx, &models.QuizAttempt{}, "student_id = ? AND completed_at IS NOT NULL", studentID)
}
