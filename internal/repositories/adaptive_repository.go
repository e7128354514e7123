package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/tusharsharma89566/Edu-Learn/internal/models"
)

type AdaptiveQuestionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, question *models.AdaptiveQuestion) error
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.AdaptiveQuestion) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.AdaptiveQuestion, error)
	UpdateStatistics(ctx context.Context, tx *gorm.DB, question *models.AdaptiveQuestion) error
	List(ctx context.Context, tx *gorm.DB, filters AdaptiveQuestionFilters) ([]*models.AdaptiveQuestion, int64, error)

	// Pool returns the active questions an assessment can draw from.
	// A nil topicID means the whole course.
	Pool(ctx context.Context, tx *gorm.DB, courseID uint, topicID *uint) ([]models.AdaptiveQuestion, error)
	// InvalidatePool drops the cached pools of the given courses.
	// The write methods above never touch the cache. Call this after their transaction commits.
	InvalidatePool(ctx context.Context, courseIDs ...uint)
}

type AdaptiveAssessmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, assessment *models.AdaptiveAssessment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.AdaptiveAssessment, error)
	// GetForUpdate locks the row where the dialect supports it
	GetForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.AdaptiveAssessment, error)
	Update(ctx context.Context, tx *gorm.DB, assessment *models.AdaptiveAssessment) error
	List(ctx context.Context, tx *gorm.DB, filters AssessmentFilters) ([]*models.AdaptiveAssessment, int64, error)
	Recent(ctx context.Context, tx *gorm.DB, userID string, limit int) ([]*models.AdaptiveAssessment, error)

	// Responses
	CreateResponse(ctx context.Context, tx *gorm.DB, response *models.AssessmentResponse) error
	GetResponse(ctx context.Context, tx *gorm.DB, id uint) (*models.AssessmentResponse, error)
	UpdateResponse(ctx context.Context, tx *gorm.DB, response *models.AssessmentResponse) error
	ListResponses(ctx context.Context, tx *gorm.DB, assessmentID uint, withQuestions bool) ([]models.AssessmentResponse, error)
	AnsweredQuestionIDs(ctx context.Context, tx *gorm.DB, assessmentID uint) (map[uint]bool, error)
	HasResponse(ctx context.Context, tx *gorm.DB, assessmentID, questionID uint) (bool, error)

	// Subject accuracy per course title for the learning pattern
	CourseAccuracy(ctx context.Context, tx *gorm.DB, userID string) (map[string]float64, error)

	Stats(ctx context.Context, tx *gorm.DB) (*AdaptiveStats, error)
}

type AdaptiveAnalyticsRepository interface {
	// GetOrCreate returns the record for the scope, creating an empty one if absent
	GetOrCreate(ctx context.Context, tx *gorm.DB, userID string, courseID, topicID *uint) (*models.AdaptiveAnalytics, error)
	Save(ctx context.Context, tx *gorm.DB, analytics *models.AdaptiveAnalytics) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.AdaptiveAnalytics, error)
}
