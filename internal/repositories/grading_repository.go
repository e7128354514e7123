package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/tusharsharma89566/Edu-Learn/internal/models"
)

type GradingRepository interface {
	// Models
	CreateModel(ctx context.Context, tx *gorm.DB, model *models.GradingModel) error
	GetModel(ctx context.Context, tx *gorm.DB, id uint) (*models.GradingModel, error)
	ListModels(ctx context.Context, tx *gorm.DB, activeOnly bool) ([]*models.GradingModel, error)
	FirstActiveModel(ctx context.Context, tx *gorm.DB, gradingType models.GradingType) (*models.GradingModel, error)

	// Criteria
	CreateCriteria(ctx context.Context, tx *gorm.DB, criteria *models.GradingCriteria) error
	ListCriteria(ctx context.Context, tx *gorm.DB, questionID uint) ([]models.GradingCriteria, error)

	// Results and reviews
	CreateResult(ctx context.Context, tx *gorm.DB, result *models.AutoGradingResult) error
	GetResult(ctx context.Context, tx *gorm.DB, id uint) (*models.AutoGradingResult, error)
	GetLatestResultForResponse(ctx context.Context, tx *gorm.DB, responseID uint) (*models.AutoGradingResult, error)
	CreateReview(ctx context.Context, tx *gorm.DB, review *models.HumanReview) error
	PendingReviews(ctx context.Context, tx *gorm.DB, limit int) ([]*models.AutoGradingResult, error)
	Stats(ctx context.Context, tx *gorm.DB) (*GradingStats, error)
}
