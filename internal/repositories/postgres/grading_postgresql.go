package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/tusharsharma89566/Edu-Learn/internal/models"
	"github.com/tusharsharma89566/Edu-Learn/internal/repositories"
)

type GradingPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewGradingPostgreSQL(db *gorm.DB) repositories.GradingRepository {
	return &GradingPostgreSQL{db: db, helpers: NewSharedHelpers(db)}
}

func (g *GradingPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return g.db
}

// ===== MODELS =====

func (g *GradingPostgreSQL) CreateModel(ctx context.Context, tx *gorm.DB, model *models.GradingModel) error {
	if err := g.getDB(tx).WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create grading model: %w", err)
	}
	return nil
}

func (g *GradingPostgreSQL) GetModel(ctx context.Context, tx *gorm.DB, id uint) (*models.GradingModel, error) {
	var model models.GradingModel
	if err := g.getDB(tx).WithContext(ctx).First(&model, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get grading model: %w", err)
	}
	return &model, nil
}

func (g *GradingPostgreSQL) ListModels(ctx context.Context, tx *gorm.DB, activeOnly bool) ([]*models.GradingModel, error) {
	query := g.getDB(tx).WithContext(ctx)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var list []*models.GradingModel
	if err := query.Order("id ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list grading models: %w", err)
	}
	return list, nil
}

func (g *GradingPostgreSQL) FirstActiveModel(ctx context.Context, tx *gorm.DB, gradingType models.GradingType) (*models.GradingModel, error) {
	var model models.GradingModel
	err := g.getDB(tx).WithContext(ctx).
		Where("grading_type = ? AND is_active = ?", gradingType, true).
		Order("id ASC").
		First(&model).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find grading model: %w", err)
	}
	return &model, nil
}

// ===== CRITERIA =====

func (g *GradingPostgreSQL) CreateCriteria(ctx context.Context, tx *gorm.DB, criteria *models.GradingCriteria) error {
	if err := g.getDB(tx).WithContext(ctx).Create(criteria).Error; err != nil {
		return fmt.Errorf("failed to create grading criteria: %w", err)
	}
	return nil
}

func (g *GradingPostgreSQL) ListCriteria(ctx context.Context, tx *gorm.DB, questionID uint) ([]models.GradingCriteria, error) {
	var criteria []models.GradingCriteria
	err := g.getDB(tx).WithContext(ctx).
		Where("question_id = ?", questionID).
		Order("id ASC").
		Find(&criteria).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list grading criteria: %w", err)
	}
	return criteria, nil
}

// ===== RESULTS =====

func (g *GradingPostgreSQL) CreateResult(ctx context.Context, tx *gorm.DB, result *models.AutoGradingResult) error {
	if err := g.getDB(tx).WithContext(ctx).Omit("Reviews").Create(result).Error; err != nil {
		return fmt.Errorf("failed to store grading result: %w", err)
	}
	return nil
}

func (g *GradingPostgreSQL) GetResult(ctx context.Context, tx *gorm.DB, id uint) (*models.AutoGradingResult, error) {
	var result models.AutoGradingResult
	if err := g.getDB(tx).WithContext(ctx).Preload("Reviews").First(&result, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get grading result: %w", err)
	}
	return &result, nil
}

func (g *GradingPostgreSQL) GetLatestResultForResponse(ctx context.Context, tx *gorm.DB, responseID uint) (*models.AutoGradingResult, error) {
	var result models.AutoGradingResult
	err := g.getDB(tx).WithContext(ctx).
		Preload("Reviews").
		Where("response_id = ?", responseID).
		Order("graded_at DESC, id DESC").
		First(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get grading result: %w", err)
	}
	return &result, nil
}

func (g *GradingPostgreSQL) CreateReview(ctx context.Context, tx *gorm.DB, review *models.HumanReview) error {
	if err := g.getDB(tx).WithContext(ctx).Create(review).Error; err != nil {
		return fmt.Errorf("failed to create human review: %w", err)
	}
	return nil
}

// PendingReviews returns flagged results that nobody has reviewed yet
func (g *GradingPostgreSQL) PendingReviews(ctx context.Context, tx *gorm.DB, limit int) ([]*models.AutoGradingResult, error) {
	query := g.getDB(tx).WithContext(ctx).
		Where("needs_human_review = ?", true).
		Where("NOT EXISTS (SELECT 1 FROM human_reviews hr WHERE hr.grading_result_id = auto_grading_results.id)").
		Order("graded_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var results []*models.AutoGradingResult
	if err := query.Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending reviews: %w", err)
	}
	return results, nil
}

func (g *GradingPostgreSQL) Stats(ctx context.Context, tx *gorm.DB) (*repositories.GradingStats, error) {
	db := g.getDB(tx).WithContext(ctx)
	stats := &repositories.GradingStats{ByModel: []repositories.ModelGradeStats{}}

	if err := db.Model(&models.AutoGradingResult{}).Count(&stats.TotalGraded).Error; err != nil {
		return nil, fmt.Errorf("failed to count grading results: %w", err)
	}

	pending, err := g.PendingReviews(ctx, tx, 0)
	if err != nil {
		return nil, err
	}
	stats.PendingReviews = int64(len(pending))

	var avg *float64
	if err := db.Model(&models.AutoGradingResult{}).Select("AVG(confidence_score)").Scan(&avg).Error; err != nil {
		return nil, fmt.Errorf("failed to average confidence: %w", err)
	}
	if avg != nil {
		stats.AverageConfidence = *avg
	}

	err = db.Table("auto_grading_results").
		Select("grading_models.id AS model_id, grading_models.name AS model_name, COUNT(*) AS count, AVG(auto_grading_results.confidence_score) AS average_confidence").
		Joins("JOIN grading_models ON grading_models.id = auto_grading_results.model_id").
		Group("grading_models.id, grading_models.name").
		Order("grading_models.id ASC").
		Scan(&stats.ByModel).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group grading results by model: %w", err)
	}
	return stats, nil
}
