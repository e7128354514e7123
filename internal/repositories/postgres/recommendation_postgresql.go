package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tusharsharma89566/Edu-Learn/internal/models"
	"github.com/tusharsharma89566/Edu-Learn/internal/repositories"
)

type RecommendationPostgreSQL struct {
	db *gorm.DB
}

func NewRecommendationPostgreSQL(db *gorm.DB) repositories.RecommendationRepository {
	return &RecommendationPostgreSQL{db: db}
}

func (r *RecommendationPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *RecommendationPostgreSQL) GetPreference(ctx context.Context, tx *gorm.DB, userID string) (*models.UserPreference, error) {
	var pref models.UserPreference
	if err := r.getDB(tx).WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error; err != nil {
		return nil, fmt.Errorf("failed to get user preference: %w", err)
	}
	return &pref, nil
}

func (r *RecommendationPostgreSQL) SavePreference(ctx context.Context, tx *gorm.DB, pref *models.UserPreference) error {
	if err := r.getDB(tx).WithContext(ctx).Save(pref).Error; err != nil {
		return fmt.Errorf("failed to save user preference: %w", err)
	}
	return nil
}

func (r *RecommendationPostgreSQL) GetPattern(ctx context.Context, tx *gorm.DB, userID string) (*models.LearningPattern, error) {
	var pattern models.LearningPattern
	if err := r.getDB(tx).WithContext(ctx).Where("user_id = ?", userID).First(&pattern).Error; err != nil {
		return nil, fmt.Errorf("failed to get learning pattern: %w", err)
	}
	return &pattern, nil
}

func (r *RecommendationPostgreSQL) SavePattern(ctx context.Context, tx *gorm.DB, pattern *models.LearningPattern) error {
	if err := r.getDB(tx).WithContext(ctx).Save(pattern).Error; err != nil {
		return fmt.Errorf("failed to save learning pattern: %w", err)
	}
	return nil
}

func (r *RecommendationPostgreSQL) ReplaceActive(ctx context.Context, tx *gorm.DB, userID string, recs []*models.UserRecommendation) error {
	apply := func(db *gorm.DB) error {
		err := db.Model(&models.UserRecommendation{}).
			Where("user_id = ? AND is_active = ?", userID, true).
			Update("is_active", false).Error
		if err != nil {
			return fmt.Errorf("failed to deactivate recommendations: %w", err)
		}
		if len(recs) == 0 {
			return nil
		}
		if err := db.Create(&recs).Error; err != nil {
			return fmt.Errorf("failed to store recommendations: %w", err)
		}
		return nil
	}

	if tx != nil {
		return apply(tx.WithContext(ctx))
	}
	return r.db.WithContext(ctx).Transaction(apply)
}

// ListActive returns unexpired active recommendations by priority then confidence
func (r *RecommendationPostgreSQL) ListActive(ctx context.Context, tx *gorm.DB, userID string, now time.Time, limit int) ([]*models.UserRecommendation, error) {
	query := r.getDB(tx).WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Order("priority DESC, confidence_score DESC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var recs []*models.UserRecommendation
	if err := query.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	return recs, nil
}

func (r *RecommendationPostgreSQL) Get(ctx context.Context, tx *gorm.DB, id uint) (*models.UserRecommendation, error) {
	var rec models.UserRecommendation
	if err := r.getDB(tx).WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get recommendation: %w", err)
	}
	return &rec, nil
}

func (r *RecommendationPostgreSQL) Save(ctx context.Context, tx *gorm.DB, rec *models.UserRecommendation) error {
	if err := r.getDB(tx).WithContext(ctx).Omit("created_at").Save(rec).Error; err != nil {
		return fmt.Errorf("failed to save recommendation: %w", err)
	}
	return nil
}
