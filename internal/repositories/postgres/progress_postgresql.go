package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tusharsharma89566/Edu-Learn/internal/models"
	"github.com/tusharsharma89566/Edu-Learn/internal/repositories"
)

type ProgressPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewProgressPostgreSQL(db *gorm.DB) repositories.ProgressRepository {
	return &ProgressPostgreSQL{db: db, helpers: NewSharedHelpers(db)}
}

func (p *ProgressPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return p.db
}

// ===== SESSIONS =====

func (p *ProgressPostgreSQL) CreateSession(ctx context.Context, tx *gorm.DB, session *models.LearningSession) error {
	if err := p.getDB(tx).WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("failed to create learning session: %w", err)
	}
	return nil
}

func (p *ProgressPostgreSQL) GetSession(ctx context.Context, tx *gorm.DB, id uint) (*models.LearningSession, error) {
	var session models.LearningSession
	if err := p.getDB(tx).WithContext(ctx).First(&session, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get learning session: %w", err)
	}
	return &session, nil
}

// ActiveSession returns the latest open session of the user
func (p *ProgressPostgreSQL) ActiveSession(ctx context.Context, tx *gorm.DB, userID string) (*models.LearningSession, error) {
	var session models.LearningSession
	err := p.getDB(tx).WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("session_start DESC").
		First(&session).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get active session: %w", err)
	}
	return &session, nil
}

func (p *ProgressPostgreSQL) SaveSession(ctx context.Context, tx *gorm.DB, session *models.LearningSession) error {
	if err := p.getDB(tx).WithContext(ctx).Omit("created_at").Save(session).Error; err != nil {
		return fmt.Errorf("failed to save learning session: %w", err)
	}
	return nil
}

func (p *ProgressPostgreSQL) SessionsBetween(ctx context.Context, tx *gorm.DB, userID string, from, to time.Time) ([]*models.LearningSession, error) {
	var sessions []*models.LearningSession
	err := p.getDB(tx).WithContext(ctx).
		Where("user_id = ? AND session_start >= ? AND session_start < ?", userID, from, to).
		Order("session_start ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list learning sessions: %w", err)
	}
	return sessions, nil
}

// ===== ACTIVITIES =====

func (p *ProgressPostgreSQL) CreateActivity(ctx context.Context, tx *gorm.DB, activity *models.LearningActivity) error {
	if err := p.getDB(tx).WithContext(ctx).Create(activity).Error; err != nil {
		return fmt.Errorf("failed to create learning activity: %w", err)
	}
	return nil
}

func (p *ProgressPostgreSQL) GetActivity(ctx context.Context, tx *gorm.DB, id uint) (*models.LearningActivity, error) {
	var activity models.LearningActivity
	if err := p.getDB(tx).WithContext(ctx).First(&activity, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get learning activity: %w", err)
	}
	return &activity, nil
}

func (p *ProgressPostgreSQL) SaveActivity(ctx context.Context, tx *gorm.DB, activity *models.LearningActivity) error {
	if err := p.getDB(tx).WithContext(ctx).Omit("created_at").Save(activity).Error; err != nil {
		return fmt.Errorf("failed to save learning activity: %w", err)
	}
	return nil
}

func (p *ProgressPostgreSQL) RecentActivities(ctx context.Context, tx *gorm.DB, userID string, limit int) ([]*models.LearningActivity, error) {
	query := p.getDB(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("started_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var activities []*models.LearningActivity
	if err := query.Find(&activities).Error; err != nil {
		return nil, fmt.Errorf("failed to list recent activities: %w", err)
	}
	return activities, nil
}

func (p *ProgressPostgreSQL) ActivitiesBetween(ctx context.Context, tx *gorm.DB, userID string, from, to time.Time) ([]*models.LearningActivity, error) {
	var activities []*models.LearningActivity
	err := p.getDB(tx).WithContext(ctx).
		Where("user_id = ? AND started_at >= ? AND started_at < ?", userID, from, to).
		Order("started_at ASC").
		Find(&activities).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list learning activities: %w", err)
	}
	return activities, nil
}

// CountCompletedMaterials counts distinct materials of a topic the user finished
func (p *ProgressPostgreSQL) CountCompletedMaterials(ctx context.Context, tx *gorm.DB, userID string, topicID uint) (int64, error) {
	var count int64
	err := p.getDB(tx).WithContext(ctx).
		Model(&models.LearningActivity{}).
		Where("user_id = ? AND topic_id = ? AND status = ? AND material_id IS NOT NULL", userID, topicID, models.ActivityCompleted).
		Distinct("material_id").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count completed materials: %w", err)
	}
	return count, nil
}

// ===== COURSE AND TOPIC PROGRESS =====

func (p *ProgressPostgreSQL) GetCourseProgress(ctx context.Context, tx *gorm.DB, userID string, courseID uint) (*models.CourseProgress, error) {
	var progress models.CourseProgress
	err := p.getDB(tx).WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&progress).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get course progress: %w", err)
	}
	return &progress, nil
}

func (p *ProgressPostgreSQL) SaveCourseProgress(ctx context.Context, tx *gorm.DB, progress *models.CourseProgress) error {
	if err := p.getDB(tx).WithContext(ctx).Save(progress).Error; err != nil {
		return fmt.Errorf("failed to save course progress: %w", err)
	}
	return nil
}

func (p *ProgressPostgreSQL) ListCourseProgress(ctx context.Context, tx *gorm.DB, userID string) ([]*models.CourseProgress, error) {
	var list []*models.CourseProgress
	err := p.getDB(tx).WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("updated_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list course progress: %w", err)
	}
	return list, nil
}

func (p *ProgressPostgreSQL) GetTopicProgress(ctx context.Context, tx *gorm.DB, userID string, topicID uint) (*models.TopicProgress, error) {
	var progress models.TopicProgress
	err := p.getDB(tx).WithContext(ctx).
		Where("user_id = ? AND topic_id = ?", userID, topicID).
		First(&progress).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get topic progress: %w", err)
	}
	return &progress, nil
}

func (p *ProgressPostgreSQL) SaveTopicProgress(ctx context.Context, tx *gorm.DB, progress *models.TopicProgress) error {
	if err := p.getDB(tx).WithContext(ctx).Save(progress).Error; err != nil {
		return fmt.Errorf("failed to save topic progress: %w", err)
	}
	return nil
}

func (p *ProgressPostgreSQL) CountCompletedTopics(ctx context.Context, tx *gorm.DB, userID string, courseID uint) (int64, error) {
	return p.helpers.Count(ctx, tx, &models.TopicProgress{},
		"user_id = ? AND course_id = ? AND is_completed = ?", userID, courseID, true)
}

// ===== ANALYTICS AND STREAK =====

func (p *ProgressPostgreSQL) GetPeriodAnalytics(ctx context.Context, tx *gorm.DB, userID string, period models.PeriodType, start time.Time) (*models.LearningAnalytics, error) {
	var analytics models.LearningAnalytics
	err := p.getDB(tx).WithContext(ctx).
		Where("user_id = ? AND period_type = ? AND period_start = ?", userID, period, start).
		First(&analytics).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get learning analytics: %w", err)
	}
	return &analytics, nil
}

func (p *ProgressPostgreSQL) CreatePeriodAnalytics(ctx context.Context, tx *gorm.DB, analytics *models.LearningAnalytics) error {
	if err := p.getDB(tx).WithContext(ctx).Create(analytics).Error; err != nil {
		return fmt.Errorf("failed to store learning analytics: %w", err)
	}
	return nil
}

func (p *ProgressPostgreSQL) GetStreak(ctx context.Context, tx *gorm.DB, userID string) (*models.StudyStreak, error) {
	var streak models.StudyStreak
	if err := p.getDB(tx).WithContext(ctx).Where("user_id = ?", userID).First(&streak).Error; err != nil {
		return nil, fmt.Errorf("failed to get study streak: %w", err)
	}
	return &streak, nil
}

func (p *ProgressPostgreSQL) SaveStreak(ctx context.Context, tx *gorm.DB, streak *models.StudyStreak) error {
	if err := p.getDB(tx).WithContext(ctx).Save(streak).Error; err != nil {
		return fmt.Errorf("failed to save study streak: %w", err)
	}
	return nil
}
