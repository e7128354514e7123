package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tusharsharma89566/Edu-Learn/internal/models"
)

type ChatRepository interface {
	CreateMessage(ctx context.Context, tx *gorm.DB, message *models.ChatMessage) error
	// History returns the last limit messages of userID, oldest first
	History(ctx context.Context, tx *gorm.DB, userID string, limit int) ([]*models.ChatMessage, error)

	ListFAQs(ctx context.Context, tx *gorm.DB) ([]*models.FAQ, error)
	GetFAQ(ctx context.Context, tx *gorm.DB, id uint) (*models.FAQ, error)
	CreateFAQ(ctx context.Context, tx *gorm.DB, faq *models.FAQ) error
	UpdateFAQ(ctx context.Context, tx *gorm.DB, faq *models.FAQ) error
	DeleteFAQ(ctx context.Context, tx *gorm.DB, id uint) error
	CountFAQs(ctx context.Context, tx *gorm.DB) (int64, error)

	CreateReminder(ctx context.Context, tx *gorm.DB, reminder *models.StudyReminder) error
	UpcomingReminders(ctx context.Context, tx *gorm.DB, userID string, now time.Time) ([]*models.StudyReminder, error)
	DeleteReminder(ctx context.Context, tx *gorm.DB, id uint, userID string) error
}

type ProgressRepository interface {
	// Sessions
	CreateSession(ctx context.Context, tx *gorm.DB, session *models.LearningSession) error
	GetSession(ctx context.Context, tx *gorm.DB, id uint) (*models.LearningSession, error)
	ActiveSession(ctx context.Context, tx *gorm.DB, userID string) (*models.LearningSession, error)
	SaveSession(ctx context.Context, tx *gorm.DB, session *models.LearningSession) error
	SessionsBetween(ctx context.Context, tx *gorm.DB, userID string, from, to time.Time) ([]*models.LearningSession, error)

	// Activities
	CreateActivity(ctx context.Context, tx *gorm.DB, activity *models.LearningActivity) error
	GetActivity(ctx context.Context, tx *gorm.DB, id uint) (*models.LearningActivity, error)
	SaveActivity(ctx context.Context, tx *gorm.DB, activity *models.LearningActivity) error
	RecentActivities(ctx context.Context, tx *gorm.DB, userID string, limit int) ([]*models.LearningActivity, error)
	ActivitiesBetween(ctx context.Context, tx *gorm.DB, userID string, from, to time.Time) ([]*models.LearningActivity, error)
	CountCompletedMaterials(ctx context.Context, tx *gorm.DB, userID string, topicID uint) (int64, error)

	// Course and topic progress
	GetCourseProgress(ctx context.Context, tx *gorm.DB, userID string, courseID uint) (*models.CourseProgress, error)
	SaveCourseProgress(ctx context.Context, tx *gorm.DB, progress *models.CourseProgress) error
	ListCourseProgress(ctx context.Context, tx *gorm.DB, userID string) ([]*models.CourseProgress, error)
	GetTopicProgress(ctx context.Context, tx *gorm.DB, userID string, topicID uint) (*models.TopicProgress, error)
	SaveTopicProgress(ctx context.Context, tx *gorm.DB, progress *models.TopicProgress) error
	CountCompletedTopics(ctx context.Context, tx *gorm.DB, userID string, courseID uint) (int64, error)

	// Period analytics
	GetPeriodAnalytics(ctx context.Context, tx *gorm.DB, userID string, period models.PeriodType, start time.Time) (*models.LearningAnalytics, error)
	CreatePeriodAnalytics(ctx context.Context, tx *gorm.DB, analytics *models.LearningAnalytics) error

	// Streak
	GetStreak(ctx context.Context, tx *gorm.DB, userID string) (*models.StudyStreak, error)
	SaveStreak(ctx context.Context, tx *gorm.DB, streak *models.StudyStreak) error
}

type RecommendationRepository interface {
	GetPreference(ctx context.Context, tx *gorm.DB, userID string) (*models.UserPreference, error)
	SavePreference(ctx context.Context, tx *gorm.DB, pref *models.UserPreference) error

	GetPattern(ctx context.Context, tx *gorm.DB, userID string) (*models.LearningPattern, error)
	SavePattern(ctx context.Context, tx *gorm.DB, pattern *models.LearningPattern) error

	// ReplaceActive deactivates the user's current recommendations and stores recs
	ReplaceActive(ctx context.Context, tx *gorm.DB, userID string, recs []*models.UserRecommendation) error
	ListActive(ctx context.Context, tx *gorm.DB, userID string, now time.Time, limit int) ([]*models.UserRecommendation, error)
	Get(ctx context.Context, tx *gorm.DB, id uint) (*models.UserRecommendation, error)
	Save(ctx context.Context, tx *gorm.DB, rec *models.UserRecommendation) error
}

// AnalyticsRepository serves the admin dashboard counters
type AnalyticsRepository interface {
	CountUsersByRole(ctx context.Context, tx *gorm.DB) (map[models.UserRole]int64, error)
	CountTable(ctx context.Context, tx *gorm.DB, model interface{}) (int64, error)
	CountSessionsSince(ctx context.Context, tx *gorm.DB, since time.Time) (int64, error)
	// DailyCounts returns one entry per day for the last days days, newest first
	DailyCounts(ctx context.Context, tx *gorm.DB, model interface{}, column string, days int, now time.Time) ([]DailyCount, error)
}
