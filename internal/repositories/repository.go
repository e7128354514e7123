package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository aggregates every domain repository behind one handle
type Repository interface {
	// Identity
	User() UserRepository

	// Content domain
	Course() CourseRepository
	Topic() TopicRepository
	Material() MaterialRepository
	Assignment() AssignmentRepository
	Enrollment() EnrollmentRepository
	Moderation() ModerationRepository

	// Quizzes
	Quiz() QuizRepository

	// Adaptive assessment domain
	AdaptiveQuestion() AdaptiveQuestionRepository
	AdaptiveAssessment() AdaptiveAssessmentRepository
	AdaptiveAnalytics() AdaptiveAnalyticsRepository

	// Auto-grading
	Grading() GradingRepository

	// Gamification domain
	Gamification() GamificationRepository
	Notification() NotificationRepository

	// Chatbot, progress and recommendations
	Chat() ChatRepository
	Progress() ProgressRepository
	Recommendation() RecommendationRepository

	// Platform-wide counters for the admin dashboard
	Analytics() AnalyticsRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Cache maintenance
	CacheStats(ctx context.Context) map[string]interface{}
	ClearCache(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}

// ErrConditionFailed is returned when a guarded update matched no row
var ErrConditionFailed = errors.New("row no longer matches the update condition")

// IsNotFoundError reports whether err wraps gorm's record-not-found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError reports whether err is a unique constraint violation
func IsDuplicateError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
