package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/tusharsharma89566/Edu-Learn/internal/cache"
	"github.com/tusharsharma89566/Edu-Learn/internal/repositories"
)

// PostgreSQLRepository implements the main Repository interface.
// It runs unchanged on sqlite for local use and tests.
type PostgreSQLRepository struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cacheManager *cache.CacheManager

	// Repository instances
	user               repositories.UserRepository
	course             repositories.CourseRepository
	topic              repositories.TopicRepository
	material           repositories.MaterialRepository
	assignment         repositories.AssignmentRepository
	enrollment         repositories.EnrollmentRepository
	moderation         repositories.ModerationRepository
	quiz               repositories.QuizRepository
	adaptiveQuestion   repositories.AdaptiveQuestionRepository
	adaptiveAssessment repositories.AdaptiveAssessmentRepository
	adaptiveAnalytics  repositories.AdaptiveAnalyticsRepository
	grading            repositories.GradingRepository
	gamification       repositories.GamificationRepository
	notification       repositories.NotificationRepository
	chat               repositories.ChatRepository
	progress           repositories.ProgressRepository
	recommendation     repositories.RecommendationRepository
	analytics          repositories.AnalyticsRepository
}

// RepositoryConfig holds configuration for repository initialization
type RepositoryConfig struct {
	DB          *gorm.DB
	RedisClient *redis.Client
}

// NewPostgreSQLRepository creates a new repository with all sub-repositories
func NewPostgreSQLRepository(config RepositoryConfig) repositories.Repository {
	return newRepository(config.DB, config.RedisClient, cache.NewCacheManager(config.RedisClient))
}

func newRepository(db *gorm.DB, redisClient *redis.Client, cm *cache.CacheManager) *PostgreSQLRepository {
	return &PostgreSQLRepository{
		db:           db,
		redisClient:  redisClient,
		cacheManager: cm,

		user:               NewUserPostgreSQL(db),
		course:             NewCoursePostgreSQL(db, cm),
		topic:              NewTopicPostgreSQL(db, cm),
		material:           NewMaterialPostgreSQL(db),
		assignment:         NewAssignmentPostgreSQL(db),
		enrollment:         NewEnrollmentPostgreSQL(db, cm),
		moderation:         NewModerationPostgreSQL(db, cm),
		quiz:               NewQuizPostgreSQL(db),
		adaptiveQuestion:   NewAdaptiveQuestionPostgreSQL(db, cm),
		adaptiveAssessment: NewAdaptiveAssessmentPostgreSQL(db, cm),
		adaptiveAnalytics:  NewAdaptiveAnalyticsPostgreSQL(db),
		grading:            NewGradingPostgreSQL(db),
		gamification:       NewGamificationPostgreSQL(db, cm),
		notification:       NewNotificationPostgreSQL(db),
		chat:               NewChatPostgreSQL(db, cm),
		progress:           NewProgressPostgreSQL(db),
		recommendation:     NewRecommendationPostgreSQL(db),
		analytics:          NewAnalyticsPostgreSQL(db),
	}
}

func (r *PostgreSQLRepository) User() repositories.UserRepository             { return r.user }
func (r *PostgreSQLRepository) Course() repositories.CourseRepository         { return r.course }
func (r *PostgreSQLRepository) Topic() repositories.TopicRepository           { return r.topic }
func (r *PostgreSQLRepository) Material() repositories.MaterialRepository     { return r.material }
func (r *PostgreSQLRepository) Assignment() repositories.AssignmentRepository { return r.assignment }
func (r *PostgreSQLRepository) Enrollment() repositories.EnrollmentRepository { return r.enrollment }
func (r *PostgreSQLRepository) Moderation() repositories.ModerationRepository { return r.moderation }
func (r *PostgreSQLRepository) Quiz() repositories.QuizRepository             { return r.quiz }

func (r *PostgreSQLRepository) AdaptiveQuestion() repositories.AdaptiveQuestionRepository {
	return r.adaptiveQuestion
}

func (r *PostgreSQLRepository) AdaptiveAssessment() repositories.AdaptiveAssessmentRepository {
	return r.adaptiveAssessment
}

func (r *PostgreSQLRepository) AdaptiveAnalytics() repositories.AdaptiveAnalyticsRepository {
	return r.adaptiveAnalytics
}

func (r *PostgreSQLRepository) Grading() repositories.GradingRepository { return r.grading }

func (r *PostgreSQLRepository) Gamification() repositories.GamificationRepository {
	return r.gamification
}

func (r *PostgreSQLRepository) Notification() repositories.NotificationRepository {
	return r.notification
}

func (r *PostgreSQLRepository) Chat() repositories.ChatRepository         { return r.chat }
func (r *PostgreSQLRepository) Progress() repositories.ProgressRepository { return r.progress }

func (r *PostgreSQLRepository) Recommendation() repositories.RecommendationRepository {
	return r.recommendation
}

func (r *PostgreSQLRepository) Analytics() repositories.AnalyticsRepository { return r.analytics }

// WithTransaction executes a function within a database transaction
func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newRepository(tx, r.redisClient, r.cacheManager))
	})
}

// Ping checks the health of database and cache connections
func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if r.redisClient != nil {
		if err := r.cacheManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache ping failed: %w", err)
		}
	}

	return nil
}

// Close closes all connections
func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	if r.redisClient != nil {
		if err := r.redisClient.Close(); err != nil {
			return fmt.Errorf("failed to close Redis: %w", err)
		}
	}

	return nil
}

// CacheStats returns per-prefix key counts
func (r *PostgreSQLRepository) CacheStats(ctx context.Context) map[string]interface{} {
	return r.cacheManager.KeyCounts(ctx)
}

// ClearCache drops every platform cache key
func (r *PostgreSQLRepository) ClearCache(ctx context.Context) error {
	return r.cacheManager.ClearAll(ctx)
}

// RepositoryManager implements the RepositoryManager interface
type RepositoryManager struct {
	config RepositoryConfig
	repo   repositories.Repository
}

// NewRepositoryManager creates a new repository manager
func NewRepositoryManager(config RepositoryConfig) repositories.RepositoryManager {
	return &RepositoryManager{
		config: config,
	}
}

// Initialize verifies connections and builds the repository
func (rm *RepositoryManager) Initialize() error {
	if rm.config.DB == nil {
		return fmt.Errorf("database connection is required")
	}

	sqlDB, err := rm.config.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}

	if rm.config.RedisClient != nil {
		if _, err := rm.config.RedisClient.Ping(ctx).Result(); err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
	}

	rm.repo = NewPostgreSQLRepository(rm.config)

	return nil
}

// GetRepository returns the repository instance
func (rm *RepositoryManager) GetRepository() repositories.Repository {
	return rm.repo
}

// HealthCheck checks the health of all repository connections
func (rm *RepositoryManager) HealthCheck(ctx context.Context) error {
	if rm.repo == nil {
		return fmt.Errorf("repository not initialized")
	}

	return rm.repo.Ping(ctx)
}

// Shutdown gracefully shuts down all repository connections
func (rm *RepositoryManager) Shutdown(ctx context.Context) error {
	if rm.repo == nil {
		return nil
	}

	return rm.repo.Close()
}
