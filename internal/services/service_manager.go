package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"gorm.io/gorm"

	"github.com/tusharsharma89566/Edu-Learn/internal/adaptive"
	"github.com/tusharsharma89566/Edu-Learn/internal/config"
	"github.com/tusharsharma89566/Edu-Learn/internal/events"
	"github.com/tusharsharma89566/Edu-Learn/internal/llm"
	"github.com/tusharsharma89566/Edu-Learn/internal/repositories"
	"github.com/tusharsharma89566/Edu-Learn/internal/validator"
)

// EventSubscriber registers a named consumer for a topic
type EventSubscriber interface {
	Subscribe(topic, name string, handler events.HandlerFunc)
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	config    *config.Config
	publisher events.EventPublisher
	provider  llm.Provider

	// Service instances
	authService           AuthService
	contentService        ContentService
	quizService           QuizService
	adaptiveService       AdaptiveService
	gradingService        GradingService
	gamificationService   *gamificationService
	chatbotService        ChatbotService
	progressService       *progressService
	recommendationService RecommendationService
	adminService          AdminService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies.
// provider may be nil; the chatbot and grader then fall back to rules.
func NewServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, cfg *config.Config, publisher events.EventPublisher, provider llm.Provider) ServiceManager {
	return &serviceManager{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: validator,
		config:    cfg,
		publisher: publisher,
		provider:  provider,
	}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	sm.authService = NewAuthService(sm.repo, sm.db, sm.logger, sm.validator, sm.config.Auth)
	sm.contentService = NewContentService(sm.repo, sm.db, sm.logger, sm.validator, sm.publisher)
	sm.quizService = NewQuizService(sm.repo, sm.db, sm.logger, sm.validator, sm.publisher)
	sm.adaptiveService = NewAdaptiveService(sm.repo, sm.db, sm.logger, sm.validator, sm.publisher, adaptive.NewEngine(nil))
	sm.gradingService = NewGradingService(sm.repo, sm.db, sm.logger, sm.validator, sm.provider)
	sm.gamificationService = NewGamificationService(sm.repo, sm.db, sm.logger, sm.validator, sm.publisher).(*gamificationService)
	sm.chatbotService = NewChatbotService(sm.repo, sm.db, sm.logger, sm.validator, sm.provider)
	sm.progressService = NewProgressService(sm.repo, sm.db, sm.logger, sm.validator, sm.publisher).(*progressService)
	sm.recommendationService = NewRecommendationService(sm.repo, sm.db, sm.logger, sm.validator)
	sm.adminService = NewAdminService(sm.repo, sm.db, sm.logger, sm.validator, sm.authService)

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")
	return nil
}

// RegisterConsumers subscribes the reward and study-tracking handlers
func (sm *serviceManager) RegisterConsumers(sub EventSubscriber) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	sub.Subscribe(events.TopicAssessmentCompleted, "gamification.assessment", sm.gamificationService.HandleAssessmentCompleted)
	sub.Subscribe(events.TopicQuizCompleted, "gamification.quiz", sm.gamificationService.HandleQuizCompleted)

	sub.Subscribe(events.TopicActivityCompleted, "progress.activity", sm.progressService.HandleStudyEvent)
	sub.Subscribe(events.TopicQuizCompleted, "progress.quiz", sm.progressService.HandleStudyEvent)
	sub.Subscribe(events.TopicAssessmentCompleted, "progress.assessment", sm.progressService.HandleStudyEvent)

	sm.logger.Info("Event consumers registered")
}

// Service getters

func (sm *serviceManager) get() {
	if !sm.initialized {
		panic("service manager not initialized")
	}
}

func (sm *serviceManager) Auth() AuthService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.get()
	return sm.authService
}

func (sm *serviceManager) Content() ContentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.get()
	return sm.contentService
}

func (sm *serviceManager) Quiz() QuizService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.get()
	return sm.quizService
}

func (sm *serviceManager) Adaptive() AdaptiveService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.get()
	return sm.adaptiveService
}

func (sm *serviceManager) Grading() GradingService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.get()
	return sm.gradingService
}

func (sm *serviceManager) Gamification() GamificationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.get()
	return sm.gamificationService
}

func (sm *serviceManager) Chatbot() ChatbotService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.get()
	return sm.chatbotService
}

func (sm *serviceManager) Progress() ProgressService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.get()
	return sm.progressService
}

func (sm *serviceManager) Recommendation() RecommendationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.get()
	return sm.recommendationService
}

func (sm *serviceManager) Admin() AdminService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.get()
	return sm.adminService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	return nil
}

func (sm *serviceManager) CacheStats(ctx context.Context) map[string]interface{} {
	return sm.repo.CacheStats(ctx)
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")
	sm.shutdown = true

	if err := sm.repo.Close(); err != nil {
		return fmt.Errorf("failed to close repository: %w", err)
	}

	sm.logger.Info("Service manager shut down successfully")
	return nil
}
