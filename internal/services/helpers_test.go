package services

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tusharsharma89566/Edu-Learn/internal/config"
	"github.com/tusharsharma89566/Edu-Learn/internal/events"
	"github.com/tusharsharma89566/Edu-Learn/internal/llm"
	"github.com/tusharsharma89566/Edu-Learn/internal/models"
	"github.com/tusharsharma89566/Edu-Learn/internal/repositories"
	"github.com/tusharsharma89566/Edu-Learn/internal/repositories/postgres"
	"github.com/tusharsharma89566/Edu-Learn/internal/validator"
	"github.com/tusharsharma89566/Edu-Learn/pkg"
)

const testJWTSecret = "test-secret"

type testEnv struct {
	ctx       context.Context
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher *events.MockEventPublisher
	provider  *llm.MockProvider
	sm        ServiceManager
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Auth: config.AuthConfig{
			JWTSecret:  testJWTSecret,
			Issuer:     "edulearn-test",
			TokenTTL:   time.Hour,
			BcryptCost: 4,
		},
	}
}

// newTestEnv wires every service over a fresh in-memory database
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithCache(t, nil)
}

// newTestEnvWithCache is newTestEnv with the repository cache backed by client
func newTestEnvWithCache(t *testing.T, client *redis.Client) *testEnv {
	t.Helper()

	db, err := pkg.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &testEnv{
		ctx:       context.Background(),
		db:        db,
		repo:      postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db, RedisClient: client}),
		logger:    logger,
		validator: validator.New(),
		publisher: events.NewMockEventPublisher(logger),
		provider:  llm.NewMockProvider(),
	}
	env.sm = NewServiceManager(db, env.repo, logger, env.validator, testConfig(), env.publisher, env.provider)
	require.NoError(t, env.sm.Initialize(env.ctx))
	return env
}

func (e *testEnv) createUser(t *testing.T, role models.UserRole) *models.User {
	t.Helper()
	id := uuid.NewString()
	short := strings.ReplaceAll(id, "-", "")[:10]
	user := &models.User{
		ID:           id,
		Username:     string(role) + "_" + short,
		Email:        short + "@example.com",
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, e.repo.User().Create(e.ctx, nil, user))
	return user
}

func (e *testEnv) createCourse(t *testing.T, instructorID, title string) *models.Course {
	t.Helper()
	course, err := e.sm.Content().CreateCourse(e.ctx, &CreateCourseRequest{
		Title:    title,
		Category: "programming",
		Level:    "beginner",
	}, instructorID)
	require.NoError(t, err)
	return course
}

func (e *testEnv) createTopic(t *testing.T, courseID uint, instructorID, title string) *models.Topic {
	t.Helper()
	topic, err := e.sm.Content().CreateTopic(e.ctx, courseID, &TopicRequest{Title: title}, instructorID)
	require.NoError(t, err)
	return topic
}

func (e *testEnv) enroll(t *testing.T, courseID uint, studentID string) {
	t.Helper()
	_, err := e.sm.Content().Enroll(e.ctx, courseID, studentID)
	require.NoError(t, err)
}

func ptr[T any](v T) *T { return &v }
