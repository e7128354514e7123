package seed

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tusharsharma89566/Edu-Learn/internal/config"
	"github.com/tusharsharma89566/Edu-Learn/internal/events"
	"github.com/tusharsharma89566/Edu-Learn/internal/repositories/postgres"
	"github.com/tusharsharma89566/Edu-Learn/internal/services"
	"github.com/tusharsharma89566/Edu-Learn/internal/validator"
	"github.com/tusharsharma89566/Edu-Learn/pkg"
)

func newServices(t *testing.T) services.ServiceManager {
	t.Helper()
	db, err := pkg.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		Environment: "test",
		Auth: config.AuthConfig{
			JWTSecret:  "seed-secret",
			Issuer:     "edulearn-test",
			TokenTTL:   time.Hour,
			BcryptCost: 4,
		},
	}
	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db})
	sm := services.NewServiceManager(db, repo, logger, validator.New(), cfg, events.NewMockEventPublisher(logger), nil)
	require.NoError(t, sm.Initialize(context.Background()))
	return sm
}

func TestParse(t *testing.T) {
	_, err := Parse([]byte("admin: [unclosed"))
	assert.Error(t, err)

	_, err = Parse([]byte("faqs: []\n"))
	assert.ErrorContains(t, err, "admin email")

	f, err := Parse([]byte(`
admin:
  username: root
  email: root@example.com
  password: Root1234!
badges:
  - name: Starter
    criteria_type: points
    criteria_value: 5
`))
	require.NoError(t, err)
	assert.Equal(t, "root", f.Admin.Username)
	require.Len(t, f.Badges, 1)
	assert.Equal(t, 5.0, f.Badges[0].CriteriaValue)
	assert.Empty(t, f.FAQs)
}

func TestDefault(t *testing.T) {
	f, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", f.Admin.Email)
	assert.Len(t, f.FAQs, 3)
	assert.Len(t, f.Badges, 4)
	for _, b := range f.Badges {
		assert.NotEmpty(t, b.CriteriaType, b.Name)
	}
}

func TestSeeder_ApplyIsIdempotent(t *testing.T) {
	sm := newServices(t)
	ctx := context.Background()
	seeder := NewSeeder(sm, slog.New(slog.NewTextHandler(io.Discard, nil)))

	f, err := Default()
	require.NoError(t, err)

	first, err := seeder.Apply(ctx, f)
	require.NoError(t, err)
	assert.True(t, first.AdminCreated)
	assert.Equal(t, 3, first.FAQs)
	assert.Equal(t, 4, first.Badges)

	second, err := seeder.Apply(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, &Result{}, second)

	faqs, err := sm.Chatbot().ListFAQs(ctx)
	require.NoError(t, err)
	assert.Len(t, faqs, 3)
	badges, err := sm.Gamification().ListBadges(ctx)
	require.NoError(t, err)
	assert.Len(t, badges, 4)

	resp, err := sm.Auth().Login(ctx, &services.LoginRequest{Email: f.Admin.Email, Password: f.Admin.Password})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
}

func TestSeeder_RejectsNonAdminAccount(t *testing.T) {
	sm := newServices(t)
	ctx := context.Background()

	_, err := sm.Auth().Register(ctx, &services.RegisterRequest{
		Username: "taken",
		Email:    "admin@example.com",
		Password: "Student123!",
		Role:     "student",
	})
	require.NoError(t, err)

	f, err := Default()
	require.NoError(t, err)
	_, err = NewSeeder(sm, slog.New(slog.NewTextHandler(io.Discard, nil))).Apply(ctx, f)
	assert.ErrorContains(t, err, "without the admin role")
}
