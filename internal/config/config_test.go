package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.NotEmpty(t, cfg.Auth.JWTSecret, "development secret should be filled")
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LLM_PROVIDER", "mock")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "mock", cfg.LLM.Provider)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name:    "production without secret",
			cfg:     Config{Environment: "production", Database: DatabaseConfig{Driver: "postgres"}},
			wantErr: ErrMissingJWTSecret,
		},
		{
			name:    "unknown driver",
			cfg:     Config{Auth: AuthConfig{JWTSecret: "x"}, Database: DatabaseConfig{Driver: "mysql"}},
			wantErr: ErrUnknownDBDriver,
		},
		{
			name:    "unknown provider",
			cfg:     Config{Auth: AuthConfig{JWTSecret: "x"}, Database: DatabaseConfig{Driver: "sqlite"}, LLM: LLMConfig{Provider: "llama"}},
			wantErr: ErrUnknownLLMProvider,
		},
		{
			name: "valid",
			cfg:  Config{Auth: AuthConfig{JWTSecret: "x"}, Database: DatabaseConfig{Driver: "sqlite"}, LLM: LLMConfig{Provider: "none"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edulearn.yaml")
	require.NoError(t, os.WriteFile(path, []byte("SERVER:\n  PORT: \"7070\"\nLOG_LEVEL: warn\n"), 0o600))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)

	t.Setenv("SERVER_PORT", "9191")
	cfg, err = LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "9191", cfg.Server.Port, "env wins over the file")

	_, err = LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
