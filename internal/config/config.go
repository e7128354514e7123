package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Environment string     `mapstructure:"ENVIRONMENT"`
	LogLevel    slog.Level `mapstructure:"-"`
	LogLevelRaw string     `mapstructure:"LOG_LEVEL"`

	Server    ServerConfig    `mapstructure:"SERVER"`
	Database  DatabaseConfig  `mapstructure:"DATABASE"`
	Redis     RedisConfig     `mapstructure:"REDIS"`
	Auth      AuthConfig      `mapstructure:"AUTH"`
	Kafka     KafkaConfig     `mapstructure:"KAFKA"`
	LLM       LLMConfig       `mapstructure:"LLM"`
	Telemetry TelemetryConfig `mapstructure:"TELEMETRY"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"PORT"`
	Mode         string        `mapstructure:"MODE"`
	ReadTimeout  time.Duration `mapstructure:"READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"WRITE_TIMEOUT"`
	CORSOrigins  []string      `mapstructure:"CORS_ORIGINS"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"DRIVER"` // postgres | sqlite
	DSN             string        `mapstructure:"DSN"`
	MaxOpenConns    int           `mapstructure:"MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"CONN_MAX_LIFETIME"`
	AutoMigrate     bool          `mapstructure:"AUTO_MIGRATE"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"ENABLED"`
	Addr     string `mapstructure:"ADDR"`
	Password string `mapstructure:"PASSWORD"`
	DB       int    `mapstructure:"DB"`
}

type AuthConfig struct {
	JWTSecret  string        `mapstructure:"JWT_SECRET"`
	Issuer     string        `mapstructure:"ISSUER"`
	TokenTTL   time.Duration `mapstructure:"TOKEN_TTL"`
	BcryptCost int           `mapstructure:"BCRYPT_COST"`
}

type KafkaConfig struct {
	Enabled       bool     `mapstructure:"ENABLED"`
	Brokers       []string `mapstructure:"BROKERS"`
	ConsumerGroup string   `mapstructure:"CONSUMER_GROUP"`
}

type LLMConfig struct {
	Provider        string        `mapstructure:"PROVIDER"` // gemini | openai | anthropic | mock | none
	GeminiAPIKey    string        `mapstructure:"GEMINI_API_KEY"`
	GeminiModel     string        `mapstructure:"GEMINI_MODEL"`
	OpenAIAPIKey    string        `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel     string        `mapstructure:"OPENAI_MODEL"`
	AnthropicAPIKey string        `mapstructure:"ANTHROPIC_API_KEY"`
	AnthropicModel  string        `mapstructure:"ANTHROPIC_MODEL"`
	MaxRetries      int           `mapstructure:"MAX_RETRIES"`
	BaseDelay       time.Duration `mapstructure:"BASE_DELAY"`
	Timeout         time.Duration `mapstructure:"TIMEOUT"`
}

type TelemetryConfig struct {
	TracingEnabled bool    `mapstructure:"TRACING_ENABLED"`
	OTLPEndpoint   string  `mapstructure:"OTLP_ENDPOINT"`
	SampleRatio    float64 `mapstructure:"SAMPLE_RATIO"`
	MetricsEnabled bool    `mapstructure:"METRICS_ENABLED"`
	ServiceName    string  `mapstructure:"SERVICE_NAME"`
}

var (
	ErrMissingJWTSecret     = errors.New("AUTH_JWT_SECRET is required in production")
	ErrUnknownDBDriver      = errors.New("unknown database driver")
	ErrUnknownLLMProvider   = errors.New("unknown llm provider")
	defaultDevelopmentToken = "edulearn-dev-secret-change-me"
)

// LoadConfig loads configuration with the file named by CONFIG_FILE, if any
func LoadConfig() (*Config, error) {
	return LoadConfigFile(os.Getenv("CONFIG_FILE"))
}

// LoadConfigFile loads configuration from .env, an optional config file and the environment.
// Nested keys are read from env vars joined by underscore, e.g. DATABASE_DSN or LLM_PROVIDER.
func LoadConfigFile(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// viper does not split env lists on commas
	cfg.Server.CORSOrigins = splitList(v.GetString("SERVER.CORS_ORIGINS"))
	cfg.Kafka.Brokers = splitList(v.GetString("KAFKA.BROKERS"))
	cfg.LogLevel = parseLevel(cfg.LogLevelRaw)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("SERVER.PORT", "8080")
	v.SetDefault("SERVER.MODE", "debug")
	v.SetDefault("SERVER.READ_TIMEOUT", "15s")
	v.SetDefault("SERVER.WRITE_TIMEOUT", "30s")
	v.SetDefault("SERVER.CORS_ORIGINS", "*")

	v.SetDefault("DATABASE.DRIVER", "sqlite")
	v.SetDefault("DATABASE.DSN", "edulearn.db")
	v.SetDefault("DATABASE.MAX_OPEN_CONNS", 25)
	v.SetDefault("DATABASE.MAX_IDLE_CONNS", 5)
	v.SetDefault("DATABASE.CONN_MAX_LIFETIME", "30m")
	v.SetDefault("DATABASE.AUTO_MIGRATE", true)

	v.SetDefault("REDIS.ENABLED", false)
	v.SetDefault("REDIS.ADDR", "localhost:6379")
	v.SetDefault("REDIS.PASSWORD", "")
	v.SetDefault("REDIS.DB", 0)

	v.SetDefault("AUTH.JWT_SECRET", "")
	v.SetDefault("AUTH.ISSUER", "edulearn")
	v.SetDefault("AUTH.TOKEN_TTL", "24h")
	v.SetDefault("AUTH.BCRYPT_COST", 10)

	v.SetDefault("KAFKA.ENABLED", false)
	v.SetDefault("KAFKA.BROKERS", "localhost:9092")
	v.SetDefault("KAFKA.CONSUMER_GROUP", "edulearn")

	v.SetDefault("LLM.PROVIDER", "none")
	v.SetDefault("LLM.GEMINI_API_KEY", "")
	v.SetDefault("LLM.GEMINI_MODEL", "gemini-2.0-flash")
	v.SetDefault("LLM.OPENAI_API_KEY", "")
	v.SetDefault("LLM.OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("LLM.ANTHROPIC_API_KEY", "")
	v.SetDefault("LLM.ANTHROPIC_MODEL", "claude-3-5-haiku-latest")
	v.SetDefault("LLM.MAX_RETRIES", 3)
	v.SetDefault("LLM.BASE_DELAY", "1s")
	v.SetDefault("LLM.TIMEOUT", "30s")

	v.SetDefault("TELEMETRY.TRACING_ENABLED", false)
	v.SetDefault("TELEMETRY.OTLP_ENDPOINT", "")
	v.SetDefault("TELEMETRY.SAMPLE_RATIO", 1.0)
	v.SetDefault("TELEMETRY.METRICS_ENABLED", true)
	v.SetDefault("TELEMETRY.SERVICE_NAME", "edulearn")
}

// Validate checks the loaded configuration and fills the development JWT secret.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		if c.IsProduction() {
			return ErrMissingJWTSecret
		}
		c.Auth.JWTSecret = defaultDevelopmentToken
	}

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDBDriver, c.Database.Driver)
	}

	switch c.LLM.Provider {
	case "gemini", "openai", "anthropic", "mock", "none", "":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownLLMProvider, c.LLM.Provider)
	}

	return nil
}

// IsProduction reports whether the service runs in release mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Server.Mode == "release"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
