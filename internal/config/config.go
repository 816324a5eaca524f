package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds all configuration for the application
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Server     ServerConfig
	Auth       AuthConfig
	Kafka      KafkaConfig
	Cloudinary CloudinaryConfig
	Worker     WorkerConfig
	Scheduler  SchedulerConfig
}

type AppConfig struct {
	Env        string
	LogLevel   string
	NanoIDSize int
}

// DatabaseConfig holds database configuration.
// Driver is "postgres" in every deployed environment; "sqlite" is for local runs.
type DatabaseConfig struct {
	Driver       string
	URL          string
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	SQLitePath   string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	DB       int
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int
	AllowOrigins    string
	ShutdownTimeout time.Duration
}

type AuthConfig struct {
	JWTSecret    string
	TokenTTL     time.Duration
	CookieName   string
	CookieSecure bool
	Kakao        KakaoConfig
}

type KakaoConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// KafkaConfig is optional; with no brokers events only reach websocket clients.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type CloudinaryConfig struct {
	URL    string
	Folder string
}

type WorkerConfig struct {
	Count     int
	QueueSize int
}

type SchedulerConfig struct {
	Enabled  bool
	TimeZone string
}

// Load loads configuration from environment variables
func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../.env"); err != nil {
			logger.Debug().Msg("no .env file found, using environment variables")
		}
	}

	cfg := &Config{
		App: AppConfig{
			Env:        getEnv("APP_ENV", "development"),
			LogLevel:   getEnv("LOG_LEVEL", "info"),
			NanoIDSize: getEnvAsInt("NANOID_SIZE", 21),
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "postgres"),
			URL:          getEnv("DATABASE_URL", ""),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			DBName:       getEnv("DB_NAME", "sportsmatch"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			SQLitePath:   getEnv("SQLITE_PATH", "sportsmatch.db"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 30),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Username: getEnv("REDIS_USERNAME", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Server: ServerConfig{
			Port:            getEnvAsInt("PORT", 8000),
			AllowOrigins:    getEnv("ALLOW_ORIGINS", "*"),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:    getEnv("JWT_SECRET", ""),
			TokenTTL:     getEnvAsDuration("JWT_TTL", 2*time.Hour),
			CookieName:   getEnv("AUTH_COOKIE_NAME", "accessToken"),
			CookieSecure: getEnvAsBool("AUTH_COOKIE_SECURE", false),
			Kakao: KakaoConfig{
				ClientID:     getEnv("KAKAO_CLIENT_ID", ""),
				ClientSecret: getEnv("KAKAO_CLIENT_SECRET", ""),
				RedirectURL:  getEnv("KAKAO_REDIRECT_URI", ""),
			},
		},
		Kafka: KafkaConfig{
			Brokers: getEnvAsSlice("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_TOPIC", "sportsmatch.events"),
		},
		Cloudinary: CloudinaryConfig{
			URL:    getEnv("CLOUDINARY_URL", ""),
			Folder: getEnv("CLOUDINARY_FOLDER", "profiles"),
		},
		Worker: WorkerConfig{
			Count:     getEnvAsInt("WORKER_COUNT", 4),
			QueueSize: getEnvAsInt("WORKER_QUEUE_SIZE", 256),
		},
		Scheduler: SchedulerConfig{
			Enabled:  getEnvAsBool("SCHEDULER_ENABLED", true),
			TimeZone: getEnv("TZ_NAME", "Asia/Seoul"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger.Info().
		Str("env", cfg.App.Env).
		Str("db_driver", cfg.Database.Driver).
		Int("port", cfg.Server.Port).
		Bool("kafka", len(cfg.Kafka.Brokers) > 0).
		Bool("cloudinary", cfg.Cloudinary.URL != "").
		Msg("configuration loaded")

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		if !c.IsDevelopment() {
			return errors.New("JWT_SECRET is required")
		}
		c.Auth.JWTSecret = "development-secret"
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if _, err := time.LoadLocation(c.Scheduler.TimeZone); err != nil {
		return fmt.Errorf("invalid TZ_NAME %q: %w", c.Scheduler.TimeZone, err)
	}
	if c.App.NanoIDSize <= 0 {
		c.App.NanoIDSize = 21
	}
	return nil
}

// IsDevelopment reports whether relaxed defaults are allowed
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development" || c.App.Env == "test"
}

// GetDSN returns the PostgreSQL DSN
func (c *Config) GetDSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Location returns the zone used for calendar math (day windows, midnight jobs).
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsSlice splits a comma separated variable, dropping empty items
func getEnvAsSlice(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
