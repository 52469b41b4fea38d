package config

import (
	"fmt"
	"time"

	"floorplan-server/internal/shared/utils"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Frontend  FrontendConfig
	Logging   LoggingConfig
	RateLimit RateLimitConfig
	Floorplan FloorplanConfig
}

type ServerConfig struct {
	Port            string
	URL             string
	Environment     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationsPath  string
}

type RedisConfig struct {
	Enabled  bool
	URL      string
	Host     string
	Port     string
	Password string
	DB       int
	CacheTTL time.Duration
}

type AuthConfig struct {
	Enabled         bool
	JWTSecret       string
	TokenExpiration time.Duration
}

type FrontendConfig struct {
	URL       string
	CORSDebug bool
}

type LoggingConfig struct {
	Level      string
	Format     string
	JSONFormat bool
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
	TrustProxy        bool
}

// FloorplanConfig holds the routing and ingestion knobs of the floorplan service.
type FloorplanConfig struct {
	SnapThreshold     float64
	UpstairsProxyName string
	CongestionWorkers int
	ImageDir          string
	MaxUploadBytes    int64
}

var GlobalConfig *Config

func Init() error {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using system environment variables")
	}

	config, err := load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := config.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	GlobalConfig = config
	return nil
}

func load() (*Config, error) {
	config := &Config{
		Server:    loadServerConfig(),
		Database:  loadDatabaseConfig(),
		Redis:     loadRedisConfig(),
		Auth:      loadAuthConfig(),
		Frontend:  loadFrontendConfig(),
		Logging:   loadLoggingConfig(),
		RateLimit: loadRateLimitConfig(),
		Floorplan: loadFloorplanConfig(),
	}

	return config, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:            utils.GetEnv("SERVER_PORT", "8080"),
		URL:             utils.GetEnv("SERVER_URL", "http://localhost:8080"),
		Environment:     utils.GetEnv("ENVIRONMENT", "development"),
		ReadTimeout:     time.Duration(utils.GetEnvInt("SERVER_READ_TIMEOUT_SECONDS", 15)) * time.Second,
		WriteTimeout:    time.Duration(utils.GetEnvInt("SERVER_WRITE_TIMEOUT_SECONDS", 60)) * time.Second,
		IdleTimeout:     time.Duration(utils.GetEnvInt("SERVER_IDLE_TIMEOUT_SECONDS", 60)) * time.Second,
		ShutdownTimeout: time.Duration(utils.GetEnvInt("SERVER_SHUTDOWN_TIMEOUT_SECONDS", 10)) * time.Second,
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Enabled:         utils.GetEnvBool("DB_ENABLED", true),
		Host:            utils.GetEnv("DB_HOST", "localhost"),
		Port:            utils.GetEnv("DB_PORT", "5432"),
		User:            utils.GetEnv("DB_USER", "postgres"),
		Password:        utils.GetEnv("DB_PASSWORD", "postgres"),
		Name:            utils.GetEnv("DB_NAME", "floorplans"),
		SSLMode:         utils.GetEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    utils.GetEnvInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    utils.GetEnvInt("DB_MAX_IDLE_CONNS", 2),
		ConnMaxLifetime: time.Duration(utils.GetEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
		MigrationsPath:  utils.GetEnv("DB_MIGRATIONS_PATH", "migrations"),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Enabled:  utils.GetEnvBool("REDIS_ENABLED", false),
		URL:      utils.GetEnv("REDIS_URL", ""),
		Host:     utils.GetEnv("REDIS_HOST", "localhost"),
		Port:     utils.GetEnv("REDIS_PORT", "6379"),
		Password: utils.GetEnv("REDIS_PASSWORD", ""),
		DB:       utils.GetEnvInt("REDIS_DB", 0),
		CacheTTL: time.Duration(utils.GetEnvInt("REDIS_CONGESTION_TTL_MINUTES", 30)) * time.Minute,
	}
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		Enabled:         utils.GetEnvBool("AUTH_ENABLED", true),
		JWTSecret:       utils.GetEnv("JWT_SECRET", ""),
		TokenExpiration: time.Duration(utils.GetEnvInt("JWT_EXPIRATION_HOURS", 24)) * time.Hour,
	}
}

func loadFrontendConfig() FrontendConfig {
	return FrontendConfig{
		URL:       utils.GetEnv("FRONTEND_URL", "http://localhost:3000"),
		CORSDebug: utils.GetEnv("CORS_DEBUG", "") == "true",
	}
}

func loadLoggingConfig() LoggingConfig {
	environment := utils.GetEnv("ENVIRONMENT", "development")
	jsonFormat := environment == "production" || utils.GetEnv("LOG_FORMAT", "text") == "json"

	return LoggingConfig{
		Level:      utils.GetEnv("LOG_LEVEL", "debug"),
		Format:     utils.GetEnv("LOG_FORMAT", "text"),
		JSONFormat: jsonFormat,
	}
}

func loadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:           utils.GetEnv("RATE_LIMIT_ENABLED", "true") == "true",
		RequestsPerSecond: utils.GetEnvFloat("RATE_LIMIT_REQUESTS_PER_SECOND", 10),
		BurstSize:         utils.GetEnvInt("RATE_LIMIT_BURST_SIZE", 20),
		TrustProxy:        utils.GetEnvBool("RATE_LIMIT_TRUST_PROXY", false),
	}
}

func loadFloorplanConfig() FloorplanConfig {
	return FloorplanConfig{
		SnapThreshold:     utils.GetEnvFloat("FLOORPLAN_SNAP_THRESHOLD", 0.03),
		UpstairsProxyName: utils.GetEnv("FLOORPLAN_UPSTAIRS_PROXY", "Upstairs"),
		CongestionWorkers: utils.GetEnvInt("FLOORPLAN_CONGESTION_WORKERS", 4),
		ImageDir:          utils.GetEnv("FLOORPLAN_IMAGE_DIR", "static/floorplans"),
		MaxUploadBytes:    int64(utils.GetEnvInt("FLOORPLAN_MAX_UPLOAD_MB", 10)) << 20,
	}
}

func (c *Config) validate() error {
	if c.Auth.Enabled {
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when AUTH_ENABLED is true")
		}
		if len(c.Auth.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters long")
		}
	}

	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required")
		}
	}

	if c.Floorplan.SnapThreshold <= 0 {
		return fmt.Errorf("FLOORPLAN_SNAP_THRESHOLD must be positive")
	}

	if c.Floorplan.CongestionWorkers < 1 {
		return fmt.Errorf("FLOORPLAN_CONGESTION_WORKERS must be at least 1")
	}

	return nil
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
