package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Auth         AuthConfig
	Orchestrator OrchestratorConfig
	CRM          CRMConfig
	Files        FilesConfig
	Chat         ChatConfig
	App          AppConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig points at the external user pool. Tokens are verified against
// its JWKS endpoint; this service never issues credentials.
type AuthConfig struct {
	JWKSURL  string
	Issuer   string
	Audience string
}

// OrchestratorConfig configures the generation pipeline backend.
type OrchestratorConfig struct {
	BaseURL        string
	CallbackURL    string
	CallbackSecret string
	PollInterval   time.Duration
}

// CRMConfig configures the HubSpot read mirror.
type CRMConfig struct {
	BaseURL      string
	Token        string
	SyncSchedule string
}

type FilesConfig struct {
	Bucket    string
	Region    string
	PresignTO time.Duration
}

type ChatConfig struct {
	RAGBaseURL string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "sowdesk"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 10),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWKSURL:  getEnv("AUTH_JWKS_URL", ""),
			Issuer:   getEnv("AUTH_ISSUER", ""),
			Audience: getEnv("AUTH_AUDIENCE", ""),
		},
		Orchestrator: OrchestratorConfig{
			BaseURL:        getEnv("ORCHESTRATOR_URL", ""),
			CallbackURL:    getEnv("GENERATION_CALLBACK_URL", ""),
			CallbackSecret: getEnv("GENERATION_CALLBACK_SECRET", ""),
			PollInterval:   getEnvAsDuration("GENERATION_POLL_INTERVAL", 15*time.Second),
		},
		CRM: CRMConfig{
			BaseURL:      getEnv("HUBSPOT_BASE_URL", "https://api.hubapi.com"),
			Token:        getEnv("HUBSPOT_TOKEN", ""),
			SyncSchedule: getEnv("CRM_SYNC_SCHEDULE", "0 0 2 * * *"),
		},
		Files: FilesConfig{
			Bucket:    getEnv("FILES_BUCKET", ""),
			Region:    getEnv("AWS_REGION", "us-east-1"),
			PresignTO: getEnvAsDuration("FILES_PRESIGN_TTL", 15*time.Minute),
		},
		Chat: ChatConfig{
			RAGBaseURL: getEnv("RAG_URL", ""),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}

	if c.App.Environment == "production" {
		if c.Auth.JWKSURL == "" {
			return fmt.Errorf("AUTH_JWKS_URL is required in production")
		}
		if c.Orchestrator.CallbackSecret == "" {
			return fmt.Errorf("GENERATION_CALLBACK_SECRET is required in production")
		}
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}
