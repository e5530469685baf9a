package common

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Redis    RedisConfig
	GenAI    GenAIConfig
	Pipeline PipelineConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN         string
	DialTimeout time.Duration
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr string
}

// RedisConfig holds redis-related configuration. Redis is optional: when
// Addr is empty the import lock and invalidation signal are disabled.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// GenAIConfig holds the generative-AI provider configuration.
type GenAIConfig struct {
	BaseURL     string
	APIKey      string
	TextModel   string
	VisionModel string
	Timeout     time.Duration
}

// PipelineConfig holds the import pipeline business limits.
type PipelineConfig struct {
	MaxUploadBytes     int64
	MaxItemsPerDoc     int
	NewRecordCap       int
	EnrichDelay        time.Duration
	ImportLockTTL      time.Duration
	EnhanceVisionInput bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:         getEnv("DB_URL", ""),
			DialTimeout: getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			Addr: getEnv("HTTP_ADDR", ":8080"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		GenAI: GenAIConfig{
			BaseURL:     getEnv("GENAI_BASE_URL", "https://generativelanguage.googleapis.com/v1"),
			APIKey:      getEnv("GENAI_API_KEY", ""),
			TextModel:   getEnv("GENAI_TEXT_MODEL", "gemini-2.5-flash"),
			VisionModel: getEnv("GENAI_VISION_MODEL", "gemini-2.5-flash"),
			Timeout:     getEnvAsDuration("GENAI_TIMEOUT", 45*time.Second),
		},
		Pipeline: PipelineConfig{
			MaxUploadBytes:     getEnvAsInt64("MAX_UPLOAD_BYTES", 10<<20),
			MaxItemsPerDoc:     getEnvAsInt("MAX_ITEMS_PER_DOC", 50),
			NewRecordCap:       getEnvAsInt("NEW_RECORD_CAP", 10),
			EnrichDelay:        getEnvAsDuration("ENRICH_DELAY", time.Second),
			ImportLockTTL:      getEnvAsDuration("IMPORT_LOCK_TTL", 2*time.Minute),
			EnhanceVisionInput: getEnvAsBool("ENHANCE_VISION_INPUT", true),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return errors.New("DB_URL is required")
	}
	if c.GenAI.APIKey == "" {
		return errors.New("GENAI_API_KEY is required")
	}
	if c.Pipeline.NewRecordCap <= 0 {
		return errors.New("NEW_RECORD_CAP must be positive")
	}
	return nil
}
