package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	OpenAIAPIKey   string `env:"OPENAI_API_KEY" envDefault:"-"`
	OpenAIModel    string `env:"OPENAI_MODEL" envDefault:"gpt-4"`
	TavilyAPIKey   string `env:"TAVILY_API_KEY" envDefault:"-"`
	Timeframe      string `env:"TIMEFRAME" envDefault:"12 months"`
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"file"` // file or postgres
	StorageFile    string `env:"STORAGE_FILE" envDefault:"forecasts.jsonl"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	RequestTimeout int    `env:"REQUEST_TIMEOUT" envDefault:"30"` // seconds
	MaxResults     int    `env:"SEARCH_MAX_RESULTS" envDefault:"5"`
	DBHost         string `env:"DB_HOST" envDefault:"localhost"`
	DBPort         string `env:"DB_PORT" envDefault:"5432"`
	DBUser         string `env:"DB_USER" envDefault:"postgres"`
	DBPassword     string `env:"DB_PASSWORD" envDefault:"-"`
	DBName         string `env:"DB_NAME" envDefault:"superforecaster"`
	DBSSLMode      string `env:"DB_SSLMODE" envDefault:"disable"`
	BotToken       string `env:"TELEGRAM_BOT_TOKEN" envDefault:"-"`
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAIModel = getEnvWithDefault("OPENAI_MODEL", "gpt-4")
	cfg.TavilyAPIKey = os.Getenv("TAVILY_API_KEY")
	cfg.Timeframe = getEnvWithDefault("TIMEFRAME", "12 months")
	cfg.StorageBackend = getEnvWithDefault("STORAGE_BACKEND", "file")
	cfg.StorageFile = getEnvWithDefault("STORAGE_FILE", "forecasts.jsonl")
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)
	cfg.MaxResults = getEnvIntWithDefault("SEARCH_MAX_RESULTS", 5)
	cfg.DBHost = getEnvWithDefault("DB_HOST", "localhost")
	cfg.DBPort = getEnvWithDefault("DB_PORT", "5432")
	cfg.DBUser = getEnvWithDefault("DB_USER", "postgres")
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	cfg.DBName = getEnvWithDefault("DB_NAME", "superforecaster")
	cfg.DBSSLMode = getEnvWithDefault("DB_SSLMODE", "disable")
	cfg.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")

	return &cfg, nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
