package config

import (
	"os"
	"strconv"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for the image archive.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// DetectorConfig holds settings for the remote image-classification model.
// ModelID names a hosted model (e.g. "umm-maybe/ai-art-detector"); BaseURL
// points at the inference service that serves it.
type DetectorConfig struct {
	ModelID    string
	Token      string
	BaseURL    string
	TimeoutSec int
	MaxRetries int
}

// AnalysisConfig holds tunables for the scan pipeline.
type AnalysisConfig struct {
	MaxFiles        int
	MaxUploadMB     int
	NearDupDistance int
	Concurrency     int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	Detector DetectorConfig
	Analysis AnalysisConfig
	Database DatabaseConfig
	MinIO    MinIOConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8000"),
		Port:    getEnv("PORT", "8000"),
		Detector: DetectorConfig{
			ModelID:    getEnv("SAFESWIPE_MODEL_ID", "umm-maybe/ai-art-detector"),
			Token:      getEnv("SAFESWIPE_HF_TOKEN", ""),
			BaseURL:    getEnv("SAFESWIPE_INFERENCE_URL", "https://api-inference.huggingface.co"),
			TimeoutSec: getEnvInt("SAFESWIPE_INFERENCE_TIMEOUT_SEC", 30),
			MaxRetries: getEnvInt("SAFESWIPE_INFERENCE_MAX_RETRIES", 2),
		},
		Analysis: AnalysisConfig{
			MaxFiles:        getEnvInt("SAFESWIPE_MAX_FILES", 5),
			MaxUploadMB:     getEnvInt("SAFESWIPE_MAX_UPLOAD_MB", 10),
			NearDupDistance: getEnvInt("SAFESWIPE_NEAR_DUP_DISTANCE", 8),
			Concurrency:     getEnvInt("SAFESWIPE_ANALYSIS_CONCURRENCY", 3),
		},
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
