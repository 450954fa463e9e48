package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	ServerPort     int
	DatabasePath   string
	JWTSecret      string
	TokenTTL       time.Duration
	UploadDir      string // Base path for filesystem blob storage
	BlobBackend    string // "fs" or "s3"
	MaxUploadBytes int64
	UploadTimeout  time.Duration
	CORSOrigins    []string
	SnapshotCron   string // Cron expression for the stats snapshot job; empty disables it

	// S3 settings, used when BlobBackend is "s3". BaseEndpoint supports
	// minio and other S3-compatible stores.
	S3Region       string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string
	S3BaseEndpoint string
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	maxUpload, err := strconv.ParseInt(getEnv("MAX_UPLOAD_BYTES", "5242880"), 10, 64)
	if err != nil {
		return nil, err
	}

	uploadTimeout, err := time.ParseDuration(getEnv("UPLOAD_TIMEOUT", "30s"))
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:     port,
		DatabasePath:   getEnv("DATABASE_PATH", "./cleancity.db"),
		JWTSecret:      getEnv("JWT_SECRET", "cleancity-dev-secret-key-change-in-production"),
		TokenTTL:       7 * 24 * time.Hour,
		UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
		BlobBackend:    getEnv("BLOB_BACKEND", "fs"),
		MaxUploadBytes: maxUpload,
		UploadTimeout:  uploadTimeout,
		CORSOrigins:    strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		SnapshotCron:   getEnv("STATS_SNAPSHOT_CRON", ""),
		S3Region:       getEnv("S3_REGION", "us-east-1"),
		S3Bucket:       getEnv("S3_BUCKET", "cleancity-images"),
		S3AccessKey:    getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:    getEnv("S3_SECRET_KEY", ""),
		S3BaseEndpoint: getEnv("S3_BASE_ENDPOINT", ""),
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
