package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const defaultJWTSecret = "change-me-in-production"

// Config is built once at startup and handed to every component that needs it.
type Config struct {
	Port        string `validate:"required,numeric"`
	Env         string `validate:"oneof=development production test"`
	LogLevel    string `validate:"oneof=debug info warn error"`
	MongoURI    string `validate:"required"`
	DBName      string `validate:"required"`
	JWTSecret   string `validate:"required"`
	CORSOrigins []string

	StorageDriver    string `validate:"oneof=s3 minio"`
	StoragePublicURL string
	S3Bucket         string `validate:"required_if=StorageDriver s3"`
	S3Region         string
	S3AccessKeyID    string
	S3SecretKey      string
	S3Endpoint       string
	MinioEndpoint    string `validate:"required_if=StorageDriver minio"`
	MinioAccessKey   string `validate:"required_if=StorageDriver minio"`
	MinioSecretKey   string `validate:"required_if=StorageDriver minio"`
	MinioBucket      string `validate:"required_if=StorageDriver minio"`
	MinioUseSSL      bool

	UploadDir   string `validate:"required"`
	MaxUploadMB int64  `validate:"min=1"`
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

// MaxUploadBytes is the size limit applied to each uploaded file part.
func (c *Config) MaxUploadBytes() int64 { return c.MaxUploadMB * 1024 * 1024 }

func Load() (*Config, error) {
	maxMB := int64(10)
	if v := getEnv("MAX_UPLOAD_MB", "10"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			maxMB = n
		}
	}
	useSSL, _ := strconv.ParseBool(getEnv("MINIO_USE_SSL", "false"))

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		Env:              strings.ToLower(getEnv("APP_ENV", "development")),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", "info")),
		MongoURI:         getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DBName:           getEnv("MONGODB_DB", "elib"),
		JWTSecret:        getEnv("JWT_SECRET", defaultJWTSecret),
		CORSOrigins:      splitList(getEnv("CORS_ORIGINS", "*")),
		StorageDriver:    strings.ToLower(getEnv("STORAGE_DRIVER", "s3")),
		StoragePublicURL: strings.TrimRight(getEnv("STORAGE_PUBLIC_URL", ""), "/"),
		S3Bucket:         getEnv("AWS_S3_BUCKET", ""),
		S3Region:         getEnv("AWS_REGION", "us-east-1"),
		S3AccessKeyID:    getEnv("AWS_ACCESS_KEY_ID", ""),
		S3SecretKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
		S3Endpoint:       getEnv("AWS_S3_ENDPOINT", ""),
		MinioEndpoint:    getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey:   getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:   getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:      getEnv("MINIO_BUCKET", ""),
		MinioUseSSL:      useSSL,
		UploadDir:        getEnv("UPLOAD_DIR", "public/data/uploads"),
		MaxUploadMB:      maxMB,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if c.IsProduction() && c.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be set to a strong secret in production")
	}
	return nil
}

// LogSummary logs the loaded settings without secret values.
func (c *Config) LogSummary(logger *slog.Logger) {
	logger.Info("config loaded",
		"env", c.Env,
		"port", c.Port,
		"db", c.DBName,
		"storage", c.StorageDriver,
		"uploadDir", c.UploadDir,
		"maxUploadMB", c.MaxUploadMB,
	)
	if c.JWTSecret == defaultJWTSecret {
		logger.Warn("JWT_SECRET is the default placeholder; set a strong secret")
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
