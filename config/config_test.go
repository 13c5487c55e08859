package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AWS_S3_BUCKET", "elib-assets")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "s3", cfg.StorageDriver)
	assert.Equal(t, int64(10), cfg.MaxUploadMB)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxUploadBytes())
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_S3RequiresBucket(t *testing.T) {
	t.Setenv("AWS_S3_BUCKET", "")
	t.Setenv("STORAGE_DRIVER", "s3")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_MinioSettings(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "minio")
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("MINIO_ACCESS_KEY", "minio")
	t.Setenv("MINIO_SECRET_KEY", "minio123")
	t.Setenv("MINIO_BUCKET", "elib")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("STORAGE_PUBLIC_URL", "https://cdn.example.com/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "minio", cfg.StorageDriver)
	assert.True(t, cfg.MinioUseSSL)
	assert.Equal(t, "https://cdn.example.com", cfg.StoragePublicURL)
}

func TestLoad_ProductionRejectsDefaultSecret(t *testing.T) {
	t.Setenv("AWS_S3_BUCKET", "elib-assets")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoad_InvalidMaxUploadFallsBack(t *testing.T) {
	t.Setenv("AWS_S3_BUCKET", "elib-assets")
	t.Setenv("MAX_UPLOAD_MB", "lots")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(10), cfg.MaxUploadMB)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
}
