package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noEnvFile points Load at a file that does not exist so a stray .env in
// the package directory cannot leak into the test.
func noEnvFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	// Arrange
	for _, k := range []string{"IP", "PORT", "MONGO_DBNAME", "UPLOAD_FOLDER", "REDIS_ADDR", "MINIO_ENDPOINT", "SESSION_LIFETIME"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	// Act
	cfg, err := Load(noEnvFile(t))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.IP)
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "0.0.0.0:5000", cfg.Addr())
	assert.Equal(t, "forum", cfg.MongoDBName)
	assert.Equal(t, "profile_images", cfg.UploadFolder)
	assert.Equal(t, 24*time.Hour, cfg.SessionLifetime)
	assert.False(t, cfg.UseRedis())
	assert.False(t, cfg.UseMinio())
}

func TestLoad_FromEnvironment(t *testing.T) {
	// Arrange
	envVars := map[string]string{
		"IP":                   "127.0.0.1",
		"PORT":                 "8080",
		"MONGO_URI":            "mongodb://db:27017",
		"MONGO_DBNAME":         "boards",
		"SECRET_KEY":           "s3cret",
		"REDIS_ADDR":           "redis:6379",
		"MINIO_ENDPOINT":       "minio:9000",
		"MINIO_USE_SSL":        "true",
		"SESSION_LIFETIME":     "90m",
		"CORS_ALLOWED_ORIGINS": "http://a.test,http://b.test",
		"LOGIN_RATE_BURST":     "3",
	}
	for k, v := range envVars {
		t.Setenv(k, v)
	}

	// Act
	cfg, err := Load(noEnvFile(t))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
	assert.Equal(t, "mongodb://db:27017", cfg.MongoURI)
	assert.Equal(t, "boards", cfg.MongoDBName)
	assert.Equal(t, "s3cret", cfg.SecretKey)
	assert.True(t, cfg.UseRedis())
	assert.True(t, cfg.UseMinio())
	assert.True(t, cfg.MinioUseSSL)
	assert.Equal(t, 90*time.Minute, cfg.SessionLifetime)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 3, cfg.LoginRateBurst)
}

func TestLoad_DotEnvFile(t *testing.T) {
	// Arrange
	t.Setenv("MONGO_DBNAME", "")
	os.Unsetenv("MONGO_DBNAME")
	t.Setenv("PORT", "9999")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MONGO_DBNAME=fromfile\nPORT=1\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("MONGO_DBNAME") })

	// Act
	cfg, err := Load(path)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "fromfile", cfg.MongoDBName)
	assert.Equal(t, "9999", cfg.Port, "environment wins over .env")
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("SESSION_LIFETIME", "forever")

	_, err := Load(noEnvFile(t))

	assert.Error(t, err)
}
