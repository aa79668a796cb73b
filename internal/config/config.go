package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	IP   string `env:"IP" envDefault:"0.0.0.0"`
	Port string `env:"PORT" envDefault:"5000"`

	MongoURI    string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017/?replicaSet=rs0"`
	MongoDBName string `env:"MONGO_DBNAME" envDefault:"forum"`

	// SecretKey keys the HMAC applied to session tokens before they reach Redis.
	SecretKey string `env:"SECRET_KEY"`

	UploadFolder string `env:"UPLOAD_FOLDER" envDefault:"profile_images"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	MinioEndpoint  string `env:"MINIO_ENDPOINT"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioBucket    string `env:"MINIO_BUCKET" envDefault:"profile-images"`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`

	SessionLifetime time.Duration `env:"SESSION_LIFETIME" envDefault:"24h"`
	SecureCookies   bool          `env:"SECURE_COOKIES" envDefault:"false"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	LoginRateRPS   float64 `env:"LOGIN_RATE_RPS" envDefault:"1"`
	LoginRateBurst int     `env:"LOGIN_RATE_BURST" envDefault:"5"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file and then parses the environment.
// Variables already present in the environment win over the file.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("error getting env configs: %w", err)
	}
	return cfg, nil
}

// Addr is the listen address in host:port form.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.IP, c.Port)
}

// UseRedis reports whether sessions should be kept in Redis.
func (c *Config) UseRedis() bool { return c.RedisAddr != "" }

// UseMinio reports whether avatars should be kept in an object store
// instead of UploadFolder.
func (c *Config) UseMinio() bool { return c.MinioEndpoint != "" }
