package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/autokatalog/autokatalog/backend/go-services/internal/storage"
)

// Backends for collections and assets.
const (
	StoreFile  = "file"
	StoreRedis = "redis"
	StoreMongo = "mongo"

	AssetsLocal = "local"
	AssetsMinIO = "minio"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	MinIO     storage.MinIOConfig
	JWT       JWTConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	Upload    UploadConfig
	Admin     AdminConfig
	LogLevel  string
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type StorageConfig struct {
	Backend      string
	AssetBackend string
	DataDir      string
	PublicDir    string
	UploadDir    string
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr is host:port, empty when Redis is not configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}

type JWTConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
}

type SessionConfig struct {
	IdleTimeout time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	RPS           float64
	Burst         int
	UseRedis      bool
	WindowSeconds int
}

type UploadConfig struct {
	MaxFileSize int64
	MaxFiles    int
}

type AdminConfig struct {
	User     string
	Password string
	Role     string
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "3000")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("DATA_DIR", "./data")
	viper.SetDefault("PUBLIC_DIR", "./public")
	viper.SetDefault("STORE_BACKEND", StoreFile)
	viper.SetDefault("ASSET_BACKEND", AssetsLocal)
	viper.SetDefault("MONGODB_DATABASE", "autokatalog")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("MINIO_BUCKET", "autokatalog")
	viper.SetDefault("JWT_ACCESS_TOKEN_TTL", 720)
	viper.SetDefault("SESSION_IDLE_TIMEOUT", "10m")
	viper.SetDefault("RATE_LIMIT_RPS", 5)
	viper.SetDefault("RATE_LIMIT_BURST", 10)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	viper.SetDefault("UPLOAD_MAX_FILE_SIZE", 8<<20)
	viper.SetDefault("UPLOAD_MAX_FILES", 12)
	viper.SetDefault("ADMIN_USER", "admin")
	viper.SetDefault("ADMIN_ROLE", "admin")
	viper.SetDefault("LOG_LEVEL", "info")

	publicDir := viper.GetString("PUBLIC_DIR")
	uploadDir := viper.GetString("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = filepath.Join(publicDir, "uploads")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			Backend:      strings.ToLower(viper.GetString("STORE_BACKEND")),
			AssetBackend: strings.ToLower(viper.GetString("ASSET_BACKEND")),
			DataDir:      viper.GetString("DATA_DIR"),
			PublicDir:    publicDir,
			UploadDir:    uploadDir,
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		MinIO: storage.MinIOConfig{
			Endpoint:  viper.GetString("MINIO_ENDPOINT"),
			AccessKey: viper.GetString("MINIO_ACCESS_KEY"),
			SecretKey: viper.GetString("MINIO_SECRET_KEY"),
			UseSSL:    viper.GetBool("MINIO_USE_SSL"),
			Bucket:    viper.GetString("MINIO_BUCKET"),
		},
		JWT: JWTConfig{
			Secret:         viper.GetString("JWT_SECRET"),
			AccessTokenTTL: time.Duration(viper.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
		},
		Session: SessionConfig{
			IdleTimeout: viper.GetDuration("SESSION_IDLE_TIMEOUT"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Upload: UploadConfig{
			MaxFileSize: viper.GetInt64("UPLOAD_MAX_FILE_SIZE"),
			MaxFiles:    viper.GetInt("UPLOAD_MAX_FILES"),
		},
		Admin: AdminConfig{
			User:     viper.GetString("ADMIN_USER"),
			Password: viper.GetString("ADMIN_PASS"),
			Role:     viper.GetString("ADMIN_ROLE"),
		},
		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case StoreFile:
	case StoreRedis:
		if c.Redis.Host == "" {
			return fmt.Errorf("STORE_BACKEND=redis requires REDIS_HOST")
		}
	case StoreMongo:
		if c.MongoDB.URI == "" {
			return fmt.Errorf("STORE_BACKEND=mongo requires MONGODB_URI")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Storage.Backend)
	}
	switch c.Storage.AssetBackend {
	case AssetsLocal:
	case AssetsMinIO:
		if c.MinIO.Endpoint == "" {
			return fmt.Errorf("ASSET_BACKEND=minio requires MINIO_ENDPOINT")
		}
	default:
		return fmt.Errorf("unknown ASSET_BACKEND %q", c.Storage.AssetBackend)
	}
	if c.Session.IdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive")
	}
	if c.Upload.MaxFileSize <= 0 || c.Upload.MaxFiles <= 0 {
		return fmt.Errorf("upload limits must be positive")
	}
	return nil
}
