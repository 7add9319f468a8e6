package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	MediaProviderCloudinary = "cloudinary"
	MediaProviderMinIO      = "minio"
	MediaProviderNone       = "none"
)

type Config struct {
	App   AppConfig
	Mongo MongoConfig
	Media MediaConfig
	Cache CacheConfig
}

type AppConfig struct {
	Environment string
	Port        string
	LogLevel    string
}

type MongoConfig struct {
	URI     string
	DB      string
	Timeout time.Duration
}

type MediaConfig struct {
	Provider         string
	CloudinaryURL    string
	Folder           string
	MinIO            MinIOConfig
	MaxWidth         int
	MaxHeight        int
	MaxUploadBytes   int64
	MaxInlineBytes   int64
	OutboxInterval   time.Duration
	OutboxBatchLimit int64
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

type CacheConfig struct {
	RedisURL string
	TTL      time.Duration
}

func LoadConfig() (*Config, error) {
	// Solo cargar .env en desarrollo local
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Warn().Err(err).Msg("error loading .env file")
		} else {
			log.Info().Msg(".env file loaded")
		}
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("PORT", "8080"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Mongo: MongoConfig{
			URI:     getEnv("MONGO_URI", ""),
			DB:      getEnv("MONGO_DB", "jewelryCatalog"),
			Timeout: getEnvDuration("MONGO_TIMEOUT", 10*time.Second),
		},
		Media: MediaConfig{
			Provider:      strings.ToLower(getEnv("MEDIA_PROVIDER", "")),
			CloudinaryURL: getEnv("CLOUDINARY_URL", ""),
			Folder:        getEnv("MEDIA_FOLDER", "jewelry"),
			MinIO: MinIOConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", "jewelry"),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
				PublicURL: getEnv("MINIO_PUBLIC_URL", ""),
			},
			MaxWidth:         getEnvInt("IMAGE_MAX_WIDTH", 1600),
			MaxHeight:        getEnvInt("IMAGE_MAX_HEIGHT", 1600),
			MaxUploadBytes:   int64(getEnvInt("MAX_UPLOAD_BYTES", 8<<20)),
			MaxInlineBytes:   int64(getEnvInt("MAX_INLINE_IMAGE_BYTES", 1<<20)),
			OutboxInterval:   getEnvDuration("MEDIA_OUTBOX_INTERVAL", time.Minute),
			OutboxBatchLimit: int64(getEnvInt("MEDIA_OUTBOX_BATCH", 50)),
		},
		Cache: CacheConfig{
			RedisURL: getEnv("REDIS_URL", ""),
			TTL:      getEnvDuration("CACHE_TTL", 2*time.Minute),
		},
	}

	// Sin proveedor explícito: cloudinary si hay URL configurada
	if cfg.Media.Provider == "" {
		if cfg.Media.CloudinaryURL != "" {
			cfg.Media.Provider = MediaProviderCloudinary
		} else {
			cfg.Media.Provider = MediaProviderNone
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate revisa la configuración crítica
func (c *Config) Validate() error {
	if c.Mongo.URI == "" {
		return fmt.Errorf("MONGO_URI must be set")
	}

	switch c.Media.Provider {
	case MediaProviderCloudinary:
		if c.Media.CloudinaryURL == "" {
			return fmt.Errorf("CLOUDINARY_URL must be set when MEDIA_PROVIDER=cloudinary")
		}
	case MediaProviderMinIO:
		if c.Media.MinIO.AccessKey == "" || c.Media.MinIO.SecretKey == "" {
			return fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY must be set when MEDIA_PROVIDER=minio")
		}
	case MediaProviderNone:
	default:
		return fmt.Errorf("unknown MEDIA_PROVIDER %q", c.Media.Provider)
	}

	if c.Media.MaxUploadBytes <= 0 || c.Media.MaxInlineBytes < 0 {
		return fmt.Errorf("upload limits must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvBool(key string, fallback bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return value
}
