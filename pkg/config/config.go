package config

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// New returns the configuration read from the environment. It terminates the process if a required
// variable is missing or malformed.
func New() Config {
	return Config{
		Environment:    getEnv("ENVIRONMENT", "production"),
		BasePath:       getEnv("BASE_PATH", ""),
		Hostname:       requireEnv("HOSTNAME"),
		Port:           getEnvAsInt("PORT", 8080),
		UIURL:          requireEnv("UI_URL"),
		AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", nil),
		LogPretty:      getEnvAsBool("LOG_PRETTY", false),
		OTELEndpoint:   getEnv("OTEL_ENDPOINT", ""),
		Postgresql: Postgresql{
			Host:         requireEnv("DATABASE_HOST"),
			Port:         requireEnvAsInt("DATABASE_PORT"),
			Username:     requireEnv("DATABASE_USERNAME"),
			Password:     requireEnv("DATABASE_PASSWORD"),
			DatabaseName: requireEnv("DATABASE_NAME"),
		},
		Redis: Redis{
			Host:     requireEnv("REDIS_HOST"),
			Port:     requireEnvAsInt("REDIS_PORT"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		RabbitMqURL: rabbitmq{
			Host:     requireEnv("RABBITMQ_HOST"),
			Port:     requireEnvAsInt("RABBITMQ_PORT"),
			Username: requireEnv("RABBITMQ_USERNAME"),
			Password: requireEnv("RABBITMQ_PASSWORD"),
		},
		ObjectStorage: ObjectStorage{
			Backend: getEnv("STORAGE_BACKEND", "s3"),
			Bucket:  requireEnv("STORAGE_BUCKET"),
			Region:  getEnv("AWS_REGION", "eu-west-1"),
			Minio: Minio{
				Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				UseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
			},
		},
		SMTP: smtp{
			Host:     requireEnv("SMTP_HOST"),
			Port:     requireEnvAsInt("SMTP_PORT"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "PartyHub <no-reply@partyhub.app>"),
		},
		Authentication: Authentication{
			Keys: keys{
				PrivateKey: requireEnv("PRIVATE_KEY"),
			},
			AccessTokenExpirationSeconds:            getEnvAsInt("ACCESS_TOKEN_EXPIRATION_IN_SECONDS", 15*60),
			RefreshTokenSecretKey:                   requireEnv("REFRESH_TOKEN_SECRET_KEY"),
			RefreshTokenExpirationSeconds:           getEnvAsInt("REFRESH_TOKEN_EXPIRATION_IN_SECONDS", 24*60*60),
			RefreshTokenRememberMeExpirationSeconds: getEnvAsInt("REFRESH_TOKEN_REMEMBER_ME_EXPIRATION_IN_SECONDS", 30*24*60*60),
			SameSiteMode:                            getEnv("SAME_SITE_MODE", "strict"),
			PasswordTokenTTL:                        uint(getEnvAsInt("PASSWORD_TOKEN_TTL", 15*60)),
		},
		AdminUser: user{
			Email:    requireEnv("ADMIN_USER_EMAIL"),
			Password: requireEnv("ADMIN_USER_PASSWORD"),
		},
		Upload: Upload{
			MaxSizeMB:      getEnvAsInt("MAX_UPLOAD_MB", 50),
			MaxAvatarMB:    getEnvAsInt("MAX_AVATAR_MB", 5),
			ImageMaxPixels: getEnvAsInt("IMAGE_MAX_DIMENSION", 1920),
			JPEGQuality:    getEnvAsInt("IMAGE_JPEG_QUALITY", 80),
			MinCompressKB:  getEnvAsInt("IMAGE_MIN_COMPRESS_KB", 200),
		},
		Geocoder: Geocoder{
			URL:             getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
			UserAgent:       getEnv("GEOCODER_USER_AGENT", "partyhub/1.0"),
			RequestsPerSec:  getEnvAsInt("GEOCODER_REQUESTS_PER_SECOND", 1),
			CacheTTLSeconds: getEnvAsInt("GEOCODER_CACHE_TTL_SECONDS", 30*24*60*60),
		},
	}
}

type Config struct {
	Environment    string
	BasePath       string
	Hostname       string
	Port           int
	UIURL          string
	AllowedOrigins []string
	LogPretty      bool
	OTELEndpoint   string
	Postgresql     Postgresql
	Redis          Redis
	RabbitMqURL    rabbitmq
	ObjectStorage  ObjectStorage
	SMTP           smtp
	Authentication Authentication
	AdminUser      user
	Upload         Upload
	Geocoder       Geocoder
}

type Postgresql struct {
	Host         string
	Port         int
	Username     string
	Password     string
	DatabaseName string
}

type Redis struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (r Redis) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type rabbitmq struct {
	Host     string
	Port     int
	Username string
	Password string
}

func (r rabbitmq) GetUrl() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", r.Username, r.Password, r.Host, r.Port)
}

type ObjectStorage struct {
	// Backend is either "s3" or "minio"
	Backend string
	Bucket  string
	Region  string
	Minio   Minio
}

type Minio struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

type smtp struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Authentication struct {
	Keys                                    keys
	AccessTokenExpirationSeconds            int
	RefreshTokenSecretKey                   string
	RefreshTokenExpirationSeconds           int
	RefreshTokenRememberMeExpirationSeconds int
	SameSiteMode                            string
	PasswordTokenTTL                        uint
}

type keys struct {
	PrivateKey string
}

// GetPrivateKey parses the PEM encoded RSA private key used to sign access tokens.
func (k keys) GetPrivateKey() (*rsa.PrivateKey, error) {
	key, err := jwk.ParseKey([]byte(k.PrivateKey), jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %v", err)
	}

	var privateKey rsa.PrivateKey
	if err := key.Raw(&privateKey); err != nil {
		return nil, fmt.Errorf("failed to read raw private key: %v", err)
	}

	return &privateKey, nil
}

type user struct {
	Email    string
	Password string
}

type Upload struct {
	MaxSizeMB      int
	MaxAvatarMB    int
	ImageMaxPixels int
	JPEGQuality    int
	MinCompressKB  int
}

func (u Upload) MaxSizeBytes() int64 {
	return int64(u.MaxSizeMB) * 1024 * 1024
}

func (u Upload) MaxAvatarBytes() int64 {
	return int64(u.MaxAvatarMB) * 1024 * 1024
}

type Geocoder struct {
	URL             string
	UserAgent       string
	RequestsPerSec  int
	CacheTTLSeconds int
}

// ValidateStorageBackend returns an error if the configured object storage backend is unknown.
func (o ObjectStorage) ValidateStorageBackend() error {
	switch o.Backend {
	case "s3", "minio":
		return nil
	default:
		return errors.New("unknown storage backend: " + o.Backend)
	}
}

func requireEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		log.Fatalf("Can't find environment variable: %s\n", key)
	}
	return value
}

func requireEnvAsInt(key string) int {
	valueStr := requireEnv(key)
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Fatalf("Can't parse value as integer: %s", err.Error())
	}
	return value
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Fatalf("Can't parse %s as integer: %s", key, err.Error())
	}
	return value
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Fatalf("Can't parse %s as bool: %s", key, err.Error())
	}
	return value
}

func getEnvAsSlice(key string, fallback []string) []string {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return fallback
	}
	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}
