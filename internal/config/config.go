package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates runtime configuration for the site service.
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Storage  StorageConfig
	Upload   UploadConfig
	Auth     AuthConfig
	Metrics  MetricsConfig
	Site     SiteConfig
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PostgresConfig contains PostgreSQL connection details.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
}

// DSN returns the PostgreSQL DSN string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

// Storage drivers.
const (
	DriverMinIO = "minio"
	DriverS3    = "s3"
)

// StorageConfig carries object storage connection and bucket information.
type StorageConfig struct {
	Driver          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
	// PublicBaseURL is the browser-facing origin; public URLs are
	// <PublicBaseURL>/<Bucket>/<key>.
	PublicBaseURL string
}

// UploadConfig holds the image upload limits and the simulated progress timings.
type UploadConfig struct {
	MaxBytes         int64
	CacheControl     string
	ProgressInterval time.Duration
	ProgressStep     int
	ProgressCeiling  int
	ResetDelay       time.Duration
}

// AuthConfig groups admin authentication settings.
type AuthConfig struct {
	AdminPassword     string
	AccessTokenSecret string
	AccessTokenTTL    time.Duration
	BcryptCost        int
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string
}

// SiteConfig points at static assets of the public site.
type SiteConfig struct {
	LogoPath string
}

// Load reads configuration values from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:           getString("SITE_API_HOST", "0.0.0.0"),
			Port:           getInt("SITE_API_PORT", 8080),
			ReadTimeout:    getDuration("SITE_API_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getDuration("SITE_API_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:    getDuration("SITE_API_IDLE_TIMEOUT", 60*time.Second),
			AllowedOrigins: getList("SITE_CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		},
		Postgres: PostgresConfig{
			Host:     getString("POSTGRES_HOST", "localhost"),
			Port:     getInt("POSTGRES_PORT", 5432),
			User:     getString("POSTGRES_USER", "ramen_app"),
			Password: getString("POSTGRES_PASSWORD", "change-me"),
			Database: getString("POSTGRES_DB", "ramensite"),
			SSLMode:  strings.ToLower(getString("POSTGRES_SSL_MODE", "disable")),
			MaxConns: getInt("POSTGRES_MAX_CONNS", 4),
		},
		Storage: StorageConfig{
			Driver:          strings.ToLower(getString("STORAGE_DRIVER", DriverMinIO)),
			Endpoint:        getString("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getString("STORAGE_ACCESS_KEY", "ramen"),
			SecretAccessKey: getString("STORAGE_SECRET_KEY", "change-me-strong-password"),
			Bucket:          getString("STORAGE_BUCKET", "menu-images"),
			UseSSL:          getBool("STORAGE_USE_SSL", false),
			Region:          getString("STORAGE_REGION", "us-east-1"),
			PublicBaseURL:   strings.TrimRight(getString("STORAGE_PUBLIC_BASE_URL", "http://localhost:9000"), "/"),
		},
		Upload: UploadConfig{
			MaxBytes:         getInt64("UPLOAD_MAX_BYTES", 5*1024*1024),
			CacheControl:     getString("UPLOAD_CACHE_CONTROL", "max-age=3600"),
			ProgressInterval: getDuration("UPLOAD_PROGRESS_INTERVAL", 100*time.Millisecond),
			ProgressStep:     getInt("UPLOAD_PROGRESS_STEP", 10),
			ProgressCeiling:  getInt("UPLOAD_PROGRESS_CEILING", 90),
			ResetDelay:       getDuration("UPLOAD_PROGRESS_RESET_DELAY", time.Second),
		},
		Auth: loadAuthConfig(),
		Metrics: MetricsConfig{
			PrometheusPath: getString("SITE_METRICS_PATH", "/metrics"),
		},
		Site: SiteConfig{
			LogoPath: getString("SITE_LOGO_PATH", "web/static/logo.jpg"),
		},
	}

	switch cfg.Storage.Driver {
	case DriverMinIO, DriverS3:
	default:
		return Config{}, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}

	if cfg.Upload.ProgressCeiling < 1 || cfg.Upload.ProgressCeiling > 100 {
		return Config{}, fmt.Errorf("progress ceiling %d out of range 1..100", cfg.Upload.ProgressCeiling)
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.ToLower(strings.TrimSpace(val))
		switch val {
		case "1", "true", "t", "yes", "y":
			return true
		case "0", "false", "f", "no", "n":
			return false
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

// getList splits a comma separated value, dropping blanks.
func getList(key string, fallback []string) []string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func loadAuthConfig() AuthConfig {
	cost := getInt("SITE_AUTH_BCRYPT_COST", 12)
	if cost < 4 || cost > 31 {
		cost = 12
	}

	return AuthConfig{
		AdminPassword:     getString("SITE_ADMIN_PASSWORD", "change-me-admin"),
		AccessTokenSecret: getString("SITE_JWT_SECRET", "change-me-to-a-32-byte-secret"),
		AccessTokenTTL:    getDuration("SITE_AUTH_ACCESS_TOKEN_TTL", 12*time.Hour),
		BcryptCost:        cost,
	}
}
