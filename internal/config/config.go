package config

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	AppName        string   `env:"APP_NAME" env-default:"Sukesh Education"`
	AppEnv         string   `env:"APP_ENV" env-default:"development"`
	AppPort        string   `env:"APP_PORT" env-default:"8087"`
	BaseURL        string   `env:"APP_BASE_URL" env-default:"http://localhost:8087"`
	AllowedOrigins []string `env:"APP_ALLOWED_ORIGINS" env-separator:","`
	StaticDir      string   `env:"APP_STATIC_DIR" env-default:"./static"`
	MailFrom       string   `env:"MAIL_FROM" env-default:"no-reply@sukesh.education"`

	DB        DBConfig
	Redis     RedisConfig
	RabbitMQ  RabbitMQConfig
	JWT       JWTConfig
	CSRF      CSRFConfig
	Session   SessionConfig
	Upload    UploadConfig
	RateLimit RateLimitConfig
}

type DBConfig struct {
	Driver   string `env:"DB_DRIVER" env-default:"pgx"`
	Host     string `env:"DB_HOST" env-default:"localhost"`
	Port     string `env:"DB_PORT" env-default:"5432"`
	User     string `env:"DB_USER" env-default:"postgres"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME" env-default:"sukesh_education"`
	SSLMode  string `env:"DB_SSLMODE" env-default:"disable"`
	// Path is the database file when Driver is sqlite3.
	Path string `env:"DB_PATH" env-default:"education.db"`
}

type RedisConfig struct {
	Host          string `env:"REDIS_HOST" env-default:"localhost"`
	Port          string `env:"REDIS_PORT" env-default:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" env-default:"0"`
}

type RabbitMQConfig struct {
	// Empty URL disables the mail queue; reset mails are then delivered inline.
	URL string `env:"RABBITMQ_URL"`
}

type JWTConfig struct {
	Secret   string        `env:"JWT_SECRET"`
	ResetTTL time.Duration `env:"JWT_RESET_TTL" env-default:"1h"`
}

type CSRFConfig struct {
	// Key signs the CSRF cookie. Empty derives one from JWT_SECRET.
	Key string `env:"CSRF_KEY"`
	// TrustedOrigins lists extra hosts allowed to submit forms, e.g. a proxy name.
	TrustedOrigins []string `env:"CSRF_TRUSTED_ORIGINS" env-separator:","`
}

type SessionConfig struct {
	// Backend is "redis" or "sql".
	Backend      string        `env:"SESSION_BACKEND" env-default:"redis"`
	CookieName   string        `env:"SESSION_COOKIE_NAME" env-default:"session_id"`
	CookieSecure bool          `env:"SESSION_COOKIE_SECURE" env-default:"false"`
	TTL          time.Duration `env:"SESSION_TTL" env-default:"24h"`
	RememberTTL  time.Duration `env:"SESSION_REMEMBER_TTL" env-default:"336h"`
}

type UploadConfig struct {
	// Backend is "local" or "s3".
	Backend   string `env:"UPLOAD_BACKEND" env-default:"local"`
	Dir       string `env:"UPLOAD_DIR" env-default:"./static/uploads/profile_pictures"`
	URLPrefix string `env:"UPLOAD_URL_PREFIX" env-default:"/static/uploads/profile_pictures"`
	MaxBytes  int64  `env:"UPLOAD_MAX_BYTES" env-default:"5242880"`

	S3 S3Config
}

type S3Config struct {
	Bucket        string `env:"S3_BUCKET"`
	Region        string `env:"S3_REGION" env-default:"us-east-1"`
	Endpoint      string `env:"S3_ENDPOINT"`
	AccessKey     string `env:"S3_ACCESS_KEY"`
	SecretKey     string `env:"S3_SECRET_KEY"`
	PublicBaseURL string `env:"S3_PUBLIC_BASE_URL"`
	UsePathStyle  bool   `env:"S3_USE_PATH_STYLE" env-default:"true"`
}

type RateLimitConfig struct {
	Enabled    bool    `env:"RATE_LIMIT_ENABLED" env-default:"true"`
	Capacity   int     `env:"RATE_LIMIT_CAPACITY" env-default:"5"`
	RefillRate float64 `env:"RATE_LIMIT_REFILL_RATE" env-default:"0.1"`
}

var (
	ErrMissingSecret    = errors.New("JWT_SECRET is required outside development")
	ErrInvalidRateLimit = errors.New("RATE_LIMIT_CAPACITY and RATE_LIMIT_REFILL_RATE must be positive")
)

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if cfg.JWT.Secret == "" {
		if cfg.AppEnv != "development" && cfg.AppEnv != "desktop" {
			return nil, ErrMissingSecret
		}
		cfg.JWT.Secret = "dev-secret-key-change-in-production"
	}

	if cfg.RateLimit.Enabled && (cfg.RateLimit.Capacity <= 0 || cfg.RateLimit.RefillRate <= 0) {
		return nil, fmt.Errorf("%w: capacity=%d refill_rate=%g", ErrInvalidRateLimit, cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate)
	}

	return &cfg, nil
}

// CSRFKey returns the 32 byte key for the CSRF cookie.
func (c *Config) CSRFKey() []byte {
	seed := c.CSRF.Key
	if seed == "" {
		seed = "csrf:" + c.JWT.Secret
	}
	sum := sha256.Sum256([]byte(seed))
	return sum[:]
}

// DSN builds the driver specific data source name.
func (c *DBConfig) DSN() string {
	if c.Driver == "sqlite3" {
		return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", c.Path)
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s", c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// RedisEnabled reports whether any component needs a Redis connection.
func (c *Config) RedisEnabled() bool {
	return c.Session.Backend == "redis" || c.RateLimit.Enabled
}

// Desktop returns defaults for the single-user desktop shell: SQLite, SQL sessions,
// no broker and no Redis.
func Desktop(dataDir string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	cfg.AppEnv = "desktop"
	cfg.DB.Driver = "sqlite3"
	if os.Getenv("DB_PATH") == "" {
		cfg.DB.Path = filepath.Join(dataDir, "education.db")
	}
	if os.Getenv("APP_STATIC_DIR") == "" {
		cfg.StaticDir = filepath.Join(dataDir, "static")
	}
	if os.Getenv("UPLOAD_DIR") == "" {
		cfg.Upload.Dir = filepath.Join(cfg.StaticDir, "uploads", "profile_pictures")
	}
	cfg.Session.Backend = "sql"
	cfg.RateLimit.Enabled = false
	cfg.RabbitMQ.URL = ""
	cfg.Upload.Backend = "local"
	return cfg, nil
}
