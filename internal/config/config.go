package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Content   ContentConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	LogLevel  string
}

type ServerConfig struct {
	Host          string
	Port          int
	Environment   string // "development", "production", "test"
	Debug         bool
	MigrationsDir string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig verifies bearer tokens minted by the external identity service.
type AuthConfig struct {
	JWTSecret string
	JWTIssuer string
}

type ContentConfig struct {
	ReportHideThreshold   int
	TrendingLikeWeight    int
	TrendingCommentWeight int
	TrendingWindow        time.Duration
}

type RateLimitConfig struct {
	FriendRequestsPerMinute int
	ReportsPerMinute        int
}

type CORSConfig struct {
	AllowedOrigins []string
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

var ErrMissingJWTSecret = errors.New("JWT_SECRET is required in production")

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DEBUG", false)
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "socialgraph")
	v.SetDefault("DB_PASSWORD", "socialgraph")
	v.SetDefault("DB_NAME", "socialgraph")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("REPORT_HIDE_THRESHOLD", 5)
	v.SetDefault("TRENDING_LIKE_WEIGHT", 1)
	v.SetDefault("TRENDING_COMMENT_WEIGHT", 2)
	v.SetDefault("TRENDING_WINDOW", 7*24*time.Hour)

	v.SetDefault("FRIEND_REQUEST_RATE_LIMIT", 20)
	v.SetDefault("REPORT_RATE_LIMIT", 10)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
}

// Load reads configuration from the environment, optionally layered over the
// file named by CONFIG_FILE. Environment variables always win.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := strings.TrimSpace(v.GetString("CONFIG_FILE")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:          v.GetString("SERVER_HOST"),
			Port:          v.GetInt("SERVER_PORT"),
			Environment:   v.GetString("APP_ENV"),
			Debug:         v.GetBool("DEBUG"),
			MigrationsDir: v.GetString("MIGRATIONS_DIR"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
			JWTIssuer: v.GetString("JWT_ISSUER"),
		},
		Content: ContentConfig{
			ReportHideThreshold:   v.GetInt("REPORT_HIDE_THRESHOLD"),
			TrendingLikeWeight:    v.GetInt("TRENDING_LIKE_WEIGHT"),
			TrendingCommentWeight: v.GetInt("TRENDING_COMMENT_WEIGHT"),
			TrendingWindow:        v.GetDuration("TRENDING_WINDOW"),
		},
		RateLimit: RateLimitConfig{
			FriendRequestsPerMinute: v.GetInt("FRIEND_REQUEST_RATE_LIMIT"),
			ReportsPerMinute:        v.GetInt("REPORT_RATE_LIMIT"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}

	if cfg.IsProduction() && cfg.Auth.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}
	return cfg, nil
}

func splitList(value string) []string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	parts := strings.Split(trimmed, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
