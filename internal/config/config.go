package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server    ServerConfig    // Настройки HTTP сервера
	Database  DatabaseConfig  // Настройки подключения к БД
	Token     TokenConfig     // Настройки токенов доступа
	Invite    InviteConfig    // Настройки приглашений менеджеров
	RateLimit RateLimitConfig // Настройки ограничения запросов
	CORS      CORSConfig      // Настройки CORS
	Metrics   MetricsConfig   // Настройки метрик Prometheus
	LogLevel  string          `envconfig:"LOG_LEVEL" default:"info"`
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port string `envconfig:"SERVER_PORT" default:"8080"`
	Host string `envconfig:"SERVER_HOST" default:"0.0.0.0"`
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"teamflow"`
	Password string `envconfig:"DB_PASSWORD" default:"teamflow_pass"`
	Name     string `envconfig:"DB_NAME" default:"teamflow"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`
}

// TokenConfig содержит секрет подписи и сроки жизни токенов
type TokenConfig struct {
	Secret                string `envconfig:"JWT_SECRET" required:"true"`
	AnonymousTTLHours     int    `envconfig:"JWT_ANONYMOUS_TTL_HOURS" default:"720"`
	AuthenticatedTTLHours int    `envconfig:"JWT_AUTHENTICATED_TTL_HOURS" default:"168"`
}

// AnonymousTTL возвращает срок действия токена сотрудника без учетной записи
func (t TokenConfig) AnonymousTTL() time.Duration {
	return time.Duration(t.AnonymousTTLHours) * time.Hour
}

// AuthenticatedTTL возвращает срок действия токена менеджера и авторизованного сотрудника
func (t TokenConfig) AuthenticatedTTL() time.Duration {
	return time.Duration(t.AuthenticatedTTLHours) * time.Hour
}

// InviteConfig содержит настройки приглашений менеджеров
type InviteConfig struct {
	TTLDays int `envconfig:"INVITE_TTL_DAYS" default:"30"`
}

// TTL возвращает срок действия приглашения
func (i InviteConfig) TTL() time.Duration {
	return time.Duration(i.TTLDays) * 24 * time.Hour
}

// RateLimitConfig содержит настройки ограничения запросов.
// Пустой адрес Redis отключает ограничение.
type RateLimitConfig struct {
	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	Requests      int           `envconfig:"RATE_LIMIT_REQUESTS" default:"20"`
	Window        time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

// Enabled сообщает, включено ли ограничение запросов
func (r RateLimitConfig) Enabled() bool {
	return r.RedisAddr != ""
}

// CORSConfig содержит настройки CORS
type CORSConfig struct {
	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// MetricsConfig содержит настройки метрик
type MetricsConfig struct {
	Enabled     bool   `envconfig:"METRICS_ENABLED" default:"true"`
	RefreshSpec string `envconfig:"METRICS_REFRESH_SPEC" default:"@every 1m"`
}

// DSN возвращает строку подключения к PostgreSQL
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// Load читает конфигурацию из переменных окружения.
// Файл .env, если он есть, загружается первым и не перекрывает уже заданные переменные.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Token.Secret) == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.Token.AnonymousTTLHours <= 0 || c.Token.AuthenticatedTTLHours <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	if c.Invite.TTLDays <= 0 {
		return fmt.Errorf("INVITE_TTL_DAYS must be positive")
	}
	if c.RateLimit.Enabled() && (c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("rate limit requests and window must be positive")
	}
	return nil
}
