// Пакет config — загрузка и валидация конфигурации geoattend
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bigkaa/geoattend/internal/domain/daywindow"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации geoattend.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- PostgreSQL ---

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- Сессии ---

	// Секрет подписи токенов сессии (HS256)
	SessionSecret string
	// Время жизни сессии, без продления
	SessionTTL time.Duration
	// Имя cookie сессии
	SessionCookieName string
	// Флаг Secure для cookie (true за HTTPS)
	SessionSecureCookie bool

	// --- Посещаемость ---

	// Смещение от UTC, в котором считаются гражданские дни (+07:00)
	DayUTCOffset string
	// Радиус геозоны по умолчанию при создании объекта, м
	DefaultSiteRadius int

	// --- Кэш объектов ---

	SiteCacheSize int
	SiteCacheTTL  time.Duration

	// --- RabbitMQ (опционально) ---

	// URL брокера; пустой — публикация событий отключена
	AMQPURL string
	// Topic exchange для событий посещаемости
	AMQPExchange string

	// --- Начальный администратор (опционально) ---

	BootstrapAdminEmail    string
	BootstrapAdminPassword string
	BootstrapAdminName     string

	// --- topologymetrics ---

	// Группа сервиса в метриках зависимостей
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// GA_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("GA_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("GA_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("GA_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// GA_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("GA_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("GA_LOG_LEVEL: %w", err)
	}

	// GA_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("GA_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("GA_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- PostgreSQL ---

	if cfg.DBHost, err = getEnvRequired("GA_DB_HOST"); err != nil {
		return nil, err
	}

	cfg.DBPort, err = getEnvInt("GA_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("GA_DB_PORT: %w", err)
	}

	if cfg.DBName, err = getEnvRequired("GA_DB_NAME"); err != nil {
		return nil, err
	}
	if cfg.DBUser, err = getEnvRequired("GA_DB_USER"); err != nil {
		return nil, err
	}
	if cfg.DBPassword, err = getEnvRequired("GA_DB_PASSWORD"); err != nil {
		return nil, err
	}

	// GA_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("GA_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("GA_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// --- Сессии ---

	// GA_SESSION_SECRET — обязательный, без него сервис не стартует
	if cfg.SessionSecret, err = getEnvRequired("GA_SESSION_SECRET"); err != nil {
		return nil, err
	}

	// GA_SESSION_TTL — время жизни сессии (по умолчанию 24h)
	cfg.SessionTTL, err = getEnvDuration("GA_SESSION_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("GA_SESSION_TTL: %w", err)
	}
	if cfg.SessionTTL < time.Second {
		return nil, fmt.Errorf("GA_SESSION_TTL: значение %s меньше 1s", cfg.SessionTTL)
	}

	cfg.SessionCookieName = getEnvDefault("GA_SESSION_COOKIE", "geoattend_session")

	cfg.SessionSecureCookie, err = getEnvBool("GA_SESSION_SECURE_COOKIE", false)
	if err != nil {
		return nil, fmt.Errorf("GA_SESSION_SECURE_COOKIE: %w", err)
	}

	// --- Посещаемость ---

	// GA_DAY_UTC_OFFSET — смещение гражданского дня (по умолчанию +07:00)
	cfg.DayUTCOffset = getEnvDefault("GA_DAY_UTC_OFFSET", "+07:00")
	if _, err := daywindow.ParseOffset(cfg.DayUTCOffset); err != nil {
		return nil, fmt.Errorf("GA_DAY_UTC_OFFSET: %w", err)
	}

	// GA_DEFAULT_SITE_RADIUS — радиус геозоны по умолчанию (200 м)
	cfg.DefaultSiteRadius, err = getEnvInt("GA_DEFAULT_SITE_RADIUS", 200)
	if err != nil {
		return nil, fmt.Errorf("GA_DEFAULT_SITE_RADIUS: %w", err)
	}
	if cfg.DefaultSiteRadius <= 0 {
		return nil, fmt.Errorf("GA_DEFAULT_SITE_RADIUS: значение %d должно быть положительным", cfg.DefaultSiteRadius)
	}

	// --- Кэш объектов ---

	cfg.SiteCacheSize, err = getEnvInt("GA_SITE_CACHE_SIZE", 1024)
	if err != nil {
		return nil, fmt.Errorf("GA_SITE_CACHE_SIZE: %w", err)
	}
	if cfg.SiteCacheSize < 1 {
		return nil, fmt.Errorf("GA_SITE_CACHE_SIZE: значение %d должно быть положительным", cfg.SiteCacheSize)
	}

	cfg.SiteCacheTTL, err = getEnvDuration("GA_SITE_CACHE_TTL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("GA_SITE_CACHE_TTL: %w", err)
	}

	// --- RabbitMQ ---

	cfg.AMQPURL = getEnvDefault("GA_AMQP_URL", "")
	cfg.AMQPExchange = getEnvDefault("GA_AMQP_EXCHANGE", "attendance_topic")

	// --- Начальный администратор ---

	cfg.BootstrapAdminEmail = strings.ToLower(strings.TrimSpace(getEnvDefault("GA_BOOTSTRAP_ADMIN_EMAIL", "")))
	cfg.BootstrapAdminPassword = getEnvDefault("GA_BOOTSTRAP_ADMIN_PASSWORD", "")
	cfg.BootstrapAdminName = getEnvDefault("GA_BOOTSTRAP_ADMIN_NAME", "Administrator")
	if (cfg.BootstrapAdminEmail == "") != (cfg.BootstrapAdminPassword == "") {
		return nil, fmt.Errorf("GA_BOOTSTRAP_ADMIN_EMAIL и GA_BOOTSTRAP_ADMIN_PASSWORD задаются только вместе")
	}

	// --- topologymetrics ---

	cfg.DephealthGroup = getEnvDefault("GA_DEPHEALTH_GROUP", "geoattend")

	cfg.DephealthCheckInterval, err = getEnvDuration("GA_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("GA_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("GA_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("GA_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// BootstrapAdminEnabled — задан ли начальный администратор.
func (c *Config) BootstrapAdminEnabled() bool {
	return c.BootstrapAdminEmail != "" && c.BootstrapAdminPassword != ""
}

// DatabaseDSN возвращает строку подключения к PostgreSQL (формат key=value для pgxpool).
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL подключения с указанной схемой
// ("pgx5" для golang-migrate, "postgres" для лейблов topologymetrics).
func (c *Config) DatabaseURL(scheme string) string {
	u := url.URL{
		Scheme:   scheme,
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает логическое значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное логическое значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
