package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// EnvConfigPath переменная окружения, переопределяющая путь к конфигу
const EnvConfigPath = "CONFIG_PATH"

var (
	ErrReadConfig    = errors.New("config: failed to read config file")
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Config конфигурация сервиса
type Config struct {
	Server          ServerConfig          `toml:"server"`
	Database        DatabaseConfig        `toml:"database"`
	Logs            LogsConfig            `toml:"logs"`
	Metrics         MetricsConfig         `toml:"metrics"`
	Redis           RedisConfig           `toml:"redis"`
	Notifications   NotificationsConfig   `toml:"notifications"`
	ProviderService ProviderServiceConfig `toml:"provider_service"`
	Booking         BookingConfig         `toml:"booking"`
	Access          AccessConfig          `toml:"access"`
	Jobs            JobsConfig            `toml:"jobs"`
}

type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`     // секунды
	WriteTimeout    int `toml:"write_timeout"`    // секунды
	IdleTimeout     int `toml:"idle_timeout"`     // секунды
	ShutdownTimeout int `toml:"shutdown_timeout"` // секунды
}

type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
}

// DSN строка подключения для lib/pq
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	SlotsTTL int    `toml:"slots_ttl"` // секунды
}

type NotificationsConfig struct {
	Enabled        bool   `toml:"enabled"`
	Queue          string `toml:"queue"`
	MaxRetry       int    `toml:"max_retry"`
	RedisAddr      string `toml:"redis_addr"` // пусто = redis.addr
	RedisDB        int    `toml:"redis_db"`
	EnqueueTimeout int    `toml:"enqueue_timeout"` // секунды
}

type ProviderServiceConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"` // секунды
}

type BookingConfig struct {
	SlotMinutes            int `toml:"slot_minutes"`
	CancellationWindowMins int `toml:"cancellation_window"` // минуты
	LockTimeoutMs          int `toml:"lock_timeout"`        // миллисекунды
}

type AccessConfig struct {
	UpcomingWindowDays   int `toml:"upcoming_window_days"`
	ActiveWindowHours    int `toml:"active_window_hours"`
	HistoryWindowDays    int `toml:"history_window_days"`
	EmergencyGrantTTL    int `toml:"emergency_grant_ttl"` // секунды
	EmergencyGrantsPerHr int `toml:"emergency_grants_per_hour"`
}

type JobsConfig struct {
	NoShowEnabled bool   `toml:"noshow_enabled"`
	NoShowSpec    string `toml:"noshow_spec"`
	NoShowGrace   int    `toml:"noshow_grace"` // минуты
}

// CancellationWindow окно отмены/переноса
func (c BookingConfig) CancellationWindow() time.Duration {
	return time.Duration(c.CancellationWindowMins) * time.Minute
}

// LockTimeout ограничение на время попытки бронирования
func (c BookingConfig) LockTimeout() time.Duration {
	return time.Duration(c.LockTimeoutMs) * time.Millisecond
}

// Load читает конфиг из файла. Переменная CONFIG_PATH имеет приоритет над path.
func Load(path string) (*Config, error) {
	if env := os.Getenv(EnvConfigPath); env != "" {
		path = env
	}

	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadConfig, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default значения по умолчанию, поверх которых декодируется файл
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     10,
			WriteTimeout:    10,
			IdleTimeout:     60,
			ShutdownTimeout: 15,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Logs: LogsConfig{Level: "info"},
		Metrics: MetricsConfig{
			Path:        "/metrics",
			ServiceName: "scheduling_service",
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			SlotsTTL: 300,
		},
		Notifications: NotificationsConfig{
			Queue:          "notifications",
			MaxRetry:       5,
			EnqueueTimeout: 2,
		},
		ProviderService: ProviderServiceConfig{Timeout: 5},
		Booking: BookingConfig{
			SlotMinutes:            30,
			CancellationWindowMins: 60,
			LockTimeoutMs:          3000,
		},
		Access: AccessConfig{
			UpcomingWindowDays:   30,
			ActiveWindowHours:    24,
			HistoryWindowDays:    365,
			EmergencyGrantTTL:    900,
			EmergencyGrantsPerHr: 5,
		},
		Jobs: JobsConfig{
			NoShowEnabled: true,
			NoShowSpec:    "@every 10m",
			NoShowGrace:   15,
		},
	}
}

// Validate проверяет согласованность значений
func (c *Config) Validate() error {
	switch {
	case c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535:
		return fmt.Errorf("%w: server.http_port must be in 1..65535", ErrInvalidConfig)
	case c.Database.DBName == "":
		return fmt.Errorf("%w: database.dbname is required", ErrInvalidConfig)
	case c.ProviderService.URL == "":
		return fmt.Errorf("%w: provider_service.url is required", ErrInvalidConfig)
	case c.Booking.SlotMinutes < 5 || c.Booking.SlotMinutes > 240:
		return fmt.Errorf("%w: booking.slot_minutes must be in 5..240", ErrInvalidConfig)
	case c.Booking.CancellationWindowMins < 0:
		return fmt.Errorf("%w: booking.cancellation_window must not be negative", ErrInvalidConfig)
	case c.Booking.LockTimeoutMs <= 0:
		return fmt.Errorf("%w: booking.lock_timeout must be positive", ErrInvalidConfig)
	case c.Access.UpcomingWindowDays <= 0 || c.Access.ActiveWindowHours <= 0 || c.Access.HistoryWindowDays <= 0:
		return fmt.Errorf("%w: access windows must be positive", ErrInvalidConfig)
	case c.Access.EmergencyGrantTTL <= 0:
		return fmt.Errorf("%w: access.emergency_grant_ttl must be positive", ErrInvalidConfig)
	case c.Access.EmergencyGrantsPerHr <= 0:
		return fmt.Errorf("%w: access.emergency_grants_per_hour must be positive", ErrInvalidConfig)
	case c.Redis.Enabled && c.Redis.Addr == "":
		return fmt.Errorf("%w: redis.addr is required when redis is enabled", ErrInvalidConfig)
	case c.Jobs.NoShowEnabled && c.Jobs.NoShowSpec == "":
		return fmt.Errorf("%w: jobs.noshow_spec is required", ErrInvalidConfig)
	}
	return nil
}
