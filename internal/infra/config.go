package infra

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config — корневая структура конфигурации консоли.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Backend BackendConfig `mapstructure:"backend"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Logger  LoggerConfig  `mapstructure:"logger"`
}

// ServerConfig описывает настройки HTTP-сервера консоли.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// BackendConfig описывает подключение к ICU Intelligence API.
type BackendConfig struct {
	// BaseURL — корень REST API (с префиксом /api).
	BaseURL string `mapstructure:"base_url"`
	// WSURL — адрес push-канала алертов.
	WSURL string `mapstructure:"ws_url"`
	// LiveEnabled выключает push-канал целиком; консоль живет на одном поллинге.
	LiveEnabled bool `mapstructure:"live_enabled"`

	// RefreshInterval — период таймерного цикла синхронизации.
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	// PatientLimit / AlertLimit — фиксированные лимиты страниц выборки.
	PatientLimit int `mapstructure:"patient_limit"`
	AlertLimit   int `mapstructure:"alert_limit"`

	// RequestTimeout — потолок транспорта. На уровне цикла синхронизации
	// своих таймаутов нет, полагаемся на этот.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// RedisConfig описывает подключение к Redis (кэш теплого старта).
// Пустой Addr выключает кэш, консоль при этом полностью работоспособна.
type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	SnapshotTTL time.Duration `mapstructure:"snapshot_ttl"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. Настройка поиска файла
	v.SetConfigName("config")    // имя файла без расширения
	v.SetConfigType("yaml")      // формат
	v.AddConfigPath(".")         // ищем в корне
	v.AddConfigPath("./configs") // и в папке с конфигами

	// 2. Настройка переменных окружения (ENV)
	// Позволяет перекрывать конфиг: BACKEND_BASE_URL перекроет backend.base_url
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 3. Установка дефолтных значений
	setDefaults(v)

	// 4. Чтение файла
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Если файла нет — работаем на ENV и дефолтах
	}

	// 5. Маппинг в структуру
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)

	v.SetDefault("backend.base_url", "http://localhost:8000/api")
	v.SetDefault("backend.ws_url", "ws://localhost:8000/ws/alerts")
	v.SetDefault("backend.live_enabled", true)
	v.SetDefault("backend.refresh_interval", 6*time.Second)
	v.SetDefault("backend.patient_limit", 150)
	v.SetDefault("backend.alert_limit", 25)
	v.SetDefault("backend.request_timeout", 15*time.Second)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.snapshot_ttl", 24*time.Hour)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}
