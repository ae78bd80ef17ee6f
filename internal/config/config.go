// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"APP_ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	MongoConnection         `yaml:"mongo"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	RabbitMQ                `yaml:"rabbitmq"`
	SMTP                    `yaml:"smtp"`
	Tenancy                 `yaml:"tenancy"`
	Scheduler               `yaml:"scheduler"`
	RateLimit               `yaml:"rate_limit"`
	Bootstrap               `yaml:"bootstrap"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP    string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP    time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env-default:"60s"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

// MongoConnection структура для подключения к документному хранилищу
type MongoConnection struct {
	URI          string        `yaml:"uri" env:"MONGO_URI" env-required:"true"`
	Database     string        `yaml:"database" env-default:"hotel_console"`
	TimeoutMongo time.Duration `yaml:"timeoutmongo" env-default:"10s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
	ProfileTTL   time.Duration `yaml:"profile_ttl" env-default:"30s"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"1h"`
}

// RabbitMQ структура для подключения к брокеру уведомлений
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// SMTP структура для отправки писем владельцам отелей
type SMTP struct {
	SMTPHost string `yaml:"host"`
	SMTPPort string `yaml:"port" env-default:"587"`
	SMTPUser string `yaml:"user"`
	SMTPPass string `yaml:"password" env:"SMTP_PASSWORD"`
}

// Tenancy управляет поведением слоя изоляции отелей.
// StrictFilters: явный фильтр с чужим hotelId отклоняется вместо логирования.
type Tenancy struct {
	StrictFilters bool `yaml:"strict_filters" env:"TENANCY_STRICT_FILTERS"`
}

// Scheduler настройки фоновых задач
type Scheduler struct {
	MaintenanceInterval time.Duration `yaml:"maintenance_interval" env-default:"1h"`
	AlertWindowDays     int           `yaml:"alert_window_days" env-default:"7"`
}

// RateLimit ограничение запросов на одного оператора
type RateLimit struct {
	RPS   float64 `yaml:"rps" env-default:"10"`
	Burst int     `yaml:"burst" env-default:"20"`
}

// Bootstrap данные главного супер-админа, создаваемого при первом запуске
type Bootstrap struct {
	SuperAdminEmail    string `yaml:"super_admin_email" env:"SUPER_ADMIN_EMAIL"`
	SuperAdminPassword string `yaml:"super_admin_password" env:"SUPER_ADMIN_PASSWORD"`
}

// Load читает конфиг по указанному пути.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return nil, errors.New("config path is empty")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("file: %s - does not exist", configPath)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	if cfg.AlertWindowDays < 1 || cfg.AlertWindowDays > 30 {
		return nil, fmt.Errorf("scheduler.alert_window_days must be within 1..30, got %d", cfg.AlertWindowDays)
	}
	return &cfg, nil
}

// MustLoad функция для загрузки конфига из CONFIG_PATH, завершает процесс при ошибке
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return strings.Repeat("*", 8)
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"StorageConnectionString: %s\n"+
			"Mongo:\n"+
			"  URI: %s\n"+
			"  Database: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  Password: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"JWTToken:\n"+
			"  JWTSecretKey: %s\n"+
			"  TokenTTL: %s\n"+
			"Tenancy:\n"+
			"  StrictFilters: %t\n"+
			"Scheduler:\n"+
			"  MaintenanceInterval: %s\n"+
			"  AlertWindowDays: %d\n",
		c.Env,
		mask(c.StorageConnectionString),
		mask(c.URI),
		c.Database,
		c.AddressRedis,
		mask(c.Password),
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		mask(c.JWTSecretKey),
		c.TokenTTL,
		c.StrictFilters,
		c.MaintenanceInterval,
		c.AlertWindowDays,
	)
}
