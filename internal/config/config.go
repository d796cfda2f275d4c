package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config представляет структуру конфигурации для приложения.
type Config struct {
	App struct {
		Port           string `mapstructure:"port" validate:"required,numeric"`
		Env            string `mapstructure:"env" validate:"oneof=development production test"`
		LogLevel       string `mapstructure:"logLevel"`
		Timezone       string `mapstructure:"timezone" validate:"required"`
		RecentPayments int    `mapstructure:"recentPayments" validate:"gte=0"`
		CookieSecure   bool   `mapstructure:"cookieSecure"`
		DemoCustomerID string `mapstructure:"demoCustomerID"`
	} `mapstructure:"app"`
	Database struct {
		Driver         string        `mapstructure:"driver" validate:"oneof=postgres memory"`
		DSN            string        `mapstructure:"dsn" validate:"required_if=Driver postgres"`
		MaxConns       int32         `mapstructure:"maxConns" validate:"gte=1"`
		ConnectTimeout time.Duration `mapstructure:"connectTimeout"`
	} `mapstructure:"database"`
	Redis struct {
		Enabled    bool          `mapstructure:"enabled"`
		Addr       string        `mapstructure:"addr" validate:"required_if=Enabled true"`
		Password   string        `mapstructure:"password"`
		DB         int           `mapstructure:"db"`
		CatalogTTL time.Duration `mapstructure:"catalogTTL"`
	} `mapstructure:"redis"`
	Kafka struct {
		Enabled bool     `mapstructure:"enabled"`
		Brokers []string `mapstructure:"brokers" validate:"required_if=Enabled true"`
		Topic   string   `mapstructure:"topic"`
	} `mapstructure:"kafka"`
	GRPC struct {
		Enabled bool   `mapstructure:"enabled"`
		Port    string `mapstructure:"port" validate:"required_if=Enabled true"`
	} `mapstructure:"grpc"`
	Auth struct {
		JWTSecret  string `mapstructure:"jwtSecret"`
		CookieName string `mapstructure:"cookieName" validate:"required"`
	} `mapstructure:"auth"`
}

// Location возвращает часовой пояс, в котором считаются месячные суммы и даты.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsProduction сообщает, запущено ли приложение в production окружении.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.timezone", "Africa/Nairobi")
	v.SetDefault("app.recentPayments", 5)
	v.SetDefault("app.cookieSecure", false)
	v.SetDefault("app.demoCustomerID", "")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.maxConns", 10)
	v.SetDefault("database.connectTimeout", 30*time.Second)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.catalogTTL", 5*time.Minute)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "subscription.created")

	v.SetDefault("grpc.enabled", false)
	v.SetDefault("grpc.port", "9090")

	v.SetDefault("auth.jwtSecret", "")
	v.SetDefault("auth.cookieName", "pc_session")
}

// LoadConfig загружает конфигурацию из .env файла, config.yaml и переменных окружения.
// envPath и configDir могут быть пустыми.
func LoadConfig(envPath, configDir string) (*Config, error) {
	if os.Getenv("APP_ENV") != "production" && envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configDir != "" {
		v.AddConfigPath(configDir)
	}
	v.AddConfigPath(".")

	// APP_PORT -> app.port, DATABASE_DSN -> database.dsn
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// viper не разбивает списки из переменных окружения
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		cfg.Kafka.Brokers = splitList(raw)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет заполненность и согласованность конфигурации.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := time.LoadLocation(cfg.App.Timezone); err != nil {
		return fmt.Errorf("invalid configuration: unknown timezone %q: %w", cfg.App.Timezone, err)
	}
	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
