package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/Dhoini/primeconnect-dashboard/internal/app"
	"github.com/Dhoini/primeconnect-dashboard/internal/config"
	"github.com/Dhoini/primeconnect-dashboard/pkg/logger"
)

func main() {
	envPath := flag.String("env", ".env", "path to .env file")
	configDir := flag.String("config", "config", "directory with config.yaml")
	flag.Parse()

	// Загружаем конфигурацию
	cfg, err := config.LoadConfig(*envPath, *configDir)
	if err != nil {
		initLogger("", "").Fatalw("Failed to load configuration", "error", err)
	}

	// Инициализируем логгер
	log := initLogger(cfg.App.LogLevel, cfg.App.Env)
	defer func() { _ = log.Sync() }()

	log.Infow("PrimeConnect dashboard starting up...", "env", cfg.App.Env, "driver", cfg.Database.Driver)

	// Устанавливаем режим Gin в зависимости от окружения
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Graceful shutdown по SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(ctx, cfg, log)
	if err != nil {
		log.Fatalw("Failed to initialize application", "error", err)
	}

	if err := application.Run(ctx); err != nil {
		log.Errorw("Application stopped with error", "error", err)
		os.Exit(1)
	}
	log.Infow("Goodbye!")
}

// initLogger инициализирует логгер: JSON в production, консоль в остальных окружениях
func initLogger(level, env string) *logger.Logger {
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if env == "production" {
		return logger.NewWithEncoding(logger.ParseLevel(level), "json")
	}
	return logger.New(logger.ParseLevel(level))
}
