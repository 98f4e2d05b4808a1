package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/hornsiq/sentinel/backend/internal/config"
	"github.com/hornsiq/sentinel/backend/internal/handler"
	"github.com/hornsiq/sentinel/backend/internal/logging"
	"github.com/hornsiq/sentinel/backend/internal/server"
	"github.com/hornsiq/sentinel/backend/internal/service/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		logging.Default().Debug("no .env file loaded, using process environment", "error", err)
	}

	cfg, err := config.Load(config.DefaultAPIPort)
	if err != nil {
		logging.Default().Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log.Level, os.Stderr)
	logging.SetDefault(logger)

	svc := telemetry.NewService(telemetry.NewRepository(cfg.Data.Dir))
	logger.Info("serving telemetry fixtures", "dir", cfg.Data.Dir)

	router := handler.NewAPIRouter(svc, cfg.Server.AllowedOrigins)

	if err := server.Start(ctx, "Horns Sentinel API", cfg.Server, router); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
