package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"

	"github.com/hornsiq/sentinel/backend/internal/config"
	"github.com/hornsiq/sentinel/backend/internal/handler"
	"github.com/hornsiq/sentinel/backend/internal/logging"
	"github.com/hornsiq/sentinel/backend/internal/model/persona"
	"github.com/hornsiq/sentinel/backend/internal/server"
	"github.com/hornsiq/sentinel/backend/internal/service/relay"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		logging.Default().Debug("no .env file loaded, using process environment", "error", err)
	}

	cfg, err := config.Load(config.DefaultRelayPort)
	if err != nil {
		logging.Default().Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log.Level, os.Stderr)
	logging.SetDefault(logger)

	sessions, closeStore, err := newSessionStore(ctx, cfg.Session, logger)
	if err != nil {
		logger.Error("failed to initialize session store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	if cfg.Relay.APIKey == "" {
		logger.Warn("ONYX_API_KEY not set, calling backend without authorization")
	}
	relaySvc := relay.NewService(relay.NewClient(cfg.Relay), sessions)
	personaStore := persona.NewMemoryStore(persona.Seed())

	router := handler.NewRelayRouter(relaySvc, personaStore, cfg.Relay.StaticDir, cfg.Server.AllowedOrigins)

	logger.Info("relay backend configured", "base_url", cfg.Relay.BaseURL, "timeout", cfg.Relay.Timeout, "session_store", cfg.Session.Store)
	if err := server.Start(ctx, "HornsIQ relay", cfg.Server, router); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func newSessionStore(ctx context.Context, cfg config.SessionConfig, logger *slog.Logger) (relay.SessionStore, func(), error) {
	if cfg.Store != config.SessionStoreRedis {
		return relay.NewMemoryStore(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, goerr.Wrap(err, "failed to connect to redis", goerr.V("addr", cfg.RedisAddr))
	}

	logger.Info("redis session store connected", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
	return relay.NewRedisStore(client, cfg.KeyPrefix), func() { _ = client.Close() }, nil
}
