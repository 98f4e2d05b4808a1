package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default listen ports for the two binaries.
const (
	DefaultAPIPort   = "8000"
	DefaultRelayPort = "3978"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	Log     LogConfig
	Data    DataConfig
	Relay   RelayConfig
	Session SessionConfig
}

// Load 从环境变量加载配置。defaultPort 在未设置 PORT 时使用。
func Load(defaultPort string) (*Config, error) {
	server, err := loadServerConfig(defaultPort)
	if err != nil {
		return nil, err
	}

	relay, err := loadRelayConfig()
	if err != nil {
		return nil, err
	}

	session, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		Log:     loadLogConfig(),
		Data:    DataConfig{Dir: getEnvOrDefault("SENTINEL_DATA_DIR", "/app/data")},
		Relay:   relay,
		Session: session,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig(defaultPort string) (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = defaultPort
	}

	origins := splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*"))

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port, AllowedOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins}, nil
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level string
}

func loadLogConfig() LogConfig {
	return LogConfig{Level: getEnvOrDefault("LOG_LEVEL", "info")}
}

// DataConfig points the query service at its JSON fixtures.
type DataConfig struct {
	Dir string
}

// RelayConfig 描述检索增强聊天后端的连接配置。
type RelayConfig struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	StaticDir string
}

func loadRelayConfig() (RelayConfig, error) {
	timeoutSeconds := 60
	if override, err := parseOptionalIntEnv("ONYX_TIMEOUT_SECONDS"); err != nil {
		return RelayConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return RelayConfig{}, fmt.Errorf("invalid ONYX_TIMEOUT_SECONDS value %d: must be positive", *override)
		}
		timeoutSeconds = *override
	}

	return RelayConfig{
		BaseURL:   strings.TrimRight(getEnvOrDefault("ONYX_API_URL", "http://localhost:8080"), "/"),
		APIKey:    strings.TrimSpace(os.Getenv("ONYX_API_KEY")),
		Timeout:   time.Duration(timeoutSeconds) * time.Second,
		StaticDir: getEnvOrDefault("HORNSIQ_STATIC_DIR", "static"),
	}, nil
}

// Session store backends.
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// SessionConfig selects where relay session mappings live.
type SessionConfig struct {
	Store         string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
}

func loadSessionConfig() (SessionConfig, error) {
	store := strings.ToLower(getEnvOrDefault("SESSION_STORE", SessionStoreMemory))
	if store != SessionStoreMemory && store != SessionStoreRedis {
		return SessionConfig{}, fmt.Errorf("invalid SESSION_STORE value %q", store)
	}

	db := 0
	if override, err := parseOptionalIntEnv("REDIS_DB"); err != nil {
		return SessionConfig{}, err
	} else if override != nil {
		db = *override
	}

	return SessionConfig{
		Store:         store,
		RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       db,
		KeyPrefix:     getEnvOrDefault("REDIS_KEY_PREFIX", "hornsiq:session:"),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
