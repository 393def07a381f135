package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every runtime setting for the service.
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	Market  MarketConfig
	History HistoryConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		AI:      ai,
		Market:  loadMarketConfig(),
		History: loadHistoryConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the Gemini generation backend.
type AIConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	MaxRetries     int
	RequestTimeout time.Duration
}

// Enabled reports whether an API credential was provided. The service
// still runs without one; every chat turn then returns a configuration
// error message instead of an analysis.
func (c AIConfig) Enabled() bool {
	return c.APIKey != ""
}

func loadAIConfig() (AIConfig, error) {
	maxRetries := 3
	if override, err := parseOptionalIntEnv("AI_MAX_RETRIES"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		if *override < 1 {
			maxRetries = 1
		} else {
			maxRetries = *override
		}
	}

	// Grounded generation calls can run long, so the ceiling is generous.
	timeoutSeconds := 90
	if override, err := parseOptionalIntEnv("AI_REQUEST_TIMEOUT"); err != nil {
		return AIConfig{}, err
	} else if override != nil && *override > 0 {
		timeoutSeconds = *override
	}

	return AIConfig{
		APIKey:         strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		BaseURL:        getEnvOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		Model:          getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash-preview-09-2025"),
		MaxRetries:     maxRetries,
		RequestTimeout: time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// MarketConfig describes the quote data source.
type MarketConfig struct {
	BaseURL string
}

func loadMarketConfig() MarketConfig {
	return MarketConfig{
		BaseURL: getEnvOrDefault("MARKET_BASE_URL", "https://query1.finance.yahoo.com"),
	}
}

// HistoryConfig selects the chat history backend. DATABASE_URL wins
// over the embedded file store when both are set.
type HistoryConfig struct {
	AppID       string
	DatabaseURL string
	BoltPath    string
}

func loadHistoryConfig() HistoryConfig {
	return HistoryConfig{
		AppID:       getEnvOrDefault("APP_ID", "default-app-id"),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		BoltPath:    getEnvOrDefault("HISTORY_DB_PATH", "data/history.db"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
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
