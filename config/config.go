// Package config provides configuration for the chat dispatcher.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the server configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Database
	DatabaseURL string

	// Event log directory
	LogDir string

	// Language service
	LLMURL     string
	LLMAPIKey  string
	LLMTimeout time.Duration

	// Batching
	Debounce         time.Duration
	MaxQueueSize     int
	ClassifyWorkers  int
	SynthesisWorkers int
	ClassifyWait     time.Duration
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		HTTPPort:         getEnvInt("HTTP_PORT", 8080),
		DatabaseURL:      getEnv("DATABASE_URL", "file:bookstore.db?cache=shared&mode=rwc"),
		LogDir:           getEnv("LOG_DIR", "logs"),
		LLMURL:           getEnv("LLM_URL", "http://localhost:4000"),
		LLMAPIKey:        getEnv("LLM_API_KEY", ""),
		LLMTimeout:       time.Duration(getEnvInt("LLM_TIMEOUT_MS", 30000)) * time.Millisecond,
		Debounce:         time.Duration(getEnvInt("DEBOUNCE_MS", 5000)) * time.Millisecond,
		MaxQueueSize:     getEnvInt("MAX_QUEUE_SIZE", 10),
		ClassifyWorkers:  getEnvInt("CLASSIFY_WORKERS", 8),
		SynthesisWorkers: getEnvInt("SYNTHESIS_WORKERS", 2),
	}
	cfg.ClassifyWait = time.Duration(getEnvInt("CLASSIFY_WAIT_MS", 0)) * time.Millisecond
	if cfg.ClassifyWait <= 0 {
		cfg.ClassifyWait = defaultClassifyWait(cfg.Debounce)
	}
	return cfg
}

// defaultClassifyWait is the bounded wait applied per queued item at batch
// collection time: one second shy of the debounce window, never below one
// second.
func defaultClassifyWait(debounce time.Duration) time.Duration {
	wait := debounce - time.Second
	if wait < time.Second {
		wait = time.Second
	}
	return wait
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
