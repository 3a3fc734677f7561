package config

import (
	"os"
	"strconv"
)

// Config holds server-mode configuration read from environment variables.
// Server mode is for shared deployments; local installs use LocalConfig.
type Config struct {
	// Server
	Port  int
	Debug bool

	// Leaderboard backends
	PostgresURL string
	RedisAddr   string
	RedisPass   string

	// RabbitMQ
	RabbitMQURL string

	// LLM
	LLMProvider string // openai
	LLMAPIKey   string
	LLMModel    string
	LLMBaseURL  string

	// Runner
	RunnerWorkers  int
	RunnerTimeout  int // seconds
	RunnerMemoryMB int
	RunnerCPULimit float64
	RunnerImage    string

	// Auth
	SessionMaxAge int // seconds
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnvInt("PORT", 8080),
		Debug:          getEnvBool("DEBUG", false),
		PostgresURL:    getEnv("POSTGRES_URL", ""),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPass:      getEnv("REDIS_PASSWORD", ""),
		RabbitMQURL:    getEnv("RABBITMQ_URL", ""),
		LLMProvider:    getEnv("LLM_PROVIDER", "openai"),
		LLMAPIKey:      getEnv("LLM_API_KEY", ""),
		LLMModel:       getEnv("LLM_MODEL", "gpt-4o"),
		LLMBaseURL:     getEnv("LLM_BASE_URL", ""),
		RunnerWorkers:  getEnvInt("RUNNER_WORKERS", 3),
		RunnerTimeout:  getEnvInt("RUNNER_TIMEOUT", 10),
		RunnerMemoryMB: getEnvInt("RUNNER_MEMORY_MB", 256),
		RunnerCPULimit: getEnvFloat("RUNNER_CPU_LIMIT", 0.5),
		RunnerImage:    getEnv("RUNNER_IMAGE", "node:20-alpine"),
		SessionMaxAge:  getEnvInt("SESSION_MAX_AGE", 86400*30), // 30 days
	}

	return cfg, nil
}

// Overlay applies environment settings onto a file-based local config.
// Only variables that are actually set in the environment override the
// file values, so a plain local install keeps its config.yaml untouched.
func (c *Config) Overlay(local *LocalConfig) {
	if envSet("PORT") {
		local.Daemon.Port = c.Port
	}
	if envSet("DEBUG") && c.Debug {
		local.Daemon.LogLevel = "debug"
	}

	if envSet("LLM_PROVIDER") {
		local.LLM.DefaultProvider = c.LLMProvider
	}
	if provider := local.LLM.Providers[local.LLM.DefaultProvider]; provider != nil {
		if c.LLMAPIKey != "" {
			provider.APIKey = c.LLMAPIKey
		}
		if c.LLMBaseURL != "" {
			provider.URL = c.LLMBaseURL
		}
		if envSet("LLM_MODEL") {
			provider.Model = c.LLMModel
		}
	}

	if envSet("RUNNER_TIMEOUT") {
		local.Runner.Docker.TimeoutSeconds = c.RunnerTimeout
	}
	if envSet("RUNNER_MEMORY_MB") {
		local.Runner.Docker.MemoryMB = c.RunnerMemoryMB
	}
	if envSet("RUNNER_CPU_LIMIT") {
		local.Runner.Docker.CPULimit = c.RunnerCPULimit
	}
	if envSet("RUNNER_IMAGE") {
		local.Runner.Docker.Image = c.RunnerImage
	}
}

func envSet(key string) bool {
	return os.Getenv(key) != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
