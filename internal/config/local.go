package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// LocalConfig holds configuration for local daemon mode
type LocalConfig struct {
	Daemon  DaemonConfig  `yaml:"daemon"`
	Session SessionConfig `yaml:"session"`
	LLM     LLMConfig     `yaml:"llm"`
	Runner  RunnerConfig  `yaml:"runner"`
}

// DaemonConfig holds daemon server settings
type DaemonConfig struct {
	Port     int    `yaml:"port"`
	Bind     string `yaml:"bind"`
	LogLevel string `yaml:"log_level"`
}

// SessionConfig holds play session settings
type SessionConfig struct {
	AutosaveSeconds int `yaml:"autosave_seconds"`
}

// AutosaveInterval returns the autosave period as a duration
func (c SessionConfig) AutosaveInterval() time.Duration {
	if c.AutosaveSeconds <= 0 {
		return 3 * time.Minute
	}
	return time.Duration(c.AutosaveSeconds) * time.Second
}

// LLMConfig holds LLM provider settings
type LLMConfig struct {
	DefaultProvider string                     `yaml:"default_provider"`
	Providers       map[string]*ProviderConfig `yaml:"providers"`
}

// ProviderConfig holds settings for a single LLM provider
type ProviderConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	URL     string `yaml:"url,omitempty"` // for self-hosted endpoints
	APIKey  string `yaml:"-"`             // loaded from secrets.yaml
}

// RunnerConfig holds code execution settings
type RunnerConfig struct {
	Executor string             `yaml:"executor"` // docker or process
	Docker   DockerRunnerConfig `yaml:"docker"`
}

// DockerRunnerConfig holds Docker executor settings
type DockerRunnerConfig struct {
	Image          string  `yaml:"image"`
	MemoryMB       int     `yaml:"memory_mb"`
	CPULimit       float64 `yaml:"cpu_limit"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	NetworkOff     bool    `yaml:"network_off"`
}

// SecretsConfig holds API keys loaded from secrets.yaml
type SecretsConfig struct {
	Providers map[string]struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"providers"`
}

// HomeDir returns the codequest data directory. CODEQUEST_HOME overrides
// the default of ~/.codequest.
func HomeDir() (string, error) {
	if dir := os.Getenv("CODEQUEST_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".codequest"), nil
}

// EnsureHomeDir creates the data directory and subdirectories if they don't exist
func EnsureHomeDir() (string, error) {
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}

	subdirs := []string{
		"",
		"logs",
		"profiles",
		"data",
	}

	for _, subdir := range subdirs {
		path := filepath.Join(dir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", fmt.Errorf("create dir %s: %w", path, err)
		}
	}

	return dir, nil
}

// ProfilesDir returns the directory for profile snapshots
func ProfilesDir(home string) string {
	return filepath.Join(home, "profiles")
}

// DatabasePath returns the path to the local SQLite database
func DatabasePath(home string) string {
	return filepath.Join(home, "data", "codequest.db")
}

// DefaultLocalConfig returns sensible defaults for local mode
func DefaultLocalConfig() *LocalConfig {
	return &LocalConfig{
		Daemon: DaemonConfig{
			Port:     7433,
			Bind:     "127.0.0.1",
			LogLevel: "info",
		},
		Session: SessionConfig{
			AutosaveSeconds: 180,
		},
		LLM: LLMConfig{
			DefaultProvider: "openai",
			Providers: map[string]*ProviderConfig{
				"openai": {
					Enabled: true,
					Model:   "gpt-4o",
				},
			},
		},
		Runner: RunnerConfig{
			Executor: "process",
			Docker: DockerRunnerConfig{
				Image:          "node:20-alpine",
				MemoryMB:       256,
				CPULimit:       0.5,
				TimeoutSeconds: 10,
				NetworkOff:     true,
			},
		},
	}
}

// LoadLocalConfig loads configuration from <home>/config.yaml
func LoadLocalConfig() (*LocalConfig, error) {
	dir, err := HomeDir()
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(dir, "config.yaml")

	// If config doesn't exist, return defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultLocalConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultLocalConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Load secrets (API keys)
	if err := loadSecrets(dir, cfg); err != nil {
		return nil, fmt.Errorf("load secrets: %w", err)
	}

	return cfg, nil
}

// loadSecrets loads API keys from secrets.yaml
func loadSecrets(dir string, cfg *LocalConfig) error {
	secretsPath := filepath.Join(dir, "secrets.yaml")

	// If secrets file doesn't exist, skip
	if _, err := os.Stat(secretsPath); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(secretsPath)
	if err != nil {
		return fmt.Errorf("read secrets: %w", err)
	}

	var secrets SecretsConfig
	if err := yaml.Unmarshal(data, &secrets); err != nil {
		return fmt.Errorf("parse secrets: %w", err)
	}

	// Apply secrets to config
	for name, secret := range secrets.Providers {
		if provider, ok := cfg.LLM.Providers[name]; ok {
			provider.APIKey = secret.APIKey
		}
	}

	return nil
}

// SaveLocalConfig saves configuration to <home>/config.yaml
func SaveLocalConfig(cfg *LocalConfig) error {
	dir, err := EnsureHomeDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(dir, "config.yaml")

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// SaveSecrets saves API keys to <home>/secrets.yaml
func SaveSecrets(secrets map[string]string) error {
	dir, err := EnsureHomeDir()
	if err != nil {
		return err
	}

	secretsPath := filepath.Join(dir, "secrets.yaml")

	secretsCfg := SecretsConfig{
		Providers: make(map[string]struct {
			APIKey string `yaml:"api_key"`
		}),
	}

	for name, key := range secrets {
		secretsCfg.Providers[name] = struct {
			APIKey string `yaml:"api_key"`
		}{APIKey: key}
	}

	data, err := yaml.Marshal(secretsCfg)
	if err != nil {
		return fmt.Errorf("marshal secrets: %w", err)
	}

	// Owner read/write only
	if err := os.WriteFile(secretsPath, data, 0600); err != nil {
		return fmt.Errorf("write secrets: %w", err)
	}

	return nil
}
