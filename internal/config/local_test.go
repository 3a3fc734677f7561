package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestHomeDir(t *testing.T) {
	t.Setenv("CODEQUEST_HOME", "")

	dir, err := HomeDir()
	if err != nil {
		t.Fatalf("HomeDir() error = %v", err)
	}

	if filepath.Base(dir) != ".codequest" {
		t.Errorf("HomeDir() = %q, want ending with .codequest", dir)
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("HomeDir() = %q, want absolute path", dir)
	}
}

func TestHomeDirOverride(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("CODEQUEST_HOME", tmp)

	dir, err := HomeDir()
	if err != nil {
		t.Fatalf("HomeDir() error = %v", err)
	}
	if dir != tmp {
		t.Errorf("HomeDir() = %q, want %q", dir, tmp)
	}
}

func TestEnsureHomeDir(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("CODEQUEST_HOME", filepath.Join(tmp, "cq"))

	dir, err := EnsureHomeDir()
	if err != nil {
		t.Fatalf("EnsureHomeDir() error = %v", err)
	}

	subdirs := []string{"logs", "profiles", "data"}
	for _, subdir := range subdirs {
		path := filepath.Join(dir, subdir)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Errorf("EnsureHomeDir() should create %s", subdir)
		}
	}
}

func TestDerivedPaths(t *testing.T) {
	home := "/tmp/cq"
	if got := ProfilesDir(home); got != filepath.Join(home, "profiles") {
		t.Errorf("ProfilesDir = %q", got)
	}
	if got := DatabasePath(home); got != filepath.Join(home, "data", "codequest.db") {
		t.Errorf("DatabasePath = %q", got)
	}
}

func TestDefaultLocalConfig(t *testing.T) {
	cfg := DefaultLocalConfig()
	if cfg == nil {
		t.Fatal("DefaultLocalConfig() returned nil")
	}

	if cfg.Daemon.Port != 7433 {
		t.Errorf("Daemon.Port = %d, want 7433", cfg.Daemon.Port)
	}
	if cfg.Daemon.Bind != "127.0.0.1" {
		t.Errorf("Daemon.Bind = %q, want 127.0.0.1", cfg.Daemon.Bind)
	}
	if cfg.Daemon.LogLevel != "info" {
		t.Errorf("Daemon.LogLevel = %q, want info", cfg.Daemon.LogLevel)
	}

	if cfg.Session.AutosaveSeconds != 180 {
		t.Errorf("Session.AutosaveSeconds = %d, want 180", cfg.Session.AutosaveSeconds)
	}

	if cfg.LLM.DefaultProvider != "openai" {
		t.Errorf("LLM.DefaultProvider = %q, want openai", cfg.LLM.DefaultProvider)
	}
	if openai, ok := cfg.LLM.Providers["openai"]; !ok {
		t.Error("LLM.Providers should include openai")
	} else if !openai.Enabled {
		t.Error("openai provider should be enabled by default")
	}

	if cfg.Runner.Executor != "process" {
		t.Errorf("Runner.Executor = %q, want process", cfg.Runner.Executor)
	}
	if cfg.Runner.Docker.MemoryMB != 256 {
		t.Errorf("Runner.Docker.MemoryMB = %d, want 256", cfg.Runner.Docker.MemoryMB)
	}
	if !cfg.Runner.Docker.NetworkOff {
		t.Error("Runner.Docker.NetworkOff should be true by default")
	}
}

func TestAutosaveInterval(t *testing.T) {
	tests := []struct {
		name    string
		seconds int
		want    time.Duration
	}{
		{"default", 180, 3 * time.Minute},
		{"custom", 60, time.Minute},
		{"zero falls back", 0, 3 * time.Minute},
		{"negative falls back", -5, 3 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := SessionConfig{AutosaveSeconds: tt.seconds}
			if got := c.AutosaveInterval(); got != tt.want {
				t.Errorf("AutosaveInterval() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadSecrets(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := DefaultLocalConfig()

	secretsContent := `providers:
  openai:
    api_key: sk-openai-test-key
`
	secretsPath := filepath.Join(tmpDir, "secrets.yaml")
	if err := os.WriteFile(secretsPath, []byte(secretsContent), 0600); err != nil {
		t.Fatalf("Failed to write secrets file: %v", err)
	}

	if err := loadSecrets(tmpDir, cfg); err != nil {
		t.Fatalf("loadSecrets() error = %v", err)
	}

	if cfg.LLM.Providers["openai"].APIKey != "sk-openai-test-key" {
		t.Errorf("openai APIKey = %q, want sk-openai-test-key", cfg.LLM.Providers["openai"].APIKey)
	}
}

func TestLoadSecrets_NoSecretsFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := DefaultLocalConfig()

	if err := loadSecrets(tmpDir, cfg); err != nil {
		t.Errorf("loadSecrets() should not error when secrets file is missing: %v", err)
	}
}

func TestLoadSecrets_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := DefaultLocalConfig()

	secretsPath := filepath.Join(tmpDir, "secrets.yaml")
	if err := os.WriteFile(secretsPath, []byte("invalid: yaml: content:"), 0600); err != nil {
		t.Fatalf("Failed to write secrets file: %v", err)
	}

	if err := loadSecrets(tmpDir, cfg); err == nil {
		t.Error("loadSecrets() should error on invalid YAML")
	}
}

func TestLoadSecrets_UnknownProvider(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := DefaultLocalConfig()

	secretsContent := `providers:
  unknown_provider:
    api_key: some-key
`
	secretsPath := filepath.Join(tmpDir, "secrets.yaml")
	if err := os.WriteFile(secretsPath, []byte(secretsContent), 0600); err != nil {
		t.Fatalf("Failed to write secrets file: %v", err)
	}

	// Unknown providers are ignored
	if err := loadSecrets(tmpDir, cfg); err != nil {
		t.Errorf("loadSecrets() should not error on unknown provider: %v", err)
	}
}

func TestLoadLocalConfig_DefaultsWhenNoFile(t *testing.T) {
	t.Setenv("CODEQUEST_HOME", t.TempDir())

	cfg, err := LoadLocalConfig()
	if err != nil {
		t.Fatalf("LoadLocalConfig() error = %v", err)
	}

	if cfg.Daemon.Port != 7433 {
		t.Errorf("Daemon.Port = %d, want 7433 (default)", cfg.Daemon.Port)
	}
}

func TestLoadLocalConfig_WithConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("CODEQUEST_HOME", home)

	configContent := `daemon:
  port: 9999
  bind: "0.0.0.0"
  log_level: debug
session:
  autosave_seconds: 60
`
	configPath := filepath.Join(home, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadLocalConfig()
	if err != nil {
		t.Fatalf("LoadLocalConfig() error = %v", err)
	}

	if cfg.Daemon.Port != 9999 {
		t.Errorf("Daemon.Port = %d, want 9999", cfg.Daemon.Port)
	}
	if cfg.Daemon.Bind != "0.0.0.0" {
		t.Errorf("Daemon.Bind = %q, want 0.0.0.0", cfg.Daemon.Bind)
	}
	if cfg.Daemon.LogLevel != "debug" {
		t.Errorf("Daemon.LogLevel = %q, want debug", cfg.Daemon.LogLevel)
	}
	if cfg.Session.AutosaveInterval() != time.Minute {
		t.Errorf("AutosaveInterval = %v, want 1m", cfg.Session.AutosaveInterval())
	}
	// Sections the file omits keep their defaults
	if cfg.LLM.DefaultProvider != "openai" {
		t.Errorf("LLM.DefaultProvider = %q, want openai", cfg.LLM.DefaultProvider)
	}
}

func TestLoadLocalConfig_WithSecrets(t *testing.T) {
	home := t.TempDir()
	t.Setenv("CODEQUEST_HOME", home)

	configPath := filepath.Join(home, "config.yaml")
	if err := os.WriteFile(configPath, []byte("daemon:\n  port: 7433\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	secretsContent := `providers:
  openai:
    api_key: test-api-key
`
	secretsPath := filepath.Join(home, "secrets.yaml")
	if err := os.WriteFile(secretsPath, []byte(secretsContent), 0600); err != nil {
		t.Fatalf("Failed to write secrets file: %v", err)
	}

	cfg, err := LoadLocalConfig()
	if err != nil {
		t.Fatalf("LoadLocalConfig() error = %v", err)
	}

	if cfg.LLM.Providers["openai"].APIKey != "test-api-key" {
		t.Errorf("openai APIKey = %q, want test-api-key", cfg.LLM.Providers["openai"].APIKey)
	}
}

func TestLoadLocalConfig_InvalidConfigYAML(t *testing.T) {
	home := t.TempDir()
	t.Setenv("CODEQUEST_HOME", home)

	configPath := filepath.Join(home, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: yaml: [broken"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err := LoadLocalConfig()
	if err == nil {
		t.Error("LoadLocalConfig() should error on invalid YAML")
	}
}

func TestSaveLocalConfig(t *testing.T) {
	home := filepath.Join(t.TempDir(), "cq")
	t.Setenv("CODEQUEST_HOME", home)

	cfg := DefaultLocalConfig()
	cfg.Daemon.Port = 8888
	cfg.Session.AutosaveSeconds = 30

	if err := SaveLocalConfig(cfg); err != nil {
		t.Fatalf("SaveLocalConfig() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(home, "config.yaml"))
	if err != nil {
		t.Fatalf("Failed to read saved config: %v", err)
	}

	var loaded LocalConfig
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("Failed to parse saved config: %v", err)
	}

	if loaded.Daemon.Port != 8888 {
		t.Errorf("Saved Daemon.Port = %d, want 8888", loaded.Daemon.Port)
	}
	if loaded.Session.AutosaveSeconds != 30 {
		t.Errorf("Saved Session.AutosaveSeconds = %d, want 30", loaded.Session.AutosaveSeconds)
	}
}

func TestSaveSecrets(t *testing.T) {
	home := filepath.Join(t.TempDir(), "cq")
	t.Setenv("CODEQUEST_HOME", home)

	secrets := map[string]string{
		"openai": "sk-openai-secret",
	}

	if err := SaveSecrets(secrets); err != nil {
		t.Fatalf("SaveSecrets() error = %v", err)
	}

	secretsPath := filepath.Join(home, "secrets.yaml")
	info, err := os.Stat(secretsPath)
	if err != nil {
		t.Fatalf("Failed to stat secrets file: %v", err)
	}

	if info.Mode().Perm() != 0600 {
		t.Errorf("Secrets file permissions = %o, want 0600", info.Mode().Perm())
	}

	data, err := os.ReadFile(secretsPath)
	if err != nil {
		t.Fatalf("Failed to read secrets file: %v", err)
	}

	var loaded SecretsConfig
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("Failed to parse saved secrets: %v", err)
	}

	if loaded.Providers["openai"].APIKey != "sk-openai-secret" {
		t.Errorf("Saved openai APIKey = %q, want sk-openai-secret", loaded.Providers["openai"].APIKey)
	}
}

func TestRoundTrip_ConfigAndSecrets(t *testing.T) {
	home := filepath.Join(t.TempDir(), "cq")
	t.Setenv("CODEQUEST_HOME", home)

	cfg := DefaultLocalConfig()
	cfg.Daemon.Port = 7777
	cfg.Daemon.LogLevel = "debug"

	if err := SaveLocalConfig(cfg); err != nil {
		t.Fatalf("SaveLocalConfig() error = %v", err)
	}

	secrets := map[string]string{
		"openai": "roundtrip-openai-key",
	}
	if err := SaveSecrets(secrets); err != nil {
		t.Fatalf("SaveSecrets() error = %v", err)
	}

	loaded, err := LoadLocalConfig()
	if err != nil {
		t.Fatalf("LoadLocalConfig() error = %v", err)
	}

	if loaded.Daemon.Port != 7777 {
		t.Errorf("Round-trip Daemon.Port = %d, want 7777", loaded.Daemon.Port)
	}
	if loaded.Daemon.LogLevel != "debug" {
		t.Errorf("Round-trip Daemon.LogLevel = %q, want debug", loaded.Daemon.LogLevel)
	}
	if loaded.LLM.Providers["openai"].APIKey != "roundtrip-openai-key" {
		t.Errorf("Round-trip openai APIKey = %q, want roundtrip-openai-key", loaded.LLM.Providers["openai"].APIKey)
	}
}

func TestLocalConfig_APIKeyNotSerialized(t *testing.T) {
	cfg := &LocalConfig{
		LLM: LLMConfig{
			DefaultProvider: "test",
			Providers: map[string]*ProviderConfig{
				"test": {
					Enabled: true,
					Model:   "test-model",
					APIKey:  "test-key",
				},
			},
		},
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}

	var loaded LocalConfig
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}

	// API keys live in secrets.yaml, never in config.yaml
	if loaded.LLM.Providers["test"].APIKey != "" {
		t.Error("APIKey should not be serialized to YAML")
	}
}
