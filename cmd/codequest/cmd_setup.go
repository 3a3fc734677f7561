package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/eliseekajingu/codequest/internal/config"
)

// cmdInit initializes CodeQuest for first-time use
func cmdInit() error {
	fmt.Println("CodeQuest - First-Time Setup")
	fmt.Println("============================")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	// 1. Create directory structure
	fmt.Print("Creating ~/.codequest directory structure... ")
	homeDir, err := config.EnsureHomeDir()
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	fmt.Println("✓")

	// 2. Create default config if it doesn't exist
	configPath := filepath.Join(homeDir, "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Print("Creating default configuration... ")
		if err := config.SaveLocalConfig(config.DefaultLocalConfig()); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Println("✓")
	} else {
		fmt.Println("Configuration already exists ✓")
	}

	// 3. Configure LLM provider
	fmt.Println()
	fmt.Println("LLM Provider Setup")
	fmt.Println("------------------")
	fmt.Println("Challenge generation and code feedback need an OpenAI API key.")
	fmt.Println("Everything else works without one.")
	fmt.Println()

	cfg, _ := config.LoadLocalConfig()

	if cfg != nil && cfg.LLM.Providers["openai"] != nil && cfg.LLM.Providers["openai"].APIKey != "" {
		fmt.Println("OpenAI API key: already configured ✓")
	} else {
		fmt.Print("Enter OpenAI API key (or press Enter to skip): ")
		key, _ := reader.ReadString('\n')
		key = strings.TrimSpace(key)
		if key != "" {
			secrets := map[string]string{"openai": key}
			if err := config.SaveSecrets(secrets); err != nil {
				fmt.Printf("  ⚠ Failed to save: %v\n", err)
			} else {
				fmt.Println("  ✓ Saved")
			}
		}
	}

	// 4. Check the code runner environment
	fmt.Println()
	fmt.Print("Checking Docker... ")
	if err := checkDocker(); err != nil {
		fmt.Println("⚠ Not available (local execution will be used)")

		fmt.Print("Checking Node.js... ")
		if err := checkNode(); err != nil {
			fmt.Println("⚠ Not found (JavaScript challenges will not run)")
		} else {
			fmt.Println("✓")
		}
	} else {
		fmt.Println("✓")
	}

	// 5. Summary
	fmt.Println()
	fmt.Println("Setup Complete!")
	fmt.Println("===============")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. codequest start              # Start the daemon")
	fmt.Println("  2. codequest doctor             # Verify configuration")
	fmt.Println("  3. codequest profile create Ada # Create a player profile")
	fmt.Println("  4. codequest challenge list     # See available challenges")

	return nil
}

// cmdDoctor checks system requirements
func cmdDoctor() error {
	fmt.Println("Checking system requirements...")

	allGood := true

	// Check Docker
	fmt.Print("Docker:    ")
	if err := checkDocker(); err != nil {
		fmt.Printf("✗ %v\n", err)
		allGood = false
	} else {
		fmt.Println("✓ available")
	}

	// Check Node.js for local execution
	fmt.Print("Node.js:   ")
	if err := checkNode(); err != nil {
		fmt.Printf("✗ %v\n", err)
		allGood = false
	} else {
		fmt.Println("✓ available")
	}

	// Check codequest directory
	fmt.Print("Directory: ")
	homeDir, err := config.HomeDir()
	if err != nil {
		fmt.Printf("✗ %v\n", err)
		allGood = false
	} else if _, err := os.Stat(homeDir); os.IsNotExist(err) {
		fmt.Println("✗ not created (run 'codequest start' to create)")
		allGood = false
	} else {
		fmt.Printf("✓ %s\n", homeDir)
	}

	// Check config
	fmt.Print("Config:    ")
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		fmt.Printf("✗ %v\n", err)
		allGood = false
	} else {
		fmt.Println("✓ loaded")

		// Check LLM providers
		fmt.Println("\nLLM Providers:")
		for name, provider := range cfg.LLM.Providers {
			if !provider.Enabled {
				continue
			}

			fmt.Printf("  %s: ", name)
			if provider.APIKey != "" {
				fmt.Printf("✓ configured (model: %s)\n", provider.Model)
			} else {
				fmt.Printf("✗ no API key (run 'codequest provider set-key %s')\n", name)
			}
		}
	}

	// Check daemon status
	fmt.Print("\nDaemon:    ")
	if isRunning() {
		fmt.Println("✓ running")
	} else {
		fmt.Println("✗ not running (run 'codequest start')")
	}

	fmt.Println()
	if allGood {
		fmt.Println("All checks passed! ✓")
	} else {
		fmt.Println("Some checks failed. Please fix the issues above.")
	}

	return nil
}

// cmdConfig shows current configuration
func cmdConfig() error {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Println("CodeQuest Configuration")

	fmt.Println("Daemon:")
	fmt.Printf("  bind: %s:%d\n", cfg.Daemon.Bind, cfg.Daemon.Port)
	fmt.Printf("  log_level: %s\n", cfg.Daemon.LogLevel)

	fmt.Println("\nSession:")
	fmt.Printf("  autosave: %s\n", cfg.Session.AutosaveInterval())

	fmt.Println("\nLLM:")
	fmt.Printf("  default_provider: %s\n", cfg.LLM.DefaultProvider)
	for name, provider := range cfg.LLM.Providers {
		if provider.Enabled {
			keyStatus := "✗"
			if provider.APIKey != "" {
				keyStatus = "✓"
			}
			fmt.Printf("  %s: enabled=%t model=%s key=%s\n", name, provider.Enabled, provider.Model, keyStatus)
		}
	}

	fmt.Println("\nRunner:")
	fmt.Printf("  executor: %s\n", cfg.Runner.Executor)
	if cfg.Runner.Executor == "docker" {
		fmt.Printf("  image: %s\n", cfg.Runner.Docker.Image)
		fmt.Printf("  memory: %dMB\n", cfg.Runner.Docker.MemoryMB)
		fmt.Printf("  timeout: %ds\n", cfg.Runner.Docker.TimeoutSeconds)
	}

	homeDir, _ := config.HomeDir()
	fmt.Printf("\nConfig path: %s/config.yaml\n", homeDir)

	return nil
}

// cmdProvider manages LLM provider API keys
func cmdProvider(args []string) error {
	if len(args) < 1 {
		fmt.Println(`Provider management commands:

  codequest provider list              List configured providers
  codequest provider set-key <name>    Set API key for a provider`)
		return nil
	}

	switch args[0] {
	case "list":
		return cmdProviderList()
	case "set-key":
		if len(args) < 2 {
			return fmt.Errorf("provider name required")
		}
		return cmdProviderSetKey(args[1])
	default:
		return fmt.Errorf("unknown provider command: %s", args[0])
	}
}

func cmdProviderList() error {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Println("Configured LLM Providers:")
	for name, provider := range cfg.LLM.Providers {
		status := "disabled"
		if provider.Enabled {
			if provider.APIKey != "" {
				status = "ready"
			} else {
				status = "needs API key"
			}
		}

		isDefault := ""
		if name == cfg.LLM.DefaultProvider {
			isDefault = " (default)"
		}

		fmt.Printf("  %s%s\n", name, isDefault)
		fmt.Printf("    status: %s\n", status)
		fmt.Printf("    model:  %s\n", provider.Model)
		if provider.URL != "" {
			fmt.Printf("    url:    %s\n", provider.URL)
		}
		fmt.Println()
	}

	return nil
}

func cmdProviderSetKey(provider string) error {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Check if provider exists
	if _, ok := cfg.LLM.Providers[provider]; !ok {
		return fmt.Errorf("unknown provider: %s", provider)
	}

	// Prompt for API key
	fmt.Printf("Enter %s API key: ", provider)
	reader := bufio.NewReader(os.Stdin)
	key, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	key = strings.TrimSpace(key)

	if key == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	secrets := map[string]string{provider: key}
	if err := config.SaveSecrets(secrets); err != nil {
		return fmt.Errorf("save secrets: %w", err)
	}

	fmt.Printf("✓ API key saved for %s\n", provider)
	fmt.Println("Restart the daemon for changes to take effect: codequest stop && codequest start")

	return nil
}

func checkDocker() error {
	// Check if docker is in PATH
	if _, err := exec.LookPath("docker"); err != nil {
		return fmt.Errorf("docker not found in PATH")
	}

	// Check if docker daemon is running
	cmd := exec.Command("docker", "info")
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("docker daemon not running")
	}

	return nil
}

func checkNode() error {
	if _, err := exec.LookPath("node"); err != nil {
		return fmt.Errorf("node not found in PATH")
	}
	return nil
}
