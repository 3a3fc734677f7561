package main

import (
	"fmt"
	"os"
	"strings"
)

// Version is set at build time via ldflags
var Version = "dev"

const (
	daemonAddr = "http://127.0.0.1:7433"
	pidFile    = "codequestd.pid"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = cmdInit()
	case "start":
		err = cmdStart()
	case "stop":
		err = cmdStop()
	case "status":
		err = cmdStatus()
	case "logs":
		err = cmdLogs()
	case "doctor":
		err = cmdDoctor()
	case "config":
		err = cmdConfig()
	case "provider":
		err = cmdProvider(os.Args[2:])
	case "profile":
		err = cmdProfile(os.Args[2:])
	case "challenge":
		err = cmdChallenge(os.Args[2:])
	case "run":
		err = cmdRun(os.Args[2:])
	case "leaderboard":
		err = cmdLeaderboard(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Printf("codequest %s\n", Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`CodeQuest - Learn Programming Through Adventure

Usage:
  codequest <command> [arguments]

Setup Commands:
  init            Initialize CodeQuest (first-time setup)
  doctor          Check system requirements
  config          Show current configuration
  provider        Manage LLM providers

Daemon Commands:
  start           Start the CodeQuest daemon
  stop            Stop the CodeQuest daemon
  status          Show daemon status
  logs            View daemon logs

Profile Commands:
  profile list    List player profiles
  profile create  Create a new player profile
  profile info    Show profile details
  profile delete  Delete a player profile

Challenge Commands:
  challenge list  List available challenges
  challenge info  Show challenge details
  run             Run a local file against a challenge's tests

Leaderboard:
  leaderboard     Show top players

Other:
  help            Show this help message
  version         Show version information

Examples:
  codequest start                    # Start daemon
  codequest doctor                   # Check Docker, LLM providers
  codequest provider set-key openai  # Configure OpenAI API key
  codequest profile create Ada       # Create a profile
  codequest challenge list javascript`)
}

// renderProgressBar creates a visual progress bar
func renderProgressBar(value float64, width int) string {
	filled := int(value * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	empty := width - filled

	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", empty) + "]"
}
