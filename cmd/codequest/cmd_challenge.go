package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// cmdChallenge browses the challenge catalog
func cmdChallenge(args []string) error {
	if len(args) < 1 {
		fmt.Println(`Challenge commands:

  codequest challenge list [language]  List challenges, optionally by language
  codequest challenge info <id>        Show challenge details`)
		return nil
	}

	switch args[0] {
	case "list":
		language := ""
		if len(args) > 1 {
			language = args[1]
		}
		return cmdChallengeList(language)
	case "info":
		if len(args) < 2 {
			return fmt.Errorf("challenge ID required (e.g., js-variables-1)")
		}
		return cmdChallengeInfo(args[1])
	default:
		return fmt.Errorf("unknown challenge command: %s", args[0])
	}
}

func cmdChallengeList(language string) error {
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'codequest start' first)")
	}

	endpoint := daemonAddr + "/v1/challenges"
	if language != "" {
		endpoint += "?language=" + url.QueryEscape(language)
	}

	resp, err := http.Get(endpoint)
	if err != nil {
		return fmt.Errorf("get challenges: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Challenges []struct {
			ID         string `json:"id"`
			Title      string `json:"title"`
			Difficulty string `json:"difficulty"`
			Category   string `json:"category"`
			Language   string `json:"language"`
		} `json:"challenges"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	if len(result.Challenges) == 0 {
		fmt.Println("No challenges found.")
		return nil
	}

	fmt.Println("Available Challenges:")
	for _, c := range result.Challenges {
		fmt.Printf("  %s (%s)\n", c.Title, c.ID)
		fmt.Printf("    %s | %s | %s\n\n", c.Language, c.Category, c.Difficulty)
	}

	fmt.Println("Use 'codequest challenge info <id>' for details")
	return nil
}

func cmdChallengeInfo(id string) error {
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'codequest start' first)")
	}

	resp, err := http.Get(daemonAddr + "/v1/challenges/" + url.PathEscape(id))
	if err != nil {
		return fmt.Errorf("get challenge: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("challenge not found: %s", id)
	}

	var challenge struct {
		ID          string   `json:"id"`
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Difficulty  string   `json:"difficulty"`
		Category    string   `json:"category"`
		Language    string   `json:"language"`
		StarterCode string   `json:"starterCode"`
		Hints       []string `json:"hints"`
		Tests       []struct {
			Description string `json:"description"`
		} `json:"tests"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&challenge); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	fmt.Printf("Challenge: %s\n\n", challenge.Title)
	fmt.Printf("ID:         %s\n", challenge.ID)
	fmt.Printf("Language:   %s\n", challenge.Language)
	fmt.Printf("Category:   %s\n", challenge.Category)
	fmt.Printf("Difficulty: %s\n", challenge.Difficulty)
	fmt.Printf("\nDescription:\n%s\n", challenge.Description)

	if len(challenge.Tests) > 0 {
		fmt.Println("\nTests:")
		for _, tc := range challenge.Tests {
			fmt.Printf("  - %s\n", tc.Description)
		}
	}

	if len(challenge.Hints) > 0 {
		fmt.Printf("\nHints available: %d\n", len(challenge.Hints))
	}

	if challenge.StarterCode != "" {
		fmt.Printf("\nStarter code:\n%s\n", strings.TrimRight(challenge.StarterCode, "\n"))
	}

	return nil
}
