package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// cmdRun submits a local file against a challenge's tests
func cmdRun(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: codequest run <challenge-id> <file>")
	}
	challengeID, file := args[0], args[1]

	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'codequest start' first)")
	}

	code, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	payload := map[string]string{
		"code":        string(code),
		"challengeId": challengeID,
	}
	if lang := languageFromExt(file); lang != "" {
		payload["language"] = lang
	}

	body, _ := json.Marshal(payload)
	resp, err := http.Post(daemonAddr+"/v1/playground/run", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("submit run: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("challenge not found: %s", challengeID)
	}
	if resp.StatusCode != http.StatusOK {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		if errBody.Error != "" {
			return fmt.Errorf("run rejected: %s", errBody.Error)
		}
		return fmt.Errorf("run rejected: status %d", resp.StatusCode)
	}

	var result struct {
		Result struct {
			OK    bool `json:"ok"`
			Lines []struct {
				Channel string `json:"channel"`
				Text    string `json:"text"`
			} `json:"lines"`
			Tests []struct {
				Description string `json:"description"`
				Passed      bool   `json:"passed"`
				Message     string `json:"message"`
			} `json:"tests"`
			TimedOut bool `json:"timed_out"`
		} `json:"result"`
		Completed bool `json:"completed"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	if len(result.Result.Lines) > 0 {
		fmt.Println("Output:")
		for _, line := range result.Result.Lines {
			fmt.Printf("  %s\n", line.Text)
		}
		fmt.Println()
	}

	passed := 0
	for _, tc := range result.Result.Tests {
		mark := "✗"
		if tc.Passed {
			mark = "✓"
			passed++
		}
		fmt.Printf("  %s %s\n", mark, tc.Description)
		if !tc.Passed && tc.Message != "" {
			fmt.Printf("      %s\n", tc.Message)
		}
	}

	fmt.Println()
	switch {
	case result.Result.TimedOut:
		fmt.Println("✗ Run timed out")
	case len(result.Result.Tests) == 0:
		fmt.Println("No tests for this challenge")
	case passed == len(result.Result.Tests):
		fmt.Printf("✓ All %d tests passed!\n", passed)
		if result.Completed {
			fmt.Println("Challenge completed, +50 XP")
		}
	default:
		fmt.Printf("✗ %d/%d tests passed\n", passed, len(result.Result.Tests))
	}

	return nil
}

func languageFromExt(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".js", ".mjs":
		return "javascript"
	case ".py":
		return "python"
	case ".html", ".htm":
		return "html"
	case ".css":
		return "css"
	}
	return ""
}
