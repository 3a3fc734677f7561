package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// cmdLeaderboard shows the top players
func cmdLeaderboard(args []string) error {
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'codequest start' first)")
	}

	order := "experience"
	if len(args) > 0 {
		order = args[0]
	}

	resp, err := http.Get(daemonAddr + "/v1/leaderboard?order=" + url.QueryEscape(order))
	if err != nil {
		return fmt.Errorf("get leaderboard: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unknown order: %s (valid: experience, level, playtime)", order)
	}

	var result struct {
		Entries []struct {
			Rank              int    `json:"rank"`
			PlayerName        string `json:"player_name"`
			Experience        int    `json:"experience"`
			Level             int    `json:"level"`
			SessionsCompleted int    `json:"sessions_completed"`
		} `json:"entries"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	fmt.Println("Leaderboard")
	fmt.Println("===========")

	if len(result.Entries) == 0 {
		fmt.Println("No players yet. Start playing!")
		return nil
	}

	top := result.Entries[0].Experience
	for _, e := range result.Entries {
		share := 0.0
		if top > 0 {
			share = float64(e.Experience) / float64(top)
		}
		bar := renderProgressBar(share, 20)
		fmt.Printf("%2d. %-20s %s %d XP (level %d, %d sessions)\n",
			e.Rank, e.PlayerName, bar, e.Experience, e.Level, e.SessionsCompleted)
	}

	return nil
}
