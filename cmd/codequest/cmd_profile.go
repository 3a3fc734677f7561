package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// cmdProfile manages player profiles
func cmdProfile(args []string) error {
	if len(args) < 1 {
		fmt.Println(`Profile commands:

  codequest profile list           List player profiles
  codequest profile create <name>  Create a new profile
  codequest profile info <id>      Show profile details
  codequest profile delete <id>    Delete a profile`)
		return nil
	}

	switch args[0] {
	case "list":
		return cmdProfileList()
	case "create":
		if len(args) < 2 {
			return fmt.Errorf("player name required")
		}
		return cmdProfileCreate(strings.Join(args[1:], " "))
	case "info":
		if len(args) < 2 {
			return fmt.Errorf("profile ID required")
		}
		return cmdProfileInfo(args[1])
	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("profile ID required")
		}
		return cmdProfileDelete(args[1])
	default:
		return fmt.Errorf("unknown profile command: %s", args[0])
	}
}

func cmdProfileList() error {
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'codequest start' first)")
	}

	resp, err := http.Get(daemonAddr + "/v1/profiles")
	if err != nil {
		return fmt.Errorf("get profiles: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Profiles []struct {
			ID         string `json:"id"`
			PlayerName string `json:"playerName"`
			Level      int    `json:"level"`
			Experience int    `json:"experience"`
			LastSaved  string `json:"lastSaved"`
		} `json:"profiles"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	if len(result.Profiles) == 0 {
		fmt.Println("No profiles yet. Create one with 'codequest profile create <name>'")
		return nil
	}

	fmt.Println("Player Profiles:")
	for _, p := range result.Profiles {
		fmt.Printf("  %s (level %d, %d XP)\n", p.PlayerName, p.Level, p.Experience)
		fmt.Printf("    id: %s\n", p.ID)
	}

	return nil
}

func cmdProfileCreate(name string) error {
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'codequest start' first)")
	}

	body, _ := json.Marshal(map[string]string{"playerName": name})
	resp, err := http.Post(daemonAddr+"/v1/profiles", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return fmt.Errorf("profile name already in use: %s", name)
	}
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("create profile: unexpected status %d", resp.StatusCode)
	}

	var snap struct {
		ID         string `json:"id"`
		PlayerName string `json:"playerName"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	fmt.Printf("✓ Created profile %q\n", snap.PlayerName)
	fmt.Printf("  id: %s\n", snap.ID)

	return nil
}

func cmdProfileInfo(id string) error {
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'codequest start' first)")
	}

	resp, err := http.Get(daemonAddr + "/v1/profiles/" + id)
	if err != nil {
		return fmt.Errorf("get profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("profile not found: %s", id)
	}

	var snap struct {
		ID                  string         `json:"id"`
		PlayerName          string         `json:"playerName"`
		Experience          int            `json:"experience"`
		Level               int            `json:"level"`
		SkillPoints         int            `json:"skillPoints"`
		Skills              map[string]int `json:"skills"`
		Inventory           []string       `json:"inventory"`
		CompletedQuests     []string       `json:"completedQuests"`
		CompletedChallenges []string       `json:"completedChallenges"`
		CurrentScene        string         `json:"currentScene"`
		LastSaved           string         `json:"lastSaved"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	fmt.Printf("Player: %s\n\n", snap.PlayerName)
	fmt.Printf("Level:        %d (%d XP)\n", snap.Level, snap.Experience)
	fmt.Printf("Skill Points: %d\n", snap.SkillPoints)
	fmt.Printf("Scene:        %s\n", snap.CurrentScene)
	fmt.Printf("Quests:       %d completed\n", len(snap.CompletedQuests))
	fmt.Printf("Challenges:   %d completed\n", len(snap.CompletedChallenges))

	if len(snap.Skills) > 0 {
		fmt.Println("\nSkills:")
		for skill, level := range snap.Skills {
			fmt.Printf("  %-12s %d\n", skill, level)
		}
	}

	if len(snap.Inventory) > 0 {
		fmt.Printf("\nInventory: %s\n", strings.Join(snap.Inventory, ", "))
	}

	if snap.LastSaved != "" {
		fmt.Printf("\nLast saved: %s\n", snap.LastSaved)
	}

	return nil
}

func cmdProfileDelete(id string) error {
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'codequest start' first)")
	}

	req, err := http.NewRequest(http.MethodDelete, daemonAddr+"/v1/profiles/"+id, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("delete profile: unexpected status %d", resp.StatusCode)
	}

	fmt.Println("✓ Profile deleted")
	return nil
}
