// Package game implements the quest progression state machine. State is an
// immutable value; Apply produces a new state plus a list of effects for the
// caller to interpret. Transitions never fail: malformed input degrades to a
// no-op or a default.
package game

import (
	"github.com/google/uuid"

	"github.com/eliseekajingu/codequest/internal/domain"
)

// State is the full in-memory play state for one profile
type State struct {
	ProfileID           uuid.UUID
	PlayerName          string
	Experience          int
	Level               int
	SkillPoints         int
	Skills              map[domain.SkillID]int
	Inventory           []string
	CompletedQuests     []domain.QuestID
	CompletedChallenges []string
	CurrentScene        domain.SceneID
	Theme               domain.ThemeID
}

// NewState returns the default starting state for a profile
func NewState(profileID uuid.UUID, playerName string) State {
	skills := make(map[domain.SkillID]int, len(domain.AllSkills))
	for _, s := range domain.AllSkills {
		skills[s] = 0
	}
	return State{
		ProfileID:    profileID,
		PlayerName:   playerName,
		Level:        1,
		Skills:       skills,
		CurrentScene: domain.DefaultScene,
		Theme:        domain.DefaultTheme,
	}
}

// Clone deep-copies the state so transitions never alias the input
func (s State) Clone() State {
	out := s
	out.Skills = make(map[domain.SkillID]int, len(s.Skills))
	for k, v := range s.Skills {
		out.Skills[k] = v
	}
	out.Inventory = append([]string(nil), s.Inventory...)
	out.CompletedQuests = append([]domain.QuestID(nil), s.CompletedQuests...)
	out.CompletedChallenges = append([]string(nil), s.CompletedChallenges...)
	return out
}

// TotalSkillPoints sums every skill level
func (s State) TotalSkillPoints() int {
	total := 0
	for _, v := range s.Skills {
		total += v
	}
	return total
}

// HasItem reports whether the inventory contains item
func (s State) HasItem(item string) bool {
	for _, it := range s.Inventory {
		if it == item {
			return true
		}
	}
	return false
}

// QuestCompleted reports whether the quest has been completed
func (s State) QuestCompleted(id domain.QuestID) bool {
	for _, q := range s.CompletedQuests {
		if q == id {
			return true
		}
	}
	return false
}

// ChallengeCompleted reports whether the playground challenge has been
// completed before.
func (s State) ChallengeCompleted(id string) bool {
	for _, c := range s.CompletedChallenges {
		if c == id {
			return true
		}
	}
	return false
}

// Progress returns completed and total counts for the quest progress bar.
// The final project is not counted.
func (s State) Progress() (done, total int) {
	for _, q := range s.CompletedQuests {
		if q != domain.QuestFinalProject {
			done++
		}
	}
	return done, domain.ProgressTotal
}

// UnlockedQuests evaluates every quest gate against the current skills
func (s State) UnlockedQuests() map[domain.QuestID]bool {
	out := make(map[domain.QuestID]bool, len(domain.AllQuests))
	for i := range domain.AllQuests {
		q := &domain.AllQuests[i]
		out[q.ID] = q.Unlocked(s.Skills)
	}
	return out
}
