package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eliseekajingu/codequest/internal/domain"
	"github.com/eliseekajingu/codequest/internal/game"
)

// Summary is a profile line for the selection screen
type Summary struct {
	ID         string    `json:"id"`
	PlayerName string    `json:"playerName"`
	Level      int       `json:"level"`
	Experience int       `json:"experience"`
	LastSaved  time.Time `json:"lastSaved"`
}

// Service handles save slot business logic
type Service struct {
	store  *Store
	logger *slog.Logger
}

// NewService creates a new profile service
func NewService(store *Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// List returns summaries of all save slots, most recently saved first
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	ids, err := s.store.List()
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	summaries := make([]Summary, 0, len(ids))
	for _, id := range ids {
		snap, err := s.store.Get(id)
		if err != nil {
			s.logger.Warn("skipping unreadable profile", "id", id, "error", err)
			continue
		}
		summaries = append(summaries, Summary{
			ID:         snap.ID,
			PlayerName: snap.PlayerName,
			Level:      domain.LevelForExperience(snap.Experience),
			Experience: snap.Experience,
			LastSaved:  snap.LastSaved,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastSaved.After(summaries[j].LastSaved)
	})
	return summaries, nil
}

// Create starts a new save slot for the given player name. Names are
// unique ignoring case.
func (s *Service) Create(ctx context.Context, playerName string) (*Snapshot, error) {
	playerName = strings.TrimSpace(playerName)
	if playerName == "" {
		return nil, fmt.Errorf("player name required: %w", domain.ErrInvalidInput)
	}

	existing, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, sum := range existing {
		if strings.EqualFold(sum.PlayerName, playerName) {
			return nil, fmt.Errorf("profile %q: %w", playerName, domain.ErrDuplicateProfileName)
		}
	}

	now := time.Now().UTC()
	state := game.NewState(uuid.New(), playerName)
	snap := FromState(state)
	snap.CreatedAt = now
	snap.LastSaved = now

	if err := s.store.Save(snap); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	s.logger.Info("profile created", "id", snap.ID, "player", playerName)
	return snap, nil
}

// Load reads a save slot, fills in defaults for fields missing from older
// saves, and counts the new play session.
func (s *Service) Load(ctx context.Context, id string) (*Snapshot, error) {
	snap, err := s.store.Get(id)
	if err != nil {
		return nil, fmt.Errorf("load profile %s: %w", id, err)
	}

	normalize(snap)
	snap.SessionsCompleted++

	if err := s.store.Save(snap); err != nil {
		s.logger.Warn("failed to record session start", "id", id, "error", err)
	}
	return snap, nil
}

// Save writes the current state back to the slot, adding the elapsed play
// time since the previous save.
func (s *Service) Save(ctx context.Context, snap *Snapshot, elapsed time.Duration) error {
	if snap.ID == "" {
		return fmt.Errorf("save profile: %w", domain.ErrInvalidInput)
	}
	if elapsed > 0 {
		snap.TotalPlayTime += int64(elapsed.Seconds())
	}
	snap.LastSaved = time.Now().UTC()

	if err := s.store.Save(snap); err != nil {
		return fmt.Errorf("save profile %s: %w", snap.ID, err)
	}
	return nil
}

// Delete removes a save slot. Deleting a missing slot is not an error.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.store.Delete(id)
	if err != nil && !errors.Is(err, domain.ErrProfileNotFound) {
		return fmt.Errorf("delete profile %s: %w", id, err)
	}
	if err == nil {
		s.logger.Info("profile deleted", "id", id)
	}
	return nil
}

// FromState converts play state into its persisted form
func FromState(st game.State) *Snapshot {
	skills := make(map[string]int, len(st.Skills))
	for k, v := range st.Skills {
		skills[string(k)] = v
	}
	quests := make([]string, 0, len(st.CompletedQuests))
	for _, q := range st.CompletedQuests {
		quests = append(quests, string(q))
	}
	return &Snapshot{
		ID:                  st.ProfileID.String(),
		PlayerName:          st.PlayerName,
		Experience:          st.Experience,
		Level:               st.Level,
		SkillPoints:         st.SkillPoints,
		Skills:              skills,
		Inventory:           append([]string(nil), st.Inventory...),
		CompletedQuests:     quests,
		CompletedChallenges: append([]string(nil), st.CompletedChallenges...),
		CurrentScene:        string(st.CurrentScene),
		Theme:               string(st.Theme),
	}
}

// ToState converts a snapshot back into play state
func (snap *Snapshot) ToState() (game.State, error) {
	id, err := uuid.Parse(snap.ID)
	if err != nil {
		return game.State{}, fmt.Errorf("parse profile id %q: %w", snap.ID, err)
	}

	st := game.NewState(id, snap.PlayerName)
	st.Experience = snap.Experience
	if snap.Level > 1 {
		st.Level = snap.Level
	}
	st.SkillPoints = snap.SkillPoints
	for name, level := range snap.Skills {
		skill := domain.SkillID(name)
		if skill.IsValid() {
			st.Skills[skill] = level
		}
	}
	st.Inventory = append([]string(nil), snap.Inventory...)
	for _, q := range snap.CompletedQuests {
		if _, ok := domain.QuestByID(domain.QuestID(q)); ok {
			st.CompletedQuests = append(st.CompletedQuests, domain.QuestID(q))
		}
	}
	st.CompletedChallenges = append([]string(nil), snap.CompletedChallenges...)
	st.CurrentScene = domain.NormalizeScene(domain.SceneID(snap.CurrentScene))
	st.Theme = domain.NormalizeTheme(domain.ThemeID(snap.Theme))
	return st, nil
}

// normalize fills in defaults left unset by older save files
func normalize(snap *Snapshot) {
	if snap.Level < 1 {
		snap.Level = 1
	}
	if snap.Skills == nil {
		snap.Skills = make(map[string]int, len(domain.AllSkills))
	}
	for _, skill := range domain.AllSkills {
		if _, ok := snap.Skills[string(skill)]; !ok {
			snap.Skills[string(skill)] = 0
		}
	}
	if snap.Inventory == nil {
		snap.Inventory = []string{}
	}
	if snap.CompletedQuests == nil {
		snap.CompletedQuests = []string{}
	}
	if snap.CompletedChallenges == nil {
		snap.CompletedChallenges = []string{}
	}
	snap.CurrentScene = string(domain.NormalizeScene(domain.SceneID(snap.CurrentScene)))
	snap.Theme = string(domain.NormalizeTheme(domain.ThemeID(snap.Theme)))
}
