// Package profile persists player save slots as local JSON documents.
package profile

import (
	"errors"
	"time"

	"github.com/eliseekajingu/codequest/internal/domain"
	"github.com/eliseekajingu/codequest/internal/storage/local"
)

const collectionProfiles = "profiles"

// Snapshot is the JSON-serializable save slot structure
type Snapshot struct {
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
	Theme               string         `json:"theme"`
	TotalPlayTime       int64          `json:"totalPlayTime"`
	SessionsCompleted   int            `json:"sessionsCompleted"`
	LastSaved           time.Time      `json:"lastSaved"`
	CreatedAt           time.Time      `json:"createdAt"`
}

// Store handles snapshot persistence
type Store struct {
	store *local.Store
}

// NewStore creates a new profile store rooted at basePath
func NewStore(basePath string) (*Store, error) {
	store, err := local.NewStore(basePath)
	if err != nil {
		return nil, err
	}
	return &Store{store: store}, nil
}

// Save persists a snapshot
func (s *Store) Save(snap *Snapshot) error {
	return s.store.Save(collectionProfiles, snap.ID, snap)
}

// Get retrieves a snapshot by ID
func (s *Store) Get(id string) (*Snapshot, error) {
	var snap Snapshot
	if err := s.store.Load(collectionProfiles, id, &snap); err != nil {
		if errors.Is(err, local.ErrNotFound) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	return &snap, nil
}

// Delete removes a snapshot
func (s *Store) Delete(id string) error {
	if err := s.store.Delete(collectionProfiles, id); err != nil {
		if errors.Is(err, local.ErrNotFound) {
			return domain.ErrProfileNotFound
		}
		return err
	}
	return nil
}

// List returns all snapshot IDs
func (s *Store) List() ([]string, error) {
	return s.store.List(collectionProfiles)
}

// Exists checks if a snapshot exists
func (s *Store) Exists(id string) bool {
	return s.store.Exists(collectionProfiles, id)
}
