// Package session manages the active play session: one profile loaded at a
// time, a single-writer save queue, periodic autosave, and effect handling
// for the state machine.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eliseekajingu/codequest/internal/domain"
	"github.com/eliseekajingu/codequest/internal/game"
	"github.com/eliseekajingu/codequest/internal/leaderboard"
	"github.com/eliseekajingu/codequest/internal/profile"
)

const maxNotifications = 20

// Config holds session tunables
type Config struct {
	AutosaveInterval time.Duration
}

// DefaultConfig returns the default session configuration
func DefaultConfig() Config {
	return Config{AutosaveInterval: 3 * time.Minute}
}

// Notification is a queued user-facing message
type Notification struct {
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// StatsRecorder receives leaderboard updates after successful saves
type StatsRecorder interface {
	Record(ctx context.Context, stats leaderboard.Stats) error
}

type saveRequest struct {
	profileID uuid.UUID
	snap      *profile.Snapshot
	elapsed   time.Duration
	auto      bool
	done      chan error
}

// Service manages the active play session
type Service struct {
	config     Config
	profiles   *profile.Service
	dispatcher *domain.EventDispatcher
	stats      StatsRecorder // optional
	logger     *slog.Logger

	mu            sync.RWMutex
	active        bool
	state         game.State
	dirty         bool
	lastSaveMark  time.Time
	createdAt     time.Time
	sessions      int
	playTime      int64
	notifications []Notification

	saveCh   chan saveRequest
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewService creates a session service and starts its save worker and
// autosave ticker. Call Shutdown to stop them.
func NewService(config Config, profiles *profile.Service, dispatcher *domain.EventDispatcher, logger *slog.Logger) *Service {
	if config.AutosaveInterval <= 0 {
		config.AutosaveInterval = DefaultConfig().AutosaveInterval
	}
	s := &Service{
		config:     config,
		profiles:   profiles,
		dispatcher: dispatcher,
		logger:     logger,
		saveCh:     make(chan saveRequest, 16),
		stopCh:     make(chan struct{}),
	}
	s.wg.Add(2)
	go s.saveWorker()
	go s.autosaveLoop()
	return s
}

// SetStatsRecorder sets the leaderboard recorder for save-time stats updates
func (s *Service) SetStatsRecorder(r StatsRecorder) {
	s.stats = r
}

// Start loads a profile and makes it the active session. A previously
// active profile is saved first.
func (s *Service) Start(ctx context.Context, profileID string) (game.State, error) {
	s.mu.RLock()
	wasActive := s.active
	previousID := s.state.ProfileID
	s.mu.RUnlock()

	if wasActive && previousID.String() != profileID {
		if err := s.save(ctx, false); err != nil {
			s.logger.Warn("failed to save previous profile on switch", "id", previousID, "error", err)
		}
	}

	snap, err := s.profiles.Load(ctx, profileID)
	if err != nil {
		return game.State{}, err
	}
	state, err := snap.ToState()
	if err != nil {
		return game.State{}, fmt.Errorf("restore state: %w", err)
	}

	s.mu.Lock()
	s.active = true
	s.state = state
	s.dirty = false
	s.lastSaveMark = time.Now()
	s.createdAt = snap.CreatedAt
	s.sessions = snap.SessionsCompleted
	s.playTime = snap.TotalPlayTime
	s.notifications = nil
	s.mu.Unlock()

	s.logger.Info("session started", "profile", profileID, "player", state.PlayerName)
	return state.Clone(), nil
}

// Logout saves the active profile and ends the session
func (s *Service) Logout(ctx context.Context) error {
	s.mu.RLock()
	active := s.active
	id := s.state.ProfileID
	s.mu.RUnlock()
	if !active {
		return domain.ErrNoActiveProfile
	}

	err := s.save(ctx, false)

	s.mu.Lock()
	s.active = false
	s.state = game.State{}
	s.dirty = false
	s.notifications = nil
	s.mu.Unlock()

	s.logger.Info("session ended", "profile", id)
	return err
}

// Dispatch applies an action to the active state and interprets the
// resulting effects.
func (s *Service) Dispatch(ctx context.Context, action game.Action) (game.State, []game.Effect, error) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return game.State{}, nil, domain.ErrNoActiveProfile
	}

	next, effects := game.Apply(s.state, action)
	s.state = next
	profileID := next.ProfileID

	var events []domain.Event
	save := false
	for _, eff := range effects {
		switch e := eff.(type) {
		case game.NotifyEffect:
			s.pushNotificationLocked(e.Message)
		case game.QuestCompletedEffect:
			events = append(events, domain.NewQuestCompletedEvent(profileID, e.Quest, e.XP))
		case game.LevelUpEffect:
			events = append(events, domain.NewLevelUpEvent(profileID, e.NewLevel))
		case game.ItemAcquiredEffect:
			events = append(events, domain.NewItemAcquiredEvent(profileID, e.Item))
		case game.ChallengeCompletedEffect:
			events = append(events, domain.NewChallengeCompletedEvent(profileID, e.Challenge, e.XP))
		case game.DirtyEffect:
			s.dirty = true
			save = true
		}
	}

	var req saveRequest
	if save {
		req = s.buildSaveLocked(true, nil)
	}
	out := s.state.Clone()
	s.mu.Unlock()

	s.dispatcher.PublishAll(events)
	if save {
		s.enqueue(req)
	}
	return out, effects, nil
}

// State returns a copy of the active play state
func (s *Service) State(ctx context.Context) (game.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.active {
		return game.State{}, domain.ErrNoActiveProfile
	}
	return s.state.Clone(), nil
}

// ActiveProfile returns the id of the active profile, if any
func (s *Service) ActiveProfile() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.active {
		return "", false
	}
	return s.state.ProfileID.String(), true
}

// Save writes the active profile to disk and waits for the result
func (s *Service) Save(ctx context.Context) error {
	return s.save(ctx, false)
}

// DrainNotifications returns queued notifications and clears the queue
func (s *Service) DrainNotifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.notifications
	s.notifications = nil
	return out
}

// Shutdown saves the active profile and stops the background goroutines
func (s *Service) Shutdown(ctx context.Context) error {
	var err error
	s.mu.RLock()
	active := s.active
	s.mu.RUnlock()
	if active {
		err = s.save(ctx, false)
	}
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
	return err
}

func (s *Service) save(ctx context.Context, auto bool) error {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return domain.ErrNoActiveProfile
	}
	done := make(chan error, 1)
	req := s.buildSaveLocked(auto, done)
	s.mu.Unlock()

	s.enqueue(req)
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// buildSaveLocked snapshots the current state for the save worker. The
// caller must hold mu.
func (s *Service) buildSaveLocked(auto bool, done chan error) saveRequest {
	now := time.Now()
	elapsed := now.Sub(s.lastSaveMark)
	if elapsed < 0 {
		elapsed = 0
	}

	snap := profile.FromState(s.state)
	snap.CreatedAt = s.createdAt
	snap.SessionsCompleted = s.sessions
	snap.TotalPlayTime = s.playTime

	s.playTime += int64(elapsed.Seconds())
	s.lastSaveMark = now
	s.dirty = false

	return saveRequest{
		profileID: s.state.ProfileID,
		snap:      snap,
		elapsed:   elapsed,
		auto:      auto,
		done:      done,
	}
}

func (s *Service) enqueue(req saveRequest) {
	if req.done != nil {
		select {
		case s.saveCh <- req:
		case <-s.stopCh:
			req.done <- errors.New("session service stopped")
		}
		return
	}
	select {
	case s.saveCh <- req:
	default:
		// queue full, the next autosave tick retries
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
		s.logger.Warn("save queue full, deferring autosave", "profile", req.profileID)
	}
}

func (s *Service) saveWorker() {
	defer s.wg.Done()
	for {
		select {
		case req := <-s.saveCh:
			s.performSave(req)
		case <-s.stopCh:
			// drain pending saves before exit
			for {
				select {
				case req := <-s.saveCh:
					s.performSave(req)
				default:
					return
				}
			}
		}
	}
}

func (s *Service) performSave(req saveRequest) {
	// a save queued before a profile switch must not clobber the new slot
	s.mu.RLock()
	stale := s.active && s.state.ProfileID != req.profileID
	s.mu.RUnlock()
	if stale {
		s.logger.Debug("dropping stale save", "profile", req.profileID)
		if req.done != nil {
			req.done <- nil
		}
		return
	}

	ctx := context.Background()
	err := s.profiles.Save(ctx, req.snap, req.elapsed)
	if err != nil {
		s.logger.Error("profile save failed", "profile", req.profileID, "error", err)
		s.dispatcher.Publish(domain.NewProfileSaveFailedEvent(req.profileID, err.Error()))
		s.pushNotification("Save failed")
	} else {
		s.dispatcher.Publish(domain.NewProfileSavedEvent(req.profileID, req.auto))
		if !req.auto {
			s.pushNotification("Game saved")
		}
		if s.stats != nil {
			stats := leaderboard.Stats{
				ProfileID:         req.snap.ID,
				PlayerName:        req.snap.PlayerName,
				Experience:        req.snap.Experience,
				Level:             req.snap.Level,
				SessionsCompleted: req.snap.SessionsCompleted,
				TotalPlayTime:     req.snap.TotalPlayTime,
			}
			if err := s.stats.Record(ctx, stats); err != nil {
				s.logger.Warn("leaderboard update failed", "profile", req.profileID, "error", err)
			}
		}
	}
	if req.done != nil {
		req.done <- err
	}
}

func (s *Service) autosaveLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.config.AutosaveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.autosave()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Service) autosave() {
	s.mu.Lock()
	if !s.active || !s.dirty {
		s.mu.Unlock()
		return
	}
	req := s.buildSaveLocked(true, nil)
	s.mu.Unlock()
	s.enqueue(req)
}

func (s *Service) pushNotification(message string) {
	s.mu.Lock()
	s.pushNotificationLocked(message)
	s.mu.Unlock()
}

func (s *Service) pushNotificationLocked(message string) {
	s.notifications = append(s.notifications, Notification{
		Message: message,
		Time:    time.Now(),
	})
	if len(s.notifications) > maxNotifications {
		s.notifications = s.notifications[len(s.notifications)-maxNotifications:]
	}
}
