// Package leaderboard ranks players by accumulated progress.
package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
)

// Order selects the ranking column
type Order string

const (
	OrderExperience        Order = "experience"
	OrderLevel             Order = "level"
	OrderSessionsCompleted Order = "sessions_completed"
	OrderTotalPlayTime     Order = "total_play_time"
)

// IsValid reports whether the order is a known ranking column
func (o Order) IsValid() bool {
	switch o {
	case OrderExperience, OrderLevel, OrderSessionsCompleted, OrderTotalPlayTime:
		return true
	}
	return false
}

// Stats is one profile's ranked totals
type Stats struct {
	ProfileID         string `json:"profile_id"`
	PlayerName        string `json:"player_name"`
	Experience        int    `json:"experience"`
	Level             int    `json:"level"`
	SessionsCompleted int    `json:"sessions_completed"`
	TotalPlayTime     int64  `json:"total_play_time"`
}

// Entry is a ranked row as served to clients
type Entry struct {
	Rank int `json:"rank"`
	Stats
}

// Store persists leaderboard stats
type Store interface {
	Upsert(stats Stats) error
	Top(order Order, n int) ([]Stats, error)
	Remove(profileID string) error
}

// Cache holds recently computed listings. Implementations may miss at any
// time.
type Cache interface {
	Get(ctx context.Context, order Order, n int) ([]Entry, bool)
	Set(ctx context.Context, order Order, n int, entries []Entry)
	Invalidate(ctx context.Context)
}

// Service builds ranked listings over a store, with an optional cache
type Service struct {
	store  Store
	cache  Cache
	logger *slog.Logger
}

// NewService creates a leaderboard service. cache may be nil.
func NewService(store Store, cache Cache, logger *slog.Logger) *Service {
	return &Service{store: store, cache: cache, logger: logger}
}

// Record upserts a profile's stats and invalidates cached listings
func (s *Service) Record(ctx context.Context, stats Stats) error {
	if err := s.store.Upsert(stats); err != nil {
		return fmt.Errorf("record stats: %w", err)
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	return nil
}

// Remove drops a profile from the rankings
func (s *Service) Remove(ctx context.Context, profileID string) error {
	if err := s.store.Remove(profileID); err != nil {
		return fmt.Errorf("remove stats: %w", err)
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	return nil
}

// Top returns the best n players by the given order, rank starting at 1
func (s *Service) Top(ctx context.Context, order Order, n int) ([]Entry, error) {
	if !order.IsValid() {
		order = OrderExperience
	}
	if n <= 0 || n > 100 {
		n = 10
	}

	if s.cache != nil {
		if entries, ok := s.cache.Get(ctx, order, n); ok {
			return entries, nil
		}
	}

	stats, err := s.store.Top(order, n)
	if err != nil {
		return nil, fmt.Errorf("top %s: %w", order, err)
	}

	entries := make([]Entry, len(stats))
	for i, st := range stats {
		entries[i] = Entry{Rank: i + 1, Stats: st}
	}

	if s.cache != nil {
		s.cache.Set(ctx, order, n, entries)
	}
	return entries, nil
}
