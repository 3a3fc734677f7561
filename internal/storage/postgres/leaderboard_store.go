// Package postgres provides a shared leaderboard store for multi-machine
// deployments. The embedded SQLite store remains the default.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eliseekajingu/codequest/internal/leaderboard"
)

// Config holds PostgreSQL connection configuration
type Config struct {
	DSN          string
	MaxOpenConns int32
	MinIdleConns int32
	MaxLifetime  time.Duration
}

// LeaderboardStore implements leaderboard.Store on PostgreSQL
type LeaderboardStore struct {
	pool *pgxpool.Pool
}

// NewLeaderboardStore connects to PostgreSQL and prepares the schema
func NewLeaderboardStore(ctx context.Context, cfg Config) (*LeaderboardStore, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 10
	}
	if cfg.MinIdleConns > 0 {
		poolConfig.MinConns = cfg.MinIdleConns
	}
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &LeaderboardStore{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

func (s *LeaderboardStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS leaderboard_stats (
			profile_id         TEXT PRIMARY KEY,
			player_name        TEXT NOT NULL,
			experience         INTEGER NOT NULL DEFAULT 0,
			level              INTEGER NOT NULL DEFAULT 1,
			sessions_completed INTEGER NOT NULL DEFAULT 0,
			total_play_time    BIGINT NOT NULL DEFAULT 0,
			updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_leaderboard_experience
			ON leaderboard_stats (experience DESC)
	`)
	if err != nil {
		return fmt.Errorf("prepare leaderboard schema: %w", err)
	}
	return nil
}

// Upsert inserts or updates a profile's stats
func (s *LeaderboardStore) Upsert(stats leaderboard.Stats) error {
	ctx := context.Background()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO leaderboard_stats (profile_id, player_name, experience, level, sessions_completed, total_play_time, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (profile_id) DO UPDATE
		SET player_name = EXCLUDED.player_name,
		    experience = EXCLUDED.experience,
		    level = EXCLUDED.level,
		    sessions_completed = EXCLUDED.sessions_completed,
		    total_play_time = EXCLUDED.total_play_time,
		    updated_at = NOW()`,
		stats.ProfileID, stats.PlayerName, stats.Experience, stats.Level,
		stats.SessionsCompleted, stats.TotalPlayTime,
	)
	if err != nil {
		return fmt.Errorf("upsert stats: %w", err)
	}
	return nil
}

var orderColumns = map[leaderboard.Order]string{
	leaderboard.OrderExperience:        "experience",
	leaderboard.OrderLevel:             "level",
	leaderboard.OrderSessionsCompleted: "sessions_completed",
	leaderboard.OrderTotalPlayTime:     "total_play_time",
}

// Top returns the best n profiles by the given order
func (s *LeaderboardStore) Top(order leaderboard.Order, n int) ([]leaderboard.Stats, error) {
	column, ok := orderColumns[order]
	if !ok {
		column = "experience"
	}

	ctx := context.Background()
	query := fmt.Sprintf(`
		SELECT profile_id, player_name, experience, level, sessions_completed, total_play_time
		FROM leaderboard_stats
		ORDER BY %s DESC, player_name ASC
		LIMIT $1`, column)

	rows, err := s.pool.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("query top: %w", err)
	}
	defer rows.Close()

	var out []leaderboard.Stats
	for rows.Next() {
		var st leaderboard.Stats
		if err := rows.Scan(&st.ProfileID, &st.PlayerName, &st.Experience,
			&st.Level, &st.SessionsCompleted, &st.TotalPlayTime); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Remove drops a profile's stats
func (s *LeaderboardStore) Remove(profileID string) error {
	_, err := s.pool.Exec(context.Background(),
		`DELETE FROM leaderboard_stats WHERE profile_id = $1`, profileID)
	if err != nil {
		return fmt.Errorf("remove stats: %w", err)
	}
	return nil
}

// Ping checks database connectivity
func (s *LeaderboardStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool
func (s *LeaderboardStore) Close() {
	s.pool.Close()
}
