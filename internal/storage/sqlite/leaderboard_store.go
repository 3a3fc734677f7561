package sqlite

import (
	"fmt"
	"time"

	"github.com/eliseekajingu/codequest/internal/leaderboard"
)

// LeaderboardStore persists per-profile stats and completed challenges.
type LeaderboardStore struct {
	db *DB
}

// NewLeaderboardStore creates a SQLite-backed leaderboard store.
func NewLeaderboardStore(db *DB) *LeaderboardStore {
	return &LeaderboardStore{db: db}
}

// Upsert records the current stats for a profile.
func (s *LeaderboardStore) Upsert(stats leaderboard.Stats) error {
	_, err := s.db.Exec(`
		INSERT INTO leaderboard_stats (profile_id, player_name, experience, level,
			sessions_completed, total_play_time, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(profile_id) DO UPDATE SET
			player_name=excluded.player_name,
			experience=excluded.experience,
			level=excluded.level,
			sessions_completed=excluded.sessions_completed,
			total_play_time=excluded.total_play_time,
			updated_at=excluded.updated_at`,
		stats.ProfileID, stats.PlayerName, stats.Experience, stats.Level,
		stats.SessionsCompleted, stats.TotalPlayTime, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("upsert leaderboard stats: %w", err)
	}
	return nil
}

// Top returns the best n profiles ordered by the given column.
func (s *LeaderboardStore) Top(order leaderboard.Order, n int) ([]leaderboard.Stats, error) {
	column, ok := orderColumns[order]
	if !ok {
		return nil, fmt.Errorf("unknown leaderboard order %q", order)
	}

	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT profile_id, player_name, experience, level, sessions_completed, total_play_time
		FROM leaderboard_stats
		ORDER BY %s DESC, player_name ASC
		LIMIT ?`, column), n)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []leaderboard.Stats
	for rows.Next() {
		var st leaderboard.Stats
		if err := rows.Scan(&st.ProfileID, &st.PlayerName, &st.Experience,
			&st.Level, &st.SessionsCompleted, &st.TotalPlayTime); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Remove drops a profile's stats, used when a save slot is deleted.
func (s *LeaderboardStore) Remove(profileID string) error {
	_, err := s.db.Exec(`DELETE FROM leaderboard_stats WHERE profile_id = ?`, profileID)
	if err != nil {
		return fmt.Errorf("delete leaderboard stats: %w", err)
	}
	return nil
}

// RecordChallenge marks a challenge completed for a profile. Repeats are
// no-ops.
func (s *LeaderboardStore) RecordChallenge(profileID, challengeID string) error {
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO completed_challenges (profile_id, challenge_id, completed_at)
		VALUES (?, ?, ?)`,
		profileID, challengeID, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("record challenge: %w", err)
	}
	return nil
}

// CompletedChallenges lists challenge ids completed by a profile.
func (s *LeaderboardStore) CompletedChallenges(profileID string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT challenge_id FROM completed_challenges
		WHERE profile_id = ? ORDER BY completed_at`, profileID)
	if err != nil {
		return nil, fmt.Errorf("query completed challenges: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan challenge id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var orderColumns = map[leaderboard.Order]string{
	leaderboard.OrderExperience:        "experience",
	leaderboard.OrderLevel:             "level",
	leaderboard.OrderSessionsCompleted: "sessions_completed",
	leaderboard.OrderTotalPlayTime:     "total_play_time",
}
