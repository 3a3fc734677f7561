package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eliseekajingu/codequest/internal/domain"
)

// AccountStore persists users and auth sessions.
type AccountStore struct {
	db *DB
}

// NewAccountStore creates a SQLite-backed account store.
func NewAccountStore(db *DB) *AccountStore {
	return &AccountStore{db: db}
}

// CreateUser inserts a new user.
func (s *AccountStore) CreateUser(u *domain.User) error {
	_, err := s.db.Exec(`
		INSERT INTO users (id, name, email, username, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID.String(), u.Name, u.Email, u.Username, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.ErrUserAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUserByEmail retrieves a user by email.
func (s *AccountStore) GetUserByEmail(email string) (*domain.User, error) {
	row := s.db.QueryRow(`
		SELECT id, name, email, username, password_hash, created_at, updated_at
		FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// GetUserByUsername retrieves a user by username.
func (s *AccountStore) GetUserByUsername(username string) (*domain.User, error) {
	row := s.db.QueryRow(`
		SELECT id, name, email, username, password_hash, created_at, updated_at
		FROM users WHERE username = ?`, username)
	return scanUser(row)
}

// GetUser retrieves a user by id.
func (s *AccountStore) GetUser(id uuid.UUID) (*domain.User, error) {
	row := s.db.QueryRow(`
		SELECT id, name, email, username, password_hash, created_at, updated_at
		FROM users WHERE id = ?`, id.String())
	return scanUser(row)
}

// CreateSession inserts an auth session.
func (s *AccountStore) CreateSession(sess *domain.AuthSession) error {
	_, err := s.db.Exec(`
		INSERT INTO auth_sessions (token, user_id, created_at, expires_at)
		VALUES (?, ?, ?, ?)`,
		sess.Token, sess.UserID.String(), sess.CreatedAt, sess.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession retrieves an auth session by token.
func (s *AccountStore) GetSession(token string) (*domain.AuthSession, error) {
	row := s.db.QueryRow(`
		SELECT token, user_id, created_at, expires_at
		FROM auth_sessions WHERE token = ?`, token)

	var sess domain.AuthSession
	var userID string
	err := row.Scan(&sess.Token, &userID, &sess.CreatedAt, &sess.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAuthSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	sess.UserID, err = uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("parse session user id: %w", err)
	}
	return &sess, nil
}

// DeleteSession removes an auth session.
func (s *AccountStore) DeleteSession(token string) error {
	_, err := s.db.Exec(`DELETE FROM auth_sessions WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions past their expiry.
func (s *AccountStore) DeleteExpiredSessions(now time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM auth_sessions WHERE expires_at < ?`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	var id string
	err := row.Scan(&id, &u.Name, &u.Email, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}

	u.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	return &u, nil
}
