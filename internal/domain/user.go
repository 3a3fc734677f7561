package domain

import (
	"net/mail"
	"time"

	"github.com/google/uuid"
)

// User is a registered account holder
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AuthSession is an opaque bearer token with expiry
type AuthSession struct {
	Token     string    `json:"token"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry
func (s *AuthSession) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// ValidEmail reports whether addr parses as an email address
func ValidEmail(addr string) bool {
	_, err := mail.ParseAddress(addr)
	return err == nil
}
