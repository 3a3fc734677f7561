// Package account implements registration and token-based authentication.
package account

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/eliseekajingu/codequest/internal/domain"
)

const minPasswordLength = 6

// Store defines the persistence needed by the account service
type Store interface {
	CreateUser(u *domain.User) error
	GetUserByEmail(email string) (*domain.User, error)
	GetUserByUsername(username string) (*domain.User, error)
	GetUser(id uuid.UUID) (*domain.User, error)
	CreateSession(sess *domain.AuthSession) error
	GetSession(token string) (*domain.AuthSession, error)
	DeleteSession(token string) error
	DeleteExpiredSessions(now time.Time) (int64, error)
}

// Config holds account service tunables
type Config struct {
	SessionTTL time.Duration
	BcryptCost int
}

// DefaultConfig returns the default account configuration
func DefaultConfig() Config {
	return Config{
		SessionTTL: 30 * 24 * time.Hour,
		BcryptCost: bcrypt.DefaultCost,
	}
}

// Service handles account operations
type Service struct {
	store  Store
	config Config
	logger *slog.Logger
}

// NewService creates a new account service
func NewService(store Store, config Config, logger *slog.Logger) *Service {
	if config.SessionTTL == 0 {
		config.SessionTTL = DefaultConfig().SessionTTL
	}
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{store: store, config: config, logger: logger}
}

// RegisterRequest contains registration data
type RegisterRequest struct {
	Name         string
	Email        string
	Username     string
	Password     string
	AgreeToTerms bool
}

// Register creates a new user account
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)

	if req.Name == "" || req.Username == "" {
		return nil, fmt.Errorf("name and username required: %w", domain.ErrInvalidInput)
	}
	if !domain.ValidEmail(req.Email) {
		return nil, domain.ErrInvalidEmail
	}
	if len(req.Password) < minPasswordLength {
		return nil, domain.ErrPasswordTooShort
	}
	if !req.AgreeToTerms {
		return nil, domain.ErrTermsNotAgreed
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "id", user.ID, "username", user.Username)
	return user, nil
}

// SignInResult contains a successful sign-in
type SignInResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// SignIn authenticates by email or username and issues a session token
func (s *Service) SignIn(ctx context.Context, identifier, password string) (*SignInResult, error) {
	identifier = strings.TrimSpace(identifier)

	var (
		user *domain.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.store.GetUserByEmail(identifier)
	} else {
		user, err = s.store.GetUserByUsername(identifier)
	}
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidPassword
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidPassword
	}

	token, err := generateToken(32)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	now := time.Now().UTC()
	sess := &domain.AuthSession{
		Token:     token,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.config.SessionTTL),
	}
	if err := s.store.CreateSession(sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("user signed in", "id", user.ID)
	return &SignInResult{User: user, Token: token, ExpiresAt: sess.ExpiresAt}, nil
}

// SignOut invalidates a session token
func (s *Service) SignOut(ctx context.Context, token string) error {
	return s.store.DeleteSession(token)
}

// Authenticate resolves a session token to its user
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	sess, err := s.store.GetSession(token)
	if err != nil {
		return nil, err
	}
	if sess.Expired() {
		_ = s.store.DeleteSession(token)
		return nil, domain.ErrAuthSessionExpired
	}
	return s.store.GetUser(sess.UserID)
}

// CleanupExpired removes expired sessions
func (s *Service) CleanupExpired(ctx context.Context) error {
	removed, err := s.store.DeleteExpiredSessions(time.Now().UTC())
	if err != nil {
		return fmt.Errorf("cleanup sessions: %w", err)
	}
	if removed > 0 {
		s.logger.Info("expired sessions removed", "count", removed)
	}
	return nil
}

// generateToken creates a cryptographically secure random token
func generateToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}
