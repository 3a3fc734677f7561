package domain

import "errors"

// -----------------------------------------------------------------------------
// Domain Errors
// These errors represent domain-level failures and are used by stores and
// services to communicate domain-specific error conditions.
// -----------------------------------------------------------------------------

// Profile errors
var (
	ErrProfileNotFound      = errors.New("profile not found")
	ErrDuplicateProfileName = errors.New("profile name already in use")
	ErrNoActiveProfile      = errors.New("no active profile")
)

// Account errors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrInvalidPassword   = errors.New("invalid password")
	ErrPasswordTooShort  = errors.New("password must be at least 6 characters")
	ErrTermsNotAgreed    = errors.New("terms of service must be accepted")
)

// Auth session errors
var (
	ErrAuthSessionNotFound = errors.New("auth session not found")
	ErrAuthSessionExpired  = errors.New("auth session expired")
)

// Catalog errors
var (
	ErrChallengeNotFound  = errors.New("challenge not found")
	ErrInvalidChallenge   = errors.New("invalid challenge")
	ErrDuplicateChallenge = errors.New("duplicate challenge id")
)

// Runner errors
var (
	ErrRunTimeout          = errors.New("execution timed out")
	ErrRunNotFound         = errors.New("run not found")
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// General errors
var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInternalError = errors.New("internal error")
)
