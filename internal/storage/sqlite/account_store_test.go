package sqlite

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/eliseekajingu/codequest/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func testUser() *domain.User {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.User{
		ID:           uuid.New(),
		Name:         "Ada Lovelace",
		Email:        "ada@example.com",
		Username:     "ada",
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestCreateAndGetUser(t *testing.T) {
	store := NewAccountStore(openTestDB(t))
	u := testUser()

	if err := store.CreateUser(u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	byID, err := store.GetUser(u.ID)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if byID.Email != u.Email || byID.Username != u.Username {
		t.Errorf("GetUser() = %+v, want %+v", byID, u)
	}

	byEmail, err := store.GetUserByEmail(u.Email)
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if byEmail.ID != u.ID {
		t.Errorf("GetUserByEmail() id = %s, want %s", byEmail.ID, u.ID)
	}

	byUsername, err := store.GetUserByUsername(u.Username)
	if err != nil {
		t.Fatalf("GetUserByUsername() error = %v", err)
	}
	if byUsername.ID != u.ID {
		t.Errorf("GetUserByUsername() id = %s, want %s", byUsername.ID, u.ID)
	}
}

func TestCreateUserDuplicate(t *testing.T) {
	store := NewAccountStore(openTestDB(t))
	u := testUser()
	if err := store.CreateUser(u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	dup := testUser()
	dup.ID = uuid.New()
	dup.Username = "ada2"
	if err := store.CreateUser(dup); !errors.Is(err, domain.ErrUserAlreadyExists) {
		t.Errorf("CreateUser() duplicate email error = %v, want ErrUserAlreadyExists", err)
	}

	dup2 := testUser()
	dup2.ID = uuid.New()
	dup2.Email = "other@example.com"
	if err := store.CreateUser(dup2); !errors.Is(err, domain.ErrUserAlreadyExists) {
		t.Errorf("CreateUser() duplicate username error = %v, want ErrUserAlreadyExists", err)
	}
}

func TestGetUserNotFound(t *testing.T) {
	store := NewAccountStore(openTestDB(t))

	if _, err := store.GetUser(uuid.New()); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("GetUser() error = %v, want ErrUserNotFound", err)
	}
	if _, err := store.GetUserByEmail("nobody@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("GetUserByEmail() error = %v, want ErrUserNotFound", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	store := NewAccountStore(openTestDB(t))
	u := testUser()
	if err := store.CreateUser(u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	sess := &domain.AuthSession{
		Token:     uuid.NewString(),
		UserID:    u.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
	}
	if err := store.CreateSession(sess); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	got, err := store.GetSession(sess.Token)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got.UserID != u.ID {
		t.Errorf("GetSession() user id = %s, want %s", got.UserID, u.ID)
	}

	if err := store.DeleteSession(sess.Token); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if _, err := store.GetSession(sess.Token); !errors.Is(err, domain.ErrAuthSessionNotFound) {
		t.Errorf("GetSession() after delete error = %v, want ErrAuthSessionNotFound", err)
	}
}

func TestDeleteExpiredSessions(t *testing.T) {
	store := NewAccountStore(openTestDB(t))
	u := testUser()
	if err := store.CreateUser(u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	expired := &domain.AuthSession{
		Token:     "expired-token",
		UserID:    u.ID,
		CreatedAt: now.Add(-48 * time.Hour),
		ExpiresAt: now.Add(-24 * time.Hour),
	}
	live := &domain.AuthSession{
		Token:     "live-token",
		UserID:    u.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
	}
	for _, s := range []*domain.AuthSession{expired, live} {
		if err := store.CreateSession(s); err != nil {
			t.Fatalf("CreateSession() error = %v", err)
		}
	}

	removed, err := store.DeleteExpiredSessions(now)
	if err != nil {
		t.Fatalf("DeleteExpiredSessions() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("DeleteExpiredSessions() removed = %d, want 1", removed)
	}
	if _, err := store.GetSession(live.Token); err != nil {
		t.Errorf("GetSession() live token error = %v", err)
	}
}

func TestDeleteUserCascadesSessions(t *testing.T) {
	db := openTestDB(t)
	store := NewAccountStore(db)
	u := testUser()
	if err := store.CreateUser(u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	sess := &domain.AuthSession{
		Token:     "cascade-token",
		UserID:    u.ID,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := store.CreateSession(sess); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	if _, err := db.Exec(`DELETE FROM users WHERE id = ?`, u.ID.String()); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if _, err := store.GetSession(sess.Token); !errors.Is(err, domain.ErrAuthSessionNotFound) {
		t.Errorf("GetSession() after user delete error = %v, want ErrAuthSessionNotFound", err)
	}
}
