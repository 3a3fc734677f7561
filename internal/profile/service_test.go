package profile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/eliseekajingu/codequest/internal/domain"
	"github.com/eliseekajingu/codequest/internal/game"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCreateAndList(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, "Ada")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if first.PlayerName != "Ada" || first.Level != 1 {
		t.Errorf("Create() = %+v, want fresh level 1 profile", first)
	}
	if first.CurrentScene != string(domain.DefaultScene) {
		t.Errorf("CurrentScene = %q, want %q", first.CurrentScene, domain.DefaultScene)
	}

	// force distinct save times so ordering is deterministic
	time.Sleep(10 * time.Millisecond)
	if _, err := svc.Create(ctx, "Bram"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	summaries, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("len(summaries) = %d, want 2", len(summaries))
	}
	if summaries[0].PlayerName != "Bram" {
		t.Errorf("summaries[0] = %q, want most recently saved first", summaries[0].PlayerName)
	}
}

func TestListSummaryLevelFromExperience(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	snap, err := svc.Create(ctx, "Grace")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// The stored session level lags behind accumulated experience;
	// summaries derive their level from experience alone
	snap.Experience = 1200
	snap.Level = 1
	if err := svc.Save(ctx, snap, 0); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	summaries, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("len(summaries) = %d, want 1", len(summaries))
	}
	if want := domain.LevelForExperience(1200); summaries[0].Level != want {
		t.Errorf("summary level = %d, want %d", summaries[0].Level, want)
	}
	if summaries[0].Level != 3 {
		t.Errorf("summary level = %d, want 3 for 1200 XP", summaries[0].Level)
	}
}

func TestCreateDuplicateName(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "Ada"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Create(ctx, "ada"); !errors.Is(err, domain.ErrDuplicateProfileName) {
		t.Errorf("Create() duplicate error = %v, want ErrDuplicateProfileName", err)
	}
}

func TestCreateEmptyName(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.Create(context.Background(), "   "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Create() error = %v, want ErrInvalidInput", err)
	}
}

func TestLoadCountsSession(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "Ada")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	loaded, err := svc.Load(ctx, created.ID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.SessionsCompleted != 1 {
		t.Errorf("SessionsCompleted = %d, want 1", loaded.SessionsCompleted)
	}

	again, err := svc.Load(ctx, created.ID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if again.SessionsCompleted != 2 {
		t.Errorf("SessionsCompleted = %d, want 2", again.SessionsCompleted)
	}
}

func TestLoadMissing(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.Load(context.Background(), "00000000-0000-0000-0000-000000000000"); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Errorf("Load() error = %v, want ErrProfileNotFound", err)
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	svc := NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil)))

	// a minimal save file, as an older version would have written it
	sparse := &Snapshot{
		ID:           "4f8b9e6a-0000-4000-8000-000000000001",
		PlayerName:   "Old Save",
		CurrentScene: "nowhere",
	}
	if err := store.Save(sparse); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := svc.Load(context.Background(), sparse.ID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Level != 1 {
		t.Errorf("Level = %d, want 1", loaded.Level)
	}
	if len(loaded.Skills) != len(domain.AllSkills) {
		t.Errorf("len(Skills) = %d, want %d", len(loaded.Skills), len(domain.AllSkills))
	}
	if loaded.CurrentScene != string(domain.DefaultScene) {
		t.Errorf("CurrentScene = %q, want %q", loaded.CurrentScene, domain.DefaultScene)
	}
	if loaded.Inventory == nil || loaded.CompletedQuests == nil {
		t.Error("Load() left nil slices in snapshot")
	}
}

func TestSaveAccumulatesPlayTime(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	snap, err := svc.Create(ctx, "Ada")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Save(ctx, snap, 90*time.Second); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := svc.Save(ctx, snap, 30*time.Second); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := svc.store.Get(snap.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if loaded.TotalPlayTime != 120 {
		t.Errorf("TotalPlayTime = %d, want 120", loaded.TotalPlayTime)
	}
	if loaded.LastSaved.IsZero() {
		t.Error("LastSaved not set")
	}
}

func TestDeleteIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	snap, err := svc.Create(ctx, "Ada")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Delete(ctx, snap.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := svc.Delete(ctx, snap.ID); err != nil {
		t.Errorf("Delete() second call error = %v, want nil", err)
	}
	if _, err := svc.Load(ctx, snap.ID); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Errorf("Load() after delete error = %v, want ErrProfileNotFound", err)
	}
}

func TestStateRoundTrip(t *testing.T) {
	snap, err := newTestService(t).Create(context.Background(), "Ada")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	st, err := snap.ToState()
	if err != nil {
		t.Fatalf("ToState() error = %v", err)
	}

	// play a little
	st, _ = game.Apply(st, game.IncrementSkill{Skill: domain.SkillHTML, Delta: 1})
	st, _ = game.Apply(st, game.GoToScene{Scene: "htmlComplete"})

	back := FromState(st)
	back.CreatedAt = snap.CreatedAt

	st2, err := back.ToState()
	if err != nil {
		t.Fatalf("ToState() after round trip error = %v", err)
	}
	if st2.Experience != st.Experience {
		t.Errorf("Experience = %d, want %d", st2.Experience, st.Experience)
	}
	if st2.Skills[domain.SkillHTML] != 1 {
		t.Errorf("Skills[html] = %d, want 1", st2.Skills[domain.SkillHTML])
	}
	if !st2.QuestCompleted(domain.QuestHTML) {
		t.Error("html quest lost in round trip")
	}
	if len(st2.Inventory) != len(st.Inventory) {
		t.Errorf("len(Inventory) = %d, want %d", len(st2.Inventory), len(st.Inventory))
	}
}

func TestToStateDropsUnknownEntries(t *testing.T) {
	snap := &Snapshot{
		ID:         "4f8b9e6a-0000-4000-8000-000000000002",
		PlayerName: "Ada",
		Skills: map[string]int{
			"html":       2,
			"telepathy":  9,
			"javascript": 1,
		},
		CompletedQuests: []string{"html", "ghostQuest"},
	}

	st, err := snap.ToState()
	if err != nil {
		t.Fatalf("ToState() error = %v", err)
	}
	if _, ok := st.Skills[domain.SkillID("telepathy")]; ok {
		t.Error("unknown skill survived conversion")
	}
	if st.Skills[domain.SkillHTML] != 2 {
		t.Errorf("Skills[html] = %d, want 2", st.Skills[domain.SkillHTML])
	}
	if len(st.CompletedQuests) != 1 || st.CompletedQuests[0] != domain.QuestHTML {
		t.Errorf("CompletedQuests = %v, want [html]", st.CompletedQuests)
	}
}
