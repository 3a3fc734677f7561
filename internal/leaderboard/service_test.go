package leaderboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"
)

type memStore struct {
	stats map[string]Stats
	fail  bool
}

func newMemStore() *memStore {
	return &memStore{stats: make(map[string]Stats)}
}

func (m *memStore) Upsert(stats Stats) error {
	if m.fail {
		return errors.New("store unavailable")
	}
	m.stats[stats.ProfileID] = stats
	return nil
}

func (m *memStore) Top(order Order, n int) ([]Stats, error) {
	if m.fail {
		return nil, errors.New("store unavailable")
	}
	out := make([]Stats, 0, len(m.stats))
	for _, st := range m.stats {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		var av, bv int64
		switch order {
		case OrderLevel:
			av, bv = int64(a.Level), int64(b.Level)
		case OrderSessionsCompleted:
			av, bv = int64(a.SessionsCompleted), int64(b.SessionsCompleted)
		case OrderTotalPlayTime:
			av, bv = a.TotalPlayTime, b.TotalPlayTime
		default:
			av, bv = int64(a.Experience), int64(b.Experience)
		}
		if av != bv {
			return av > bv
		}
		return a.PlayerName < b.PlayerName
	})
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (m *memStore) Remove(profileID string) error {
	delete(m.stats, profileID)
	return nil
}

type memCache struct {
	entries     map[string][]Entry
	gets, hits  int
	invalidated int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]Entry)}
}

func (m *memCache) Get(_ context.Context, order Order, n int) ([]Entry, bool) {
	m.gets++
	e, ok := m.entries[cacheKey(order, n)]
	if ok {
		m.hits++
	}
	return e, ok
}

func (m *memCache) Set(_ context.Context, order Order, n int, entries []Entry) {
	m.entries[cacheKey(order, n)] = entries
}

func (m *memCache) Invalidate(_ context.Context) {
	m.invalidated++
	m.entries = make(map[string][]Entry)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTopRanksByOrder(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, testLogger())
	ctx := context.Background()

	players := []Stats{
		{ProfileID: "p1", PlayerName: "ada", Experience: 900, Level: 2, SessionsCompleted: 3, TotalPlayTime: 600},
		{ProfileID: "p2", PlayerName: "bram", Experience: 400, Level: 1, SessionsCompleted: 9, TotalPlayTime: 120},
		{ProfileID: "p3", PlayerName: "cleo", Experience: 1500, Level: 4, SessionsCompleted: 1, TotalPlayTime: 3000},
	}
	for _, p := range players {
		if err := svc.Record(ctx, p); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	tests := []struct {
		order Order
		first string
	}{
		{OrderExperience, "cleo"},
		{OrderLevel, "cleo"},
		{OrderSessionsCompleted, "bram"},
		{OrderTotalPlayTime, "cleo"},
	}
	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			entries, err := svc.Top(ctx, tt.order, 10)
			if err != nil {
				t.Fatalf("Top() error = %v", err)
			}
			if len(entries) != 3 {
				t.Fatalf("len(entries) = %d, want 3", len(entries))
			}
			if entries[0].PlayerName != tt.first {
				t.Errorf("top player = %q, want %q", entries[0].PlayerName, tt.first)
			}
			for i, e := range entries {
				if e.Rank != i+1 {
					t.Errorf("entries[%d].Rank = %d, want %d", i, e.Rank, i+1)
				}
			}
		})
	}
}

func TestTopInvalidOrderFallsBack(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, testLogger())
	ctx := context.Background()

	_ = svc.Record(ctx, Stats{ProfileID: "p1", PlayerName: "ada", Experience: 100})
	_ = svc.Record(ctx, Stats{ProfileID: "p2", PlayerName: "bram", Experience: 300})

	entries, err := svc.Top(ctx, Order("bogus"), 0)
	if err != nil {
		t.Fatalf("Top() error = %v", err)
	}
	if entries[0].PlayerName != "bram" {
		t.Errorf("top player = %q, want bram", entries[0].PlayerName)
	}
}

func TestTopUsesCache(t *testing.T) {
	store := newMemStore()
	cache := newMemCache()
	svc := NewService(store, cache, testLogger())
	ctx := context.Background()

	if err := svc.Record(ctx, Stats{ProfileID: "p1", PlayerName: "ada", Experience: 100}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if _, err := svc.Top(ctx, OrderExperience, 10); err != nil {
		t.Fatalf("Top() error = %v", err)
	}
	if _, err := svc.Top(ctx, OrderExperience, 10); err != nil {
		t.Fatalf("Top() error = %v", err)
	}
	if cache.hits != 1 {
		t.Errorf("cache hits = %d, want 1", cache.hits)
	}

	// a new record invalidates cached listings
	if err := svc.Record(ctx, Stats{ProfileID: "p2", PlayerName: "bram", Experience: 500}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	entries, err := svc.Top(ctx, OrderExperience, 10)
	if err != nil {
		t.Fatalf("Top() error = %v", err)
	}
	if len(entries) != 2 || entries[0].PlayerName != "bram" {
		t.Errorf("entries after invalidation = %+v", entries)
	}
}

func TestRecordStoreError(t *testing.T) {
	store := newMemStore()
	store.fail = true
	svc := NewService(store, nil, testLogger())

	if err := svc.Record(context.Background(), Stats{ProfileID: "p1"}); err == nil {
		t.Fatal("Record() error = nil, want store error")
	}
}

func TestRemoveInvalidatesCache(t *testing.T) {
	store := newMemStore()
	cache := newMemCache()
	svc := NewService(store, cache, testLogger())
	ctx := context.Background()

	_ = svc.Record(ctx, Stats{ProfileID: "p1", PlayerName: "ada", Experience: 100})
	before := cache.invalidated
	if err := svc.Remove(ctx, "p1"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if cache.invalidated != before+1 {
		t.Error("Remove() did not invalidate cache")
	}

	entries, err := svc.Top(ctx, OrderExperience, 10)
	if err != nil {
		t.Fatalf("Top() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("len(entries) = %d, want 0", len(entries))
	}
}
