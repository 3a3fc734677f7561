package catalog_test

import (
	"errors"
	"testing"

	"github.com/eliseekajingu/codequest/internal/catalog"
	"github.com/eliseekajingu/codequest/internal/domain"
)

func TestBuiltInPacks(t *testing.T) {
	reg, err := catalog.NewDefaultRegistry("")
	if err != nil {
		t.Fatalf("NewDefaultRegistry: %v", err)
	}
	if reg.Len() == 0 {
		t.Fatal("no built-in challenges loaded")
	}

	c, err := reg.Get("js-variables-1")
	if err != nil {
		t.Fatalf("Get(js-variables-1): %v", err)
	}
	if c.Language != domain.LangJavaScript {
		t.Errorf("language = %q, want javascript", c.Language)
	}
	if len(c.Tests) != 3 {
		t.Errorf("tests = %d, want 3", len(c.Tests))
	}
	if c.StarterCode == "" || c.Solution == "" {
		t.Error("starter or solution missing")
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	reg := catalog.NewRegistry()
	_, err := reg.Get("nope")
	if !errors.Is(err, domain.ErrChallengeNotFound) {
		t.Errorf("err = %v, want ErrChallengeNotFound", err)
	}
}

func TestRegistryDuplicateRejected(t *testing.T) {
	reg := catalog.NewRegistry()
	c := domain.Challenge{
		ID:         "dup",
		Title:      "Dup",
		Difficulty: domain.DifficultyBeginner,
		Language:   domain.LangJavaScript,
	}
	if err := reg.Add(c); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	if err := reg.Add(c); !errors.Is(err, domain.ErrDuplicateChallenge) {
		t.Errorf("second Add err = %v, want ErrDuplicateChallenge", err)
	}
}

func TestRegistryListFilters(t *testing.T) {
	reg, err := catalog.NewDefaultRegistry("")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		filter catalog.Filter
		check  func(*domain.Challenge) bool
	}{
		{
			"by language",
			catalog.Filter{Language: domain.LangPython},
			func(c *domain.Challenge) bool { return c.Language == domain.LangPython },
		},
		{
			"by difficulty",
			catalog.Filter{Difficulty: domain.DifficultyBeginner},
			func(c *domain.Challenge) bool { return c.Difficulty == domain.DifficultyBeginner },
		},
		{
			"by category",
			catalog.Filter{Category: "loops"},
			func(c *domain.Challenge) bool { return c.Category == "loops" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reg.List(tt.filter)
			if len(got) == 0 {
				t.Fatal("filter matched nothing")
			}
			for _, c := range got {
				if !tt.check(c) {
					t.Errorf("challenge %s escaped filter", c.ID)
				}
			}
		})
	}

	all := reg.List(catalog.Filter{})
	if len(all) != reg.Len() {
		t.Errorf("unfiltered list = %d, want %d", len(all), reg.Len())
	}
}

func TestRegistryListStableOrder(t *testing.T) {
	reg, err := catalog.NewDefaultRegistry("")
	if err != nil {
		t.Fatal(err)
	}
	first := reg.List(catalog.Filter{})
	second := reg.List(catalog.Filter{})
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("listing order unstable at %d: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
}
