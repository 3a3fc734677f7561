package domain

import "testing"

func TestLevelForSkillPoints(t *testing.T) {
	tests := []struct {
		total int
		want  int
	}{
		{0, 1},
		{4, 1},
		{5, 2},
		{9, 2},
		{10, 3},
		{65, 14},
		{-3, 1},
	}

	for _, tt := range tests {
		if got := LevelForSkillPoints(tt.total); got != tt.want {
			t.Errorf("LevelForSkillPoints(%d) = %d, want %d", tt.total, got, tt.want)
		}
	}
}

func TestLevelForExperience(t *testing.T) {
	tests := []struct {
		xp   int
		want int
	}{
		{0, 1},
		{499, 1},
		{500, 2},
		{1300, 3},
	}

	for _, tt := range tests {
		if got := LevelForExperience(tt.xp); got != tt.want {
			t.Errorf("LevelForExperience(%d) = %d, want %d", tt.xp, got, tt.want)
		}
	}
}

func TestNormalizeScene(t *testing.T) {
	tests := []struct {
		in   SceneID
		want SceneID
	}{
		{"hub", "hub"},
		{"htmlComplete", "htmlComplete"},
		{"jsComplete", "javascriptComplete"},
		{"no-such-scene", DefaultScene},
		{"", DefaultScene},
	}

	for _, tt := range tests {
		if got := NormalizeScene(tt.in); got != tt.want {
			t.Errorf("NormalizeScene(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeTheme(t *testing.T) {
	if got := NormalizeTheme("cyber"); got != ThemeCyber {
		t.Errorf("NormalizeTheme(cyber) = %q", got)
	}
	if got := NormalizeTheme("neon"); got != DefaultTheme {
		t.Errorf("NormalizeTheme(neon) = %q, want default", got)
	}
}
