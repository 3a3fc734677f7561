package domain

import "testing"

func TestQuestForCompleteScene(t *testing.T) {
	tests := []struct {
		scene SceneID
		want  QuestID
		found bool
	}{
		{"htmlComplete", QuestHTML, true},
		{"cssComplete", QuestCSS, true},
		{"javascriptComplete", QuestJavaScript, true},
		{"gameComplete", QuestFinalProject, true},
		{"hub", "", false},
		{"html", "", false},
	}

	for _, tt := range tests {
		q, ok := QuestForCompleteScene(tt.scene)
		if ok != tt.found {
			t.Errorf("QuestForCompleteScene(%q) found = %v, want %v", tt.scene, ok, tt.found)
			continue
		}
		if ok && q.ID != tt.want {
			t.Errorf("QuestForCompleteScene(%q) = %q, want %q", tt.scene, q.ID, tt.want)
		}
	}
}

func TestQuestUnlocked(t *testing.T) {
	coreDone := map[SkillID]int{
		SkillVariables:    1,
		SkillConditionals: 1,
		SkillLoops:        2,
		SkillFunctions:    1,
	}
	allLanguages := map[SkillID]int{}
	for _, s := range languageTrack {
		allLanguages[s] = 1
	}

	tests := []struct {
		name   string
		quest  QuestID
		skills map[SkillID]int
		want   bool
	}{
		{"html always open", QuestHTML, map[SkillID]int{}, true},
		{"css locked without html", QuestCSS, map[SkillID]int{}, false},
		{"css open with html", QuestCSS, map[SkillID]int{SkillHTML: 1}, true},
		{"javascript needs html and css", QuestJavaScript, map[SkillID]int{SkillHTML: 1}, false},
		{"javascript open", QuestJavaScript, map[SkillID]int{SkillHTML: 1, SkillCSS: 1}, true},
		{"tailwind needs css", QuestTailwind, map[SkillID]int{SkillCSS: 1}, true},
		{"react needs javascript", QuestReact, map[SkillID]int{SkillJavaScript: 2}, true},
		{"django needs python", QuestDjango, map[SkillID]int{}, false},
		{"flask open with python", QuestFlask, map[SkillID]int{SkillPython: 1}, true},
		{"python needs core track", QuestPython, map[SkillID]int{SkillVariables: 1}, false},
		{"python open after core", QuestPython, coreDone, true},
		{"dataStructures open after core", QuestDataStructures, coreDone, true},
		{"final project locked", QuestFinalProject, coreDone, false},
		{"final project open", QuestFinalProject, allLanguages, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, ok := QuestByID(tt.quest)
			if !ok {
				t.Fatalf("quest %q not in table", tt.quest)
			}
			if got := q.Unlocked(tt.skills); got != tt.want {
				t.Errorf("Unlocked() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuestTableIntegrity(t *testing.T) {
	if len(AllQuests) != ProgressTotal+1 {
		t.Fatalf("expected %d quests plus the final project, got %d", ProgressTotal, len(AllQuests))
	}
	seen := make(map[QuestID]bool)
	for _, q := range AllQuests {
		if seen[q.ID] {
			t.Errorf("duplicate quest id %q", q.ID)
		}
		seen[q.ID] = true
		if q.CompleteScene == "" {
			t.Errorf("quest %q has no completion scene", q.ID)
		}
		if q.XP <= 0 {
			t.Errorf("quest %q awards no experience", q.ID)
		}
	}
}
