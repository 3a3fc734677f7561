package domain

// SceneID identifies a named scene in the quest flow
type SceneID string

const (
	SceneStart        SceneID = "start"
	SceneIntro        SceneID = "intro"
	SceneHub          SceneID = "hub"
	SceneProfile      SceneID = "profile"
	ScenePlayground   SceneID = "playground"
	SceneFinalProject SceneID = "finalProject"
	SceneGameComplete SceneID = "gameComplete"
)

// DefaultScene is where unknown or missing scene ids resolve to
const DefaultScene = SceneStart

// knownScenes holds every scene reachable by the quest flow. Each quest
// contributes its topic scene and its completion scene.
var knownScenes = func() map[SceneID]struct{} {
	m := map[SceneID]struct{}{
		SceneStart:        {},
		SceneIntro:        {},
		SceneHub:          {},
		SceneProfile:      {},
		ScenePlayground:   {},
		SceneFinalProject: {},
		SceneGameComplete: {},
	}
	for _, q := range AllQuests {
		m[q.Scene] = struct{}{}
		m[q.CompleteScene] = struct{}{}
	}
	return m
}()

// sceneAliases maps legacy scene spellings onto their canonical ids
var sceneAliases = map[SceneID]SceneID{
	"jsComplete": "javascriptComplete",
}

// NormalizeScene resolves aliases and falls back to the default scene for
// ids outside the known set. It never fails.
func NormalizeScene(id SceneID) SceneID {
	if canonical, ok := sceneAliases[id]; ok {
		id = canonical
	}
	if _, ok := knownScenes[id]; ok {
		return id
	}
	return DefaultScene
}

// ThemeID identifies a visual theme
type ThemeID string

const (
	ThemeFantasy ThemeID = "fantasy"
	ThemeCyber   ThemeID = "cyber"
	ThemeSpace   ThemeID = "space"
)

// DefaultTheme is applied when a profile carries no theme
const DefaultTheme = ThemeFantasy

// IsValid reports whether the theme id is known
func (t ThemeID) IsValid() bool {
	switch t {
	case ThemeFantasy, ThemeCyber, ThemeSpace:
		return true
	}
	return false
}

// NormalizeTheme falls back to the default theme for unknown ids
func NormalizeTheme(t ThemeID) ThemeID {
	if t.IsValid() {
		return t
	}
	return DefaultTheme
}
