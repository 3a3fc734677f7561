package domain

// QuestID identifies a quest
type QuestID string

const (
	QuestVariables      QuestID = "variables"
	QuestConditionals   QuestID = "conditionals"
	QuestLoops          QuestID = "loops"
	QuestFunctions      QuestID = "functions"
	QuestDataStructures QuestID = "dataStructures"
	QuestHTML           QuestID = "html"
	QuestCSS            QuestID = "css"
	QuestJavaScript     QuestID = "javascript"
	QuestPython         QuestID = "python"
	QuestReact          QuestID = "react"
	QuestDjango         QuestID = "django"
	QuestFlask          QuestID = "flask"
	QuestTailwind       QuestID = "tailwind"
	QuestFinalProject   QuestID = "finalProject"
)

// Quest describes a single quest: the skill it trains, its scenes, the
// inventory reward it grants, the experience it awards, and its unlock gate.
type Quest struct {
	ID            QuestID
	Name          string
	Skill         SkillID
	Scene         SceneID
	CompleteScene SceneID
	Reward        string // inventory item, empty if none
	XP            int
	// Requires lists skills that must be above zero before the quest
	// unlocks. Empty means always available.
	Requires []SkillID
}

var coreTrack = []SkillID{SkillVariables, SkillConditionals, SkillLoops, SkillFunctions}

var languageTrack = []SkillID{
	SkillHTML, SkillCSS, SkillJavaScript, SkillPython,
	SkillReact, SkillDjango, SkillFlask, SkillTailwind,
}

// AllQuests is the quest table in hub order
var AllQuests = []Quest{
	{ID: QuestVariables, Name: "The Variable Valley", Skill: SkillVariables, Scene: "variables", CompleteScene: "variablesComplete", Reward: "Variable Scroll", XP: XPQuestComplete},
	{ID: QuestConditionals, Name: "The Forked Path", Skill: SkillConditionals, Scene: "conditionals", CompleteScene: "conditionalsComplete", Reward: "Logic Crystal", XP: XPQuestComplete},
	{ID: QuestLoops, Name: "The Endless Caverns", Skill: SkillLoops, Scene: "loops", CompleteScene: "loopsComplete", Reward: "Loop Talisman", XP: XPQuestComplete},
	{ID: QuestFunctions, Name: "The Function Forge", Skill: SkillFunctions, Scene: "functions", CompleteScene: "functionsComplete", Reward: "Function Medallion", XP: XPQuestComplete},
	{ID: QuestDataStructures, Name: "The Data Depths", Skill: SkillDataStructures, Scene: "dataStructures", CompleteScene: "dataStructuresComplete", XP: XPQuestComplete, Requires: coreTrack},
	{ID: QuestHTML, Name: "The Markup Citadel", Skill: SkillHTML, Scene: "html", CompleteScene: "htmlComplete", Reward: "HTML Blueprint", XP: XPQuestComplete},
	{ID: QuestCSS, Name: "The Style Gardens", Skill: SkillCSS, Scene: "css", CompleteScene: "cssComplete", Reward: "Style Palette", XP: XPQuestComplete, Requires: []SkillID{SkillHTML}},
	{ID: QuestJavaScript, Name: "The Script Spire", Skill: SkillJavaScript, Scene: "javascript", CompleteScene: "javascriptComplete", Reward: "Script Scroll", XP: XPQuestComplete, Requires: []SkillID{SkillHTML, SkillCSS}},
	{ID: QuestPython, Name: "The Python Peaks", Skill: SkillPython, Scene: "python", CompleteScene: "pythonComplete", XP: XPQuestComplete, Requires: coreTrack},
	{ID: QuestReact, Name: "The Component Keep", Skill: SkillReact, Scene: "react", CompleteScene: "reactComplete", XP: XPQuestComplete, Requires: []SkillID{SkillJavaScript}},
	{ID: QuestDjango, Name: "The Django Dunes", Skill: SkillDjango, Scene: "django", CompleteScene: "djangoComplete", XP: XPQuestComplete, Requires: []SkillID{SkillPython}},
	{ID: QuestFlask, Name: "The Flask Falls", Skill: SkillFlask, Scene: "flask", CompleteScene: "flaskComplete", XP: XPQuestComplete, Requires: []SkillID{SkillPython}},
	{ID: QuestTailwind, Name: "The Utility Towers", Skill: SkillTailwind, Scene: "tailwind", CompleteScene: "tailwindComplete", XP: XPQuestComplete, Requires: []SkillID{SkillCSS}},
	{ID: QuestFinalProject, Name: "The Final Project", Skill: "", Scene: SceneFinalProject, CompleteScene: SceneGameComplete, XP: XPFinalProject, Requires: languageTrack},
}

// ProgressTotal is the number of quests counted toward overall progress.
// The final project sits outside the progress bar.
const ProgressTotal = 13

var questsByCompleteScene = func() map[SceneID]*Quest {
	m := make(map[SceneID]*Quest, len(AllQuests))
	for i := range AllQuests {
		m[AllQuests[i].CompleteScene] = &AllQuests[i]
	}
	return m
}()

var questsByID = func() map[QuestID]*Quest {
	m := make(map[QuestID]*Quest, len(AllQuests))
	for i := range AllQuests {
		m[AllQuests[i].ID] = &AllQuests[i]
	}
	return m
}()

// QuestForCompleteScene returns the quest whose completion scene is id
func QuestForCompleteScene(id SceneID) (*Quest, bool) {
	q, ok := questsByCompleteScene[id]
	return q, ok
}

// QuestByID looks up a quest by id
func QuestByID(id QuestID) (*Quest, bool) {
	q, ok := questsByID[id]
	return q, ok
}

// Unlocked evaluates the quest's gate against the skill map
func (q *Quest) Unlocked(skills map[SkillID]int) bool {
	for _, s := range q.Requires {
		if skills[s] <= 0 {
			return false
		}
	}
	return true
}
