package domain

// SkillID identifies a trainable skill track
type SkillID string

const (
	SkillVariables      SkillID = "variables"
	SkillConditionals   SkillID = "conditionals"
	SkillLoops          SkillID = "loops"
	SkillFunctions      SkillID = "functions"
	SkillDataStructures SkillID = "dataStructures"
	SkillHTML           SkillID = "html"
	SkillCSS            SkillID = "css"
	SkillJavaScript     SkillID = "javascript"
	SkillPython         SkillID = "python"
	SkillReact          SkillID = "react"
	SkillDjango         SkillID = "django"
	SkillFlask          SkillID = "flask"
	SkillTailwind       SkillID = "tailwind"
)

// AllSkills lists every skill in canonical order
var AllSkills = []SkillID{
	SkillVariables,
	SkillConditionals,
	SkillLoops,
	SkillFunctions,
	SkillDataStructures,
	SkillHTML,
	SkillCSS,
	SkillJavaScript,
	SkillPython,
	SkillReact,
	SkillDjango,
	SkillFlask,
	SkillTailwind,
}

// MaxSkillLevel caps per-skill progression; increments beyond it are clamped
const MaxSkillLevel = 3

// IsValid reports whether the skill id is a known track
func (s SkillID) IsValid() bool {
	for _, known := range AllSkills {
		if s == known {
			return true
		}
	}
	return false
}

// Experience awards for player actions
const (
	XPQuestComplete     = 100
	XPChallengeComplete = 50
	XPFinalProject      = 500
)

// SkillPointsPerLevel is the number of accumulated skill points per player level
const SkillPointsPerLevel = 5

// XPPerLevel is the experience per level in the persisted-profile variant
const XPPerLevel = 500

// LevelForSkillPoints derives the in-session player level from total skill points
func LevelForSkillPoints(total int) int {
	if total < 0 {
		total = 0
	}
	return total/SkillPointsPerLevel + 1
}

// LevelForExperience derives the profile-summary level from accumulated experience
func LevelForExperience(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/XPPerLevel + 1
}
