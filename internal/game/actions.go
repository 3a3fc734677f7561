package game

import (
	"fmt"

	"github.com/eliseekajingu/codequest/internal/domain"
)

// Action is a request to transition the state
type Action interface {
	isAction()
}

// GoToScene navigates to a scene. Entering a quest's completion scene for
// the first time completes the quest.
type GoToScene struct {
	Scene domain.SceneID
}

// IncrementSkill raises a skill level by Delta (clamped to the valid range)
type IncrementSkill struct {
	Skill domain.SkillID
	Delta int
}

// AddItem adds an item to the inventory (set semantics)
type AddItem struct {
	Item string
}

// SetTheme switches the visual theme
type SetTheme struct {
	Theme domain.ThemeID
}

// CompleteChallenge records a playground challenge completion
type CompleteChallenge struct {
	Challenge string
}

func (GoToScene) isAction()         {}
func (IncrementSkill) isAction()    {}
func (AddItem) isAction()           {}
func (SetTheme) isAction()          {}
func (CompleteChallenge) isAction() {}

// Apply runs one transition. The input state is never mutated; the returned
// state shares no mutable structure with it.
func Apply(s State, a Action) (State, []Effect) {
	switch act := a.(type) {
	case GoToScene:
		return applyGoToScene(s, act)
	case IncrementSkill:
		return applyIncrementSkill(s, act)
	case AddItem:
		return applyAddItem(s, act)
	case SetTheme:
		return applySetTheme(s, act)
	case CompleteChallenge:
		return applyCompleteChallenge(s, act)
	default:
		return s, nil
	}
}

func applyGoToScene(s State, act GoToScene) (State, []Effect) {
	next := s.Clone()
	scene := domain.NormalizeScene(act.Scene)
	var effects []Effect

	if scene != s.CurrentScene {
		next.CurrentScene = scene
		effects = append(effects, DirtyEffect{})
	}

	quest, ok := domain.QuestForCompleteScene(scene)
	if !ok || next.QuestCompleted(quest.ID) {
		return next, effects
	}

	next.CompletedQuests = append(next.CompletedQuests, quest.ID)
	next.Experience += quest.XP
	effects = append(effects,
		QuestCompletedEffect{Quest: quest.ID, XP: quest.XP},
		XPEffect{Amount: quest.XP},
	)
	if quest.Reward != "" && !next.HasItem(quest.Reward) {
		next.Inventory = append(next.Inventory, quest.Reward)
		effects = append(effects,
			ItemAcquiredEffect{Item: quest.Reward},
			NotifyEffect{Message: fmt.Sprintf("%s acquired!", quest.Reward)},
		)
	}
	if len(effects) == 0 || !hasDirty(effects) {
		effects = append(effects, DirtyEffect{})
	}
	return next, effects
}

func applyIncrementSkill(s State, act IncrementSkill) (State, []Effect) {
	if !act.Skill.IsValid() || act.Delta == 0 {
		return s, nil
	}
	next := s.Clone()
	level := next.Skills[act.Skill] + act.Delta
	if level < 0 {
		level = 0
	}
	if level > domain.MaxSkillLevel {
		level = domain.MaxSkillLevel
	}
	if level == next.Skills[act.Skill] {
		return s, nil
	}
	next.Skills[act.Skill] = level

	effects := []Effect{DirtyEffect{}}
	newLevel := domain.LevelForSkillPoints(next.TotalSkillPoints())
	if newLevel > next.Level {
		next.Level = newLevel
		next.SkillPoints++
		effects = append(effects,
			LevelUpEffect{NewLevel: newLevel},
			NotifyEffect{Message: "Level Up!"},
		)
	}
	return next, effects
}

func applyAddItem(s State, act AddItem) (State, []Effect) {
	if act.Item == "" || s.HasItem(act.Item) {
		return s, nil
	}
	next := s.Clone()
	next.Inventory = append(next.Inventory, act.Item)
	return next, []Effect{
		ItemAcquiredEffect{Item: act.Item},
		NotifyEffect{Message: fmt.Sprintf("%s acquired!", act.Item)},
		DirtyEffect{},
	}
}

func applySetTheme(s State, act SetTheme) (State, []Effect) {
	theme := domain.NormalizeTheme(act.Theme)
	if theme == s.Theme {
		return s, nil
	}
	next := s.Clone()
	next.Theme = theme
	return next, []Effect{DirtyEffect{}}
}

func applyCompleteChallenge(s State, act CompleteChallenge) (State, []Effect) {
	if act.Challenge == "" || s.ChallengeCompleted(act.Challenge) {
		return s, nil
	}
	next := s.Clone()
	next.CompletedChallenges = append(next.CompletedChallenges, act.Challenge)
	next.Experience += domain.XPChallengeComplete
	return next, []Effect{
		ChallengeCompletedEffect{Challenge: act.Challenge, XP: domain.XPChallengeComplete},
		XPEffect{Amount: domain.XPChallengeComplete},
		NotifyEffect{Message: fmt.Sprintf("Challenge complete! +%d XP", domain.XPChallengeComplete)},
		DirtyEffect{},
	}
}

func hasDirty(effects []Effect) bool {
	for _, e := range effects {
		if _, ok := e.(DirtyEffect); ok {
			return true
		}
	}
	return false
}
