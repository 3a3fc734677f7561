package game

import "github.com/eliseekajingu/codequest/internal/domain"

// Effect describes a side effect requested by a transition. Effects are
// plain data; the session layer interprets them (notifications, events,
// save triggers).
type Effect interface {
	isEffect()
}

// NotifyEffect asks for a user-facing notification
type NotifyEffect struct {
	Message string
}

// XPEffect records an experience award that was applied
type XPEffect struct {
	Amount int
}

// QuestCompletedEffect marks a quest's first completion
type QuestCompletedEffect struct {
	Quest domain.QuestID
	XP    int
}

// LevelUpEffect marks the player reaching a new level
type LevelUpEffect struct {
	NewLevel int
}

// ItemAcquiredEffect marks an item entering the inventory
type ItemAcquiredEffect struct {
	Item string
}

// ChallengeCompletedEffect marks a playground challenge's first completion
type ChallengeCompletedEffect struct {
	Challenge string
	XP        int
}

// DirtyEffect signals that the state changed and should be persisted
type DirtyEffect struct{}

func (NotifyEffect) isEffect()             {}
func (XPEffect) isEffect()                 {}
func (QuestCompletedEffect) isEffect()     {}
func (LevelUpEffect) isEffect()            {}
func (ItemAcquiredEffect) isEffect()       {}
func (ChallengeCompletedEffect) isEffect() {}
func (DirtyEffect) isEffect()              {}
