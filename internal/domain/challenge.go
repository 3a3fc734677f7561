package domain

import "fmt"

// Challenge represents a playground coding challenge
type Challenge struct {
	ID          string
	Title       string
	Description string
	Difficulty  Difficulty
	Category    string
	Language    Language
	StarterCode string
	Hints       []string
	Tests       []TestCase
	Solution    string
}

// TestCase is a single assertion run against submitted code
type TestCase struct {
	Description string
	// Expression is evaluated together with the submission; it must raise
	// an error to signal failure.
	Expression string
}

// Difficulty represents challenge difficulty level
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
	DifficultyExpert       Difficulty = "expert"
	DifficultyMaster       Difficulty = "master"
)

// IsValid reports whether the difficulty is a known level
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced, DifficultyExpert, DifficultyMaster:
		return true
	}
	return false
}

// Language identifies the language a challenge targets
type Language string

const (
	LangJavaScript Language = "javascript"
	LangHTML       Language = "html"
	LangCSS        Language = "css"
	LangPython     Language = "python"
	LangJava       Language = "java"
	LangRuby       Language = "ruby"
	LangGo         Language = "go"
	LangCSharp     Language = "csharp"
	LangSwift      Language = "swift"
)

// IsValid reports whether the language is known to the catalog
func (l Language) IsValid() bool {
	switch l {
	case LangJavaScript, LangHTML, LangCSS, LangPython, LangJava, LangRuby, LangGo, LangCSharp, LangSwift:
		return true
	}
	return false
}

// Validate checks the structural integrity of a challenge record
func (c *Challenge) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: missing challenge id", ErrInvalidChallenge)
	}
	if c.Title == "" {
		return fmt.Errorf("%w: challenge %q has no title", ErrInvalidChallenge, c.ID)
	}
	if !c.Language.IsValid() {
		return fmt.Errorf("%w: challenge %q has unknown language %q", ErrInvalidChallenge, c.ID, c.Language)
	}
	if !c.Difficulty.IsValid() {
		return fmt.Errorf("%w: challenge %q has unknown difficulty %q", ErrInvalidChallenge, c.ID, c.Difficulty)
	}
	for i, tc := range c.Tests {
		if tc.Description == "" {
			return fmt.Errorf("%w: challenge %q test %d has no description", ErrInvalidChallenge, c.ID, i)
		}
		if tc.Expression == "" {
			return fmt.Errorf("%w: challenge %q test %d has no expression", ErrInvalidChallenge, c.ID, i)
		}
	}
	return nil
}
