package sandbox

import (
	"fmt"

	"github.com/eliseekajingu/codequest/internal/domain"
)

// Runtime describes how a language's submissions are executed
type Runtime struct {
	Language domain.Language
	// Command launches the interpreter; the harness entry file is appended.
	Command []string
	// EntryFile is the name the submission is written under.
	EntryFile string
	// DockerImage is used by the container executor.
	DockerImage string
	// Markup languages are rendered, never executed.
	Markup bool
}

// DefaultRuntimes returns the runtime table for executable and renderable
// languages. Catalog languages without an entry here are browse-only.
func DefaultRuntimes() map[domain.Language]Runtime {
	return map[domain.Language]Runtime{
		domain.LangJavaScript: {
			Language:    domain.LangJavaScript,
			Command:     []string{"node"},
			EntryFile:   "program.js",
			DockerImage: "node:20-alpine",
		},
		domain.LangPython: {
			Language:    domain.LangPython,
			Command:     []string{"python3"},
			EntryFile:   "program.py",
			DockerImage: "python:3.12-alpine",
		},
		domain.LangHTML: {
			Language: domain.LangHTML,
			Markup:   true,
		},
		domain.LangCSS: {
			Language: domain.LangCSS,
			Markup:   true,
		},
	}
}

// RuntimeFor resolves the runtime for a language
func RuntimeFor(lang domain.Language) (Runtime, error) {
	rt, ok := DefaultRuntimes()[lang]
	if !ok {
		return Runtime{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedLanguage, lang)
	}
	return rt, nil
}
