package catalog

import (
	"embed"

	"github.com/eliseekajingu/codequest/internal/domain"
)

//go:embed packs/*.yaml
var builtinFS embed.FS

// LoadBuiltIn parses the challenge packs shipped with the binary
func LoadBuiltIn() ([]domain.Challenge, error) {
	return NewLoader().LoadAll(builtinFS, "packs")
}

// NewDefaultRegistry builds a registry from the built-in packs plus any
// pack files found in extraDir.
func NewDefaultRegistry(extraDir string) (*Registry, error) {
	reg := NewRegistry()

	builtin, err := LoadBuiltIn()
	if err != nil {
		return nil, err
	}
	if err := reg.Add(builtin...); err != nil {
		return nil, err
	}

	if extraDir != "" {
		extra, err := NewLoader().LoadDir(extraDir)
		if err != nil {
			return nil, err
		}
		if err := reg.Add(extra...); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
