// Package catalog loads and indexes playground challenges. Built-in packs
// ship embedded in the binary; extra packs are picked up from the local
// data directory.
package catalog

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eliseekajingu/codequest/internal/domain"
)

// PackFile represents the YAML structure for a challenge pack
type PackFile struct {
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name"`
	Version     string          `yaml:"version"`
	Description string          `yaml:"description"`
	Challenges  []ChallengeFile `yaml:"challenges"`
}

// ChallengeFile represents the YAML structure for a single challenge
type ChallengeFile struct {
	ID          string     `yaml:"id"`
	Title       string     `yaml:"title"`
	Description string     `yaml:"description"`
	Difficulty  string     `yaml:"difficulty"`
	Category    string     `yaml:"category"`
	Language    string     `yaml:"language"`
	Starter     string     `yaml:"starter"`
	Hints       []string   `yaml:"hints"`
	Tests       []TestFile `yaml:"tests"`
	Solution    string     `yaml:"solution"`
}

// TestFile is one assertion in a challenge file
type TestFile struct {
	Description string `yaml:"description"`
	Expression  string `yaml:"expression"`
}

// Loader parses challenge packs from a filesystem
type Loader struct{}

// NewLoader creates a challenge pack loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadPack parses a single pack file
func (l *Loader) LoadPack(fsys fs.FS, path string) (*PackFile, []domain.Challenge, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, nil, fmt.Errorf("read pack file: %w", err)
	}

	var pack PackFile
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, nil, fmt.Errorf("parse pack file %s: %w", path, err)
	}
	if pack.ID == "" {
		return nil, nil, fmt.Errorf("pack file %s has no id", path)
	}

	challenges := make([]domain.Challenge, 0, len(pack.Challenges))
	for _, cf := range pack.Challenges {
		c := domain.Challenge{
			ID:          cf.ID,
			Title:       cf.Title,
			Description: cf.Description,
			Difficulty:  domain.Difficulty(cf.Difficulty),
			Category:    cf.Category,
			Language:    domain.Language(cf.Language),
			StarterCode: cf.Starter,
			Hints:       cf.Hints,
			Solution:    cf.Solution,
		}
		for _, tf := range cf.Tests {
			c.Tests = append(c.Tests, domain.TestCase{
				Description: tf.Description,
				Expression:  tf.Expression,
			})
		}
		if err := c.Validate(); err != nil {
			return nil, nil, fmt.Errorf("pack %s: %w", pack.ID, err)
		}
		challenges = append(challenges, c)
	}

	return &pack, challenges, nil
}

// LoadAll parses every pack file under root in fsys, in lexical order
func (l *Loader) LoadAll(fsys fs.FS, root string) ([]domain.Challenge, error) {
	var all []domain.Challenge
	err := fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".yaml") {
			return nil
		}
		_, challenges, err := l.LoadPack(fsys, path)
		if err != nil {
			return err
		}
		all = append(all, challenges...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load packs: %w", err)
	}
	return all, nil
}

// LoadDir parses pack files from a directory on disk. A missing directory
// yields no challenges.
func (l *Loader) LoadDir(dir string) ([]domain.Challenge, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}
	return l.LoadAll(os.DirFS(filepath.Clean(dir)), ".")
}
