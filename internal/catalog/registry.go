package catalog

import (
	"fmt"
	"sync"

	"github.com/eliseekajingu/codequest/internal/domain"
)

// Filter narrows a challenge listing. Zero values match everything.
type Filter struct {
	Language   domain.Language
	Category   string
	Difficulty domain.Difficulty
}

func (f Filter) matches(c *domain.Challenge) bool {
	if f.Language != "" && c.Language != f.Language {
		return false
	}
	if f.Category != "" && c.Category != f.Category {
		return false
	}
	if f.Difficulty != "" && c.Difficulty != f.Difficulty {
		return false
	}
	return true
}

// Registry provides indexed access to loaded challenges
type Registry struct {
	mu         sync.RWMutex
	challenges map[string]*domain.Challenge
	order      []string // insertion order for stable listings
}

// NewRegistry creates an empty challenge registry
func NewRegistry() *Registry {
	return &Registry{
		challenges: make(map[string]*domain.Challenge),
	}
}

// Add indexes challenges, rejecting duplicate ids
func (r *Registry) Add(challenges ...domain.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range challenges {
		c := challenges[i]
		if _, exists := r.challenges[c.ID]; exists {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateChallenge, c.ID)
		}
		r.challenges[c.ID] = &c
		r.order = append(r.order, c.ID)
	}
	return nil
}

// Get returns a challenge by id
func (r *Registry) Get(id string) (*domain.Challenge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.challenges[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrChallengeNotFound, id)
	}
	return c, nil
}

// List returns challenges matching the filter in insertion order
func (r *Registry) List(f Filter) []*domain.Challenge {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Challenge
	for _, id := range r.order {
		c := r.challenges[id]
		if f.matches(c) {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of indexed challenges
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Categories returns the distinct categories present, in first-seen order
func (r *Registry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, id := range r.order {
		cat := r.challenges[id].Category
		if cat != "" && !seen[cat] {
			seen[cat] = true
			out = append(out, cat)
		}
	}
	return out
}
