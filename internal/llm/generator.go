package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/eliseekajingu/codequest/internal/domain"
)

// Generator produces practice challenges and code feedback from an LLM
type Generator struct {
	registry *Registry
	logger   *slog.Logger
}

// NewGenerator creates a challenge generator over the provider registry
func NewGenerator(registry *Registry, logger *slog.Logger) *Generator {
	return &Generator{registry: registry, logger: logger}
}

const generateSystemPrompt = `You are an expert coding instructor creating programming challenges.
Generate a coding challenge in %s at %s difficulty level.
The user's skill level in %s is %d/10.
Format your response as a JSON object with the following fields:
{
  "title": "Challenge title",
  "description": "Detailed description of the challenge",
  "difficulty": "%s",
  "category": "appropriate category",
  "language": "%s",
  "starterCode": "Code template to start with",
  "hints": ["Hint 1", "Hint 2", "Hint 3"],
  "tests": [
    {
      "description": "Test description",
      "test": "Code to test the solution"
    }
  ],
  "solution": "Complete working solution code"
}`

type generatedChallenge struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Difficulty  string `json:"difficulty"`
	Category    string `json:"category"`
	Language    string `json:"language"`
	StarterCode string `json:"starterCode"`
	Hints       []string `json:"hints"`
	Tests       []struct {
		Description string `json:"description"`
		Test        string `json:"test"`
	} `json:"tests"`
	Solution string `json:"solution"`
}

// GenerateChallenge asks the LLM for a new challenge tailored to the
// player's skill level and validates the result against the challenge
// schema.
func (g *Generator) GenerateChallenge(ctx context.Context, language domain.Language, difficulty domain.Difficulty, skillLevel int) (*domain.Challenge, error) {
	provider, err := g.registry.Default()
	if err != nil {
		return nil, err
	}

	system := fmt.Sprintf(generateSystemPrompt,
		language, difficulty, language, skillLevel, difficulty, language)

	resp, err := provider.Generate(ctx, &Request{
		System:      system,
		Messages:    []Message{{Role: RoleUser, Content: "Generate the challenge now."}},
		Temperature: 0.7,
		JSONOutput:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("generate challenge: %w", err)
	}

	challenge, err := parseGeneratedChallenge(resp.Content, language, difficulty)
	if err != nil {
		return nil, err
	}

	g.logger.Info("challenge generated",
		"id", challenge.ID,
		"language", challenge.Language,
		"difficulty", challenge.Difficulty,
		"tokens_out", resp.Usage.OutputTokens)
	return challenge, nil
}

func parseGeneratedChallenge(content string, language domain.Language, difficulty domain.Difficulty) (*domain.Challenge, error) {
	// some models wrap JSON in a fenced block despite instructions
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var gen generatedChallenge
	if err := json.Unmarshal([]byte(content), &gen); err != nil {
		return nil, fmt.Errorf("parse generated challenge: %w", err)
	}

	challenge := &domain.Challenge{
		ID:          fmt.Sprintf("gen-%s-%s", language, uuid.NewString()[:8]),
		Title:       gen.Title,
		Description: gen.Description,
		Difficulty:  domain.Difficulty(gen.Difficulty),
		Category:    gen.Category,
		Language:    domain.Language(gen.Language),
		StarterCode: gen.StarterCode,
		Hints:       gen.Hints,
		Solution:    gen.Solution,
	}
	for _, t := range gen.Tests {
		challenge.Tests = append(challenge.Tests, domain.TestCase{
			Description: t.Description,
			Expression:  t.Test,
		})
	}

	// the model may drift from the requested language or difficulty
	if !challenge.Language.IsValid() {
		challenge.Language = language
	}
	if !challenge.Difficulty.IsValid() {
		challenge.Difficulty = difficulty
	}
	if challenge.Category == "" {
		challenge.Category = "general"
	}

	if err := challenge.Validate(); err != nil {
		return nil, fmt.Errorf("generated challenge rejected: %w", err)
	}
	return challenge, nil
}

const feedbackSystemPrompt = `You are an expert %s developer providing feedback on code.
Analyze the code for a challenge and provide constructive feedback.
Focus on code quality, efficiency, and best practices.
Be encouraging but highlight areas for improvement.`

// CodeFeedback asks the LLM to review a solution attempt
func (g *Generator) CodeFeedback(ctx context.Context, code string, challenge *domain.Challenge) (string, error) {
	provider, err := g.registry.Default()
	if err != nil {
		return "", err
	}

	user := fmt.Sprintf("Challenge: %s\nDescription: %s\nMy solution:\n```%s\n%s\n```",
		challenge.Title, challenge.Description, challenge.Language, code)

	resp, err := provider.Generate(ctx, &Request{
		System:      fmt.Sprintf(feedbackSystemPrompt, challenge.Language),
		Messages:    []Message{{Role: RoleUser, Content: user}},
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("code feedback: %w", err)
	}
	return resp.Content, nil
}
