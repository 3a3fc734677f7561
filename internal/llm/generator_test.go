package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/eliseekajingu/codequest/internal/domain"
)

const validGenerated = `{
	"title": "Sum of Evens",
	"description": "Write a function sumEvens(nums) that returns the sum of all even numbers.",
	"difficulty": "beginner",
	"category": "arrays",
	"language": "javascript",
	"starterCode": "function sumEvens(nums) {\n  // your code here\n}",
	"hints": ["Use the modulo operator", "Filter before summing"],
	"tests": [
		{"description": "sums evens", "test": "if (sumEvens([1,2,3,4]) !== 6) throw new Error('expected 6');"}
	],
	"solution": "function sumEvens(nums) { return nums.filter(n => n % 2 === 0).reduce((a, b) => a + b, 0); }"
}`

func fakeOpenAIServer(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		resp := map[string]any{
			"id": "cmpl-1",
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}, "finish_reason": "stop"},
			},
			"usage": map[string]any{"prompt_tokens": 100, "completion_tokens": 200},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func newTestGenerator(t *testing.T, server *httptest.Server) *Generator {
	t.Helper()
	registry := NewRegistry()
	registry.Register("openai", NewOpenAIProvider(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	}))
	return NewGenerator(registry, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGenerateChallenge(t *testing.T) {
	server := fakeOpenAIServer(t, validGenerated, http.StatusOK)
	defer server.Close()
	gen := newTestGenerator(t, server)

	challenge, err := gen.GenerateChallenge(context.Background(), domain.LangJavaScript, domain.DifficultyBeginner, 3)
	if err != nil {
		t.Fatalf("GenerateChallenge() error = %v", err)
	}
	if challenge.Title != "Sum of Evens" {
		t.Errorf("Title = %q, want Sum of Evens", challenge.Title)
	}
	if !strings.HasPrefix(challenge.ID, "gen-javascript-") {
		t.Errorf("ID = %q, want gen-javascript- prefix", challenge.ID)
	}
	if len(challenge.Tests) != 1 || challenge.Tests[0].Expression == "" {
		t.Errorf("Tests = %+v, want one test with an expression", challenge.Tests)
	}
	if err := challenge.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestGenerateChallengeFencedJSON(t *testing.T) {
	server := fakeOpenAIServer(t, "```json\n"+validGenerated+"\n```", http.StatusOK)
	defer server.Close()
	gen := newTestGenerator(t, server)

	if _, err := gen.GenerateChallenge(context.Background(), domain.LangJavaScript, domain.DifficultyBeginner, 3); err != nil {
		t.Errorf("GenerateChallenge() with fenced JSON error = %v", err)
	}
}

func TestGenerateChallengeGarbage(t *testing.T) {
	server := fakeOpenAIServer(t, "sorry, I cannot do that", http.StatusOK)
	defer server.Close()
	gen := newTestGenerator(t, server)

	if _, err := gen.GenerateChallenge(context.Background(), domain.LangJavaScript, domain.DifficultyBeginner, 3); err == nil {
		t.Error("GenerateChallenge() error = nil, want parse failure")
	}
}

func TestGenerateChallengeServerError(t *testing.T) {
	server := fakeOpenAIServer(t, "", http.StatusInternalServerError)
	defer server.Close()
	gen := newTestGenerator(t, server)

	if _, err := gen.GenerateChallenge(context.Background(), domain.LangJavaScript, domain.DifficultyBeginner, 3); err == nil {
		t.Error("GenerateChallenge() error = nil, want API error")
	}
}

func TestGenerateChallengeNoProvider(t *testing.T) {
	gen := NewGenerator(NewRegistry(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	if _, err := gen.GenerateChallenge(context.Background(), domain.LangJavaScript, domain.DifficultyBeginner, 3); !errors.Is(err, ErrNoDefaultProvider) {
		t.Errorf("GenerateChallenge() error = %v, want ErrNoDefaultProvider", err)
	}
}

func TestParseGeneratedChallengeDrift(t *testing.T) {
	// the model echoed a bogus language and difficulty
	drifted := strings.Replace(validGenerated, `"language": "javascript"`, `"language": "klingon"`, 1)
	drifted = strings.Replace(drifted, `"difficulty": "beginner"`, `"difficulty": "impossible"`, 1)

	challenge, err := parseGeneratedChallenge(drifted, domain.LangPython, domain.DifficultyIntermediate)
	if err != nil {
		t.Fatalf("parseGeneratedChallenge() error = %v", err)
	}
	if challenge.Language != domain.LangPython {
		t.Errorf("Language = %q, want requested python fallback", challenge.Language)
	}
	if challenge.Difficulty != domain.DifficultyIntermediate {
		t.Errorf("Difficulty = %q, want requested intermediate fallback", challenge.Difficulty)
	}
}

func TestCodeFeedback(t *testing.T) {
	server := fakeOpenAIServer(t, "Nice work! Consider using reduce directly.", http.StatusOK)
	defer server.Close()
	gen := newTestGenerator(t, server)

	challenge := &domain.Challenge{
		Title:       "Sum of Evens",
		Description: "Sum even numbers.",
		Language:    domain.LangJavaScript,
	}
	feedback, err := gen.CodeFeedback(context.Background(), "function sumEvens() {}", challenge)
	if err != nil {
		t.Fatalf("CodeFeedback() error = %v", err)
	}
	if feedback == "" {
		t.Error("CodeFeedback() returned empty feedback")
	}
}
