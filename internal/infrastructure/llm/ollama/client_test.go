package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mkarpenko/songbrain/internal/core/domain"
	"github.com/mkarpenko/songbrain/internal/infrastructure/resilience"
)

func TestEmbedPostsBatchInput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode embed request: %v", err)
		}
		if req.Model != "nomic-embed-text" || len(req.Input) != 2 {
			t.Errorf("unexpected embed request: %+v", req)
		}
		_, _ = w.Write([]byte(`{"embeddings":[[0.1,0.2],[0.3,0.4]]}`))
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "llama3", "nomic-embed-text"))
	vectors, err := embedder.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors) != 2 || len(vectors[0]) != 2 {
		t.Fatalf("unexpected vectors: %v", vectors)
	}
}

func TestPlanJSONForcesJSONFormat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode generate request: %v", err)
		}
		if req["format"] != "json" {
			t.Errorf("expected json format, got %v", req["format"])
		}
		if req["stream"] != false {
			t.Errorf("expected stream disabled")
		}
		_, _ = w.Write([]byte(`{"response":"{\"tools\":[\"semantic_search\"]}"}`))
	}))
	defer server.Close()

	planner := NewPlanner(New(server.URL, "llama3", "nomic-embed-text"))
	out, err := planner.PlanJSON(context.Background(), "plan this")
	if err != nil {
		t.Fatalf("PlanJSON() error = %v", err)
	}
	if !strings.Contains(out, "semantic_search") {
		t.Fatalf("unexpected plan response: %s", out)
	}
}

func TestGenerateAnswerPromptCarriesEvidenceAndFallback(t *testing.T) {
	var gotPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode generate request: %v", err)
		}
		gotPrompt = req.Prompt
		_, _ = w.Write([]byte(`{"response":"Your cat is Misha."}`))
	}))
	defer server.Close()

	generator := NewGenerator(New(server.URL, "llama3", "nomic-embed-text"))
	evidence := domain.Evidence{
		Items: []domain.RetrievedItem{{ResourceID: "r1", Content: "cat is Misha", Score: 0.9}},
		Songs: []domain.Song{{Title: "Clocks", Artist: "Coldplay", Difficulty: "EASY", TempoBPM: 131}},
	}
	answer, err := generator.GenerateAnswer(context.Background(), "what is my cat's name", evidence)
	if err != nil {
		t.Fatalf("GenerateAnswer() error = %v", err)
	}
	if answer != "Your cat is Misha." {
		t.Fatalf("unexpected answer: %s", answer)
	}
	for _, want := range []string{"cat is Misha", "Clocks", "Coldplay", domain.FallbackAnswer} {
		if !strings.Contains(gotPrompt, want) {
			t.Fatalf("expected prompt to contain %q, prompt: %s", want, gotPrompt)
		}
	}
}

func TestClassifyOllamaErrorRetryableStatuses(t *testing.T) {
	retryable := classifyOllamaError(&HTTPStatusError{Operation: "generate", StatusCode: http.StatusServiceUnavailable, Status: "503"})
	if !retryable.Retryable || !retryable.RecordFailure {
		t.Fatalf("expected 503 retryable, got %+v", retryable)
	}

	fatal := classifyOllamaError(&HTTPStatusError{Operation: "generate", StatusCode: http.StatusBadRequest, Status: "400"})
	if fatal.Retryable {
		t.Fatalf("expected 400 not retryable, got %+v", fatal)
	}

	canceled := classifyOllamaError(context.Canceled)
	if canceled.Retryable || canceled.RecordFailure {
		t.Fatalf("expected canceled to be neutral, got %+v", canceled)
	}
}

func TestResilientEmbedderRetriesTransientFailures(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"embeddings":[[0.1,0.2]]}`))
	}))
	defer server.Close()

	executor := resilience.NewExecutor(resilience.Config{RetryMaxAttempts: 2, RetryInitialBackoff: 1, RetryMaxBackoff: 1, RetryMultiplier: 1})
	embedder := NewResilientEmbedder(NewEmbedder(New(server.URL, "llama3", "nomic-embed-text")), executor)

	vectors, err := embedder.Embed(context.Background(), []string{"a"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected retry after transient failure, got %d attempts", attempts)
	}
	if len(vectors) != 1 {
		t.Fatalf("unexpected vectors: %v", vectors)
	}
}

func TestWrapTemporaryMarksRetryableErrors(t *testing.T) {
	err := wrapTemporaryIfNeeded("ollama embed", &HTTPStatusError{Operation: "embed", StatusCode: http.StatusBadGateway, Status: "502"})
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary wrap, got %v", err)
	}

	plain := errors.New("parse failure")
	if got := wrapTemporaryIfNeeded("ollama embed", plain); !errors.Is(got, plain) || domain.IsKind(got, domain.ErrTemporary) {
		t.Fatalf("expected non-retryable error passed through, got %v", got)
	}
}
