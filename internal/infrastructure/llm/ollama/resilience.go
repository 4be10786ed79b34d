package ollama

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/mkarpenko/songbrain/internal/core/domain"
	"github.com/mkarpenko/songbrain/internal/infrastructure/resilience"
)

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "ollama status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("ollama %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("ollama %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

func classifyOllamaError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if isRetryableHTTPStatus(statusErr.StatusCode) {
			return resilience.ErrorClassification{
				Retryable:     true,
				RecordFailure: true,
			}
		}
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}

	return resilience.ErrorClassification{
		Retryable:     false,
		RecordFailure: true,
	}
}

func wrapTemporaryIfNeeded(operation string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		return err
	}

	class := classifyOllamaError(err)
	if class.Retryable || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// ResilientEmbedder wraps the embedder with retry and a per-operation
// circuit breaker.
type ResilientEmbedder struct {
	inner    *Embedder
	executor *resilience.Executor
}

func NewResilientEmbedder(inner *Embedder, executor *resilience.Executor) *ResilientEmbedder {
	return &ResilientEmbedder{inner: inner, executor: executor}
}

func (e *ResilientEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := e.executor.Execute(ctx, "ollama_embed", func(ctx context.Context) error {
		var innerErr error
		out, innerErr = e.inner.Embed(ctx, texts)
		return innerErr
	}, classifyOllamaError)
	return out, wrapTemporaryIfNeeded("ollama embed", err)
}

func (e *ResilientEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := e.executor.Execute(ctx, "ollama_embed_query", func(ctx context.Context) error {
		var innerErr error
		out, innerErr = e.inner.EmbedQuery(ctx, text)
		return innerErr
	}, classifyOllamaError)
	return out, wrapTemporaryIfNeeded("ollama embed query", err)
}

type ResilientPlanner struct {
	inner    *Planner
	executor *resilience.Executor
}

func NewResilientPlanner(inner *Planner, executor *resilience.Executor) *ResilientPlanner {
	return &ResilientPlanner{inner: inner, executor: executor}
}

func (p *ResilientPlanner) PlanJSON(ctx context.Context, prompt string) (string, error) {
	var out string
	err := p.executor.Execute(ctx, "ollama_plan", func(ctx context.Context) error {
		var innerErr error
		out, innerErr = p.inner.PlanJSON(ctx, prompt)
		return innerErr
	}, classifyOllamaError)
	return out, wrapTemporaryIfNeeded("ollama plan", err)
}

type ResilientGenerator struct {
	inner    *Generator
	executor *resilience.Executor
}

func NewResilientGenerator(inner *Generator, executor *resilience.Executor) *ResilientGenerator {
	return &ResilientGenerator{inner: inner, executor: executor}
}

func (g *ResilientGenerator) GenerateAnswer(ctx context.Context, question string, evidence domain.Evidence) (string, error) {
	var out string
	err := g.executor.Execute(ctx, "ollama_generate", func(ctx context.Context) error {
		var innerErr error
		out, innerErr = g.inner.GenerateAnswer(ctx, question, evidence)
		return innerErr
	}, classifyOllamaError)
	return out, wrapTemporaryIfNeeded("ollama generate", err)
}

func (g *ResilientGenerator) GenerateFromPrompt(ctx context.Context, prompt string) (string, error) {
	var out string
	err := g.executor.Execute(ctx, "ollama_generate", func(ctx context.Context) error {
		var innerErr error
		out, innerErr = g.inner.GenerateFromPrompt(ctx, prompt)
		return innerErr
	}, classifyOllamaError)
	return out, wrapTemporaryIfNeeded("ollama generate", err)
}
