package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mkarpenko/songbrain/internal/core/domain"
	"github.com/mkarpenko/songbrain/internal/core/ports"
)

// ChatUseCase orchestrates one user turn. Every turn starts with a mandatory
// query-understanding step, then chains the planned tool calls without
// yielding intermediate output; all tool results accumulate into a single
// evidence set handed to answer generation. A failed tool never aborts the
// turn; only a total absence of evidence produces the fixed fallback answer.
type ChatUseCase struct {
	planner    ports.Planner
	translator ports.FilterTranslator
	songs      ports.SongSearcher
	retriever  ports.KnowledgeRetriever
	ingestor   ports.ResourceIngestor
	generator  ports.AnswerGenerator
	limits     domain.TurnLimits
}

func NewChatUseCase(
	planner ports.Planner,
	translator ports.FilterTranslator,
	songs ports.SongSearcher,
	retriever ports.KnowledgeRetriever,
	ingestor ports.ResourceIngestor,
	generator ports.AnswerGenerator,
	limits domain.TurnLimits,
) *ChatUseCase {
	if limits.Timeout <= 0 {
		limits.Timeout = 30 * time.Second
	}
	if limits.PlannerTimeout <= 0 {
		limits.PlannerTimeout = 15 * time.Second
	}
	if limits.ToolTimeout <= 0 {
		limits.ToolTimeout = 20 * time.Second
	}
	if limits.RetrieveTopK <= 0 {
		limits.RetrieveTopK = defaultRetrieveTopK
	}

	return &ChatUseCase{
		planner:    planner,
		translator: translator,
		songs:      songs,
		retriever:  retriever,
		ingestor:   ingestor,
		generator:  generator,
		limits:     limits,
	}
}

func (uc *ChatUseCase) Complete(ctx context.Context, req domain.ChatRequest) (*domain.TurnResult, error) {
	question, ok := latestUserMessage(req.Messages)
	if !ok {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chat turn", fmt.Errorf("at least one user message is required"))
	}

	conversationID := strings.TrimSpace(req.ConversationID)
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	turnCtx, cancel := context.WithTimeout(ctx, uc.limits.Timeout)
	defer cancel()

	result := &domain.TurnResult{ConversationID: conversationID}
	result.Plan = uc.understand(turnCtx, question, result)

	for _, tool := range result.Plan.Tools {
		uc.runTool(turnCtx, tool, question, result.Plan.Paraphrases, result)
	}

	if result.Evidence.Empty() {
		result.Answer = domain.FallbackAnswer
		if result.FallbackReason == "" {
			result.FallbackReason = "no_evidence"
		}
		return result, nil
	}

	answer, err := uc.generator.GenerateAnswer(turnCtx, question, result.Evidence)
	if err != nil {
		return nil, domain.WrapError(domain.ErrUpstreamUnavailable, "generate answer", err)
	}
	result.Answer = strings.TrimSpace(answer)
	if result.Answer == "" {
		result.Answer = domain.FallbackAnswer
		result.FallbackReason = "empty_generation"
	}
	return result, nil
}

// understand produces the turn plan before any retrieval call. Planner
// failure degrades to the default semantic plan instead of failing the turn.
func (uc *ChatUseCase) understand(ctx context.Context, question string, result *domain.TurnResult) domain.TurnPlan {
	plannerCtx, cancel := context.WithTimeout(ctx, uc.limits.PlannerTimeout)
	defer cancel()

	raw, err := uc.planner.PlanJSON(plannerCtx, buildUnderstandPrompt(question))
	if err != nil {
		result.FallbackReason = "planner_unavailable"
		return defaultTurnPlan(question)
	}
	plan, err := parseTurnPlan(raw)
	if err != nil {
		result.FallbackReason = "planner_invalid_json"
		return defaultTurnPlan(question)
	}
	return sanitizeTurnPlan(plan, question)
}

func (uc *ChatUseCase) runTool(ctx context.Context, tool, question string, paraphrases []string, result *domain.TurnResult) {
	toolCtx, cancel := context.WithTimeout(ctx, uc.limits.ToolTimeout)
	defer cancel()

	event, err := uc.executeTool(toolCtx, tool, question, paraphrases, &result.Evidence)
	if err != nil {
		event = domain.ToolEvent{Tool: tool, Status: "error", Error: err.Error()}
	}
	result.ToolEvents = append(result.ToolEvents, event)
	if event.Status != "error" {
		result.ToolsInvoked = append(result.ToolsInvoked, tool)
	}
}

func (uc *ChatUseCase) executeTool(ctx context.Context, tool, question string, paraphrases []string, evidence *domain.Evidence) (domain.ToolEvent, error) {
	switch tool {
	case domain.ToolAddResource:
		resource, err := uc.ingestor.Ingest(ctx, question)
		if err != nil {
			return domain.ToolEvent{}, fmt.Errorf("add resource: %w", err)
		}
		evidence.Ingested = resource
		payload, _ := json.Marshal(map[string]string{"resource_id": resource.ID, "status": "stored"})
		return domain.ToolEvent{Tool: tool, Status: "ok", Output: string(payload)}, nil

	case domain.ToolSemanticSearch:
		items, err := uc.retrieveForEvidence(ctx, paraphrases, evidence)
		if err != nil {
			return domain.ToolEvent{}, fmt.Errorf("semantic search: %w", err)
		}
		payload, _ := json.Marshal(map[string]int{"items": items})
		return domain.ToolEvent{Tool: tool, Status: "ok", Output: string(payload)}, nil

	case domain.ToolSongFilterSearch:
		query, err := uc.translator.Translate(ctx, question)
		if err != nil {
			// No structured filters available: fall back to semantic
			// recall rather than surfacing a query error.
			if domain.IsKind(err, domain.ErrMalformedPlan) {
				items, retrieveErr := uc.retrieveForEvidence(ctx, paraphrases, evidence)
				if retrieveErr != nil {
					return domain.ToolEvent{}, fmt.Errorf("song filter fallback: %w", retrieveErr)
				}
				payload, _ := json.Marshal(map[string]int{"items": items})
				return domain.ToolEvent{Tool: tool, Status: "fallback_semantic", Output: string(payload)}, nil
			}
			return domain.ToolEvent{}, fmt.Errorf("translate filters: %w", err)
		}
		rows, err := uc.songs.Search(ctx, query)
		if err != nil {
			return domain.ToolEvent{}, fmt.Errorf("search songs: %w", err)
		}
		evidence.Songs = append(evidence.Songs, rows...)
		payload, _ := json.Marshal(map[string]int{"songs": len(rows), "filters": len(query.Filters)})
		return domain.ToolEvent{Tool: tool, Status: "ok", Output: string(payload)}, nil

	default:
		return domain.ToolEvent{}, fmt.Errorf("unsupported tool: %s", tool)
	}
}

// retrieveForEvidence merges new hits into the turn's evidence. Dedupe is
// first-seen-wins on content across the whole turn, so two retrieval-backed
// tool calls cannot stack the same item twice.
func (uc *ChatUseCase) retrieveForEvidence(ctx context.Context, paraphrases []string, evidence *domain.Evidence) (int, error) {
	items, err := uc.retriever.Retrieve(ctx, paraphrases, uc.limits.RetrieveTopK)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]struct{}, len(evidence.Items))
	for _, item := range evidence.Items {
		seen[item.Content] = struct{}{}
	}
	added := 0
	for _, item := range items {
		if _, ok := seen[item.Content]; ok {
			continue
		}
		seen[item.Content] = struct{}{}
		evidence.Items = append(evidence.Items, item)
		added++
	}
	return added, nil
}

func latestUserMessage(messages []domain.ChatMessage) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if strings.EqualFold(strings.TrimSpace(messages[i].Role), "user") {
			content := strings.TrimSpace(messages[i].Content)
			if content != "" {
				return content, true
			}
		}
	}
	return "", false
}
