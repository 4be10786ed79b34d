package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mkarpenko/songbrain/internal/core/domain"
)

func parseTurnPlan(raw string) (domain.TurnPlan, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.TurnPlan{}, fmt.Errorf("empty planner response")
	}
	var plan domain.TurnPlan
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &plan); err != nil {
		return domain.TurnPlan{}, fmt.Errorf("unmarshal planner json: %w", err)
	}
	return plan, nil
}

// sanitizeTurnPlan clamps the understanding artifact into executable shape:
// at most MaxParaphrases paraphrases (the question itself is always one of
// them), and an ordered de-duplicated tool list restricted to the known tool
// set. An empty tool list degrades to semantic retrieval.
func sanitizeTurnPlan(plan domain.TurnPlan, question string) domain.TurnPlan {
	out := domain.TurnPlan{}

	out.Paraphrases = append(out.Paraphrases, question)
	for _, p := range plan.Paraphrases {
		p = strings.TrimSpace(p)
		if p == "" || strings.EqualFold(p, question) {
			continue
		}
		out.Paraphrases = append(out.Paraphrases, p)
		if len(out.Paraphrases) == domain.MaxParaphrases {
			break
		}
	}

	seen := make(map[string]struct{}, len(plan.Tools))
	for _, tool := range plan.Tools {
		tool = strings.ToLower(strings.TrimSpace(tool))
		switch tool {
		case domain.ToolAddResource, domain.ToolSemanticSearch, domain.ToolSongFilterSearch:
		default:
			continue
		}
		if _, ok := seen[tool]; ok {
			continue
		}
		seen[tool] = struct{}{}
		out.Tools = append(out.Tools, tool)
	}
	if len(out.Tools) == 0 {
		out.Tools = []string{domain.ToolSemanticSearch}
	}

	return out
}

func defaultTurnPlan(question string) domain.TurnPlan {
	return domain.TurnPlan{
		Paraphrases: []string{question},
		Tools:       []string{domain.ToolSemanticSearch},
	}
}

func buildUnderstandPrompt(question string) string {
	return fmt.Sprintf(`You are the query-understanding component of a second-brain assistant.
The assistant has a personal knowledge base of short notes and a songs catalog
(title, artist, difficulty, genre, decade, mood, key, tempo_bpm).

Return ONLY a valid JSON object:
{"paraphrases":["...","..."],"tools":["..."]}

paraphrases: up to 3 concise rewordings of the user's message that could widen recall.
tools: the tools to call, in order, from this set:
- "add_resource": the message states a fact about the user unprompted (store it, do not search).
- "song_filter_search": the message asks about songs in the catalog (by artist, difficulty, genre, decade, mood, key or tempo).
- "semantic_search": any other question that should be answered from the knowledge base.

User message:
%s`, question)
}
