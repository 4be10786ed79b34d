package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mkarpenko/songbrain/internal/core/domain"
	"github.com/mkarpenko/songbrain/internal/core/ports"
)

// TranslateSongQueryUseCase maps a natural-language question onto the fixed
// catalog filter schema via the external planning function. Planner output is
// never trusted as directly executable: it is decoded into a strict shape and
// coerced field by field before anything reaches the query executor.
type TranslateSongQueryUseCase struct {
	planner ports.Planner
}

func NewTranslateSongQueryUseCase(planner ports.Planner) *TranslateSongQueryUseCase {
	return &TranslateSongQueryUseCase{planner: planner}
}

func (uc *TranslateSongQueryUseCase) Translate(ctx context.Context, question string) (domain.SongQuery, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.SongQuery{}, domain.WrapError(domain.ErrInvalidInput, "translate filters", fmt.Errorf("question is required"))
	}

	raw, err := uc.planner.PlanJSON(ctx, buildFilterPrompt(question))
	if err != nil {
		return domain.SongQuery{}, domain.WrapError(domain.ErrUpstreamUnavailable, "translate filters", err)
	}

	query, err := parseSongQueryPlan(raw)
	if err != nil {
		repaired, repairErr := uc.planner.PlanJSON(ctx, buildFilterRepairPrompt(raw))
		if repairErr != nil {
			return domain.SongQuery{}, domain.WrapError(domain.ErrMalformedPlan, "translate filters", err)
		}
		query, err = parseSongQueryPlan(repaired)
		if err != nil {
			return domain.SongQuery{}, domain.WrapError(domain.ErrMalformedPlan, "translate filters", err)
		}
	}

	return query, nil
}

type rawSongFilter struct {
	Field string `json:"field"`
	Match string `json:"match"`
	Value string `json:"value"`
}

type rawSongQueryPlan struct {
	Filters   []rawSongFilter `json:"filters"`
	SortBy    string          `json:"sort_by"`
	SortOrder string          `json:"sort_order"`
	Limit     *int            `json:"limit"`
}

func parseSongQueryPlan(raw string) (domain.SongQuery, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.SongQuery{}, fmt.Errorf("empty planner response")
	}

	var plan rawSongQueryPlan
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &plan); err != nil {
		return domain.SongQuery{}, fmt.Errorf("unmarshal planner json: %w", err)
	}

	query := domain.SongQuery{
		SortBy:    plan.SortBy,
		SortOrder: domain.SortOrder(strings.ToLower(strings.TrimSpace(plan.SortOrder))),
		Limit:     domain.DefaultSongLimit,
	}
	if plan.Limit != nil {
		query.Limit = *plan.Limit
	}
	for _, f := range plan.Filters {
		if strings.TrimSpace(f.Value) == "" {
			continue
		}
		query.Filters = append(query.Filters, domain.SongFilter{
			Field: f.Field,
			Match: domain.FilterMatch(strings.ToLower(strings.TrimSpace(f.Match))),
			Value: f.Value,
		})
	}

	return query.Normalize(), nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

func buildFilterPrompt(question string) string {
	return fmt.Sprintf(`You map a natural-language question to structured filters for a songs catalog.
Return ONLY a valid JSON object with this schema:
{"filters":[{"field":"...","match":"equals|contains","value":"..."}],"sort_by":"...","sort_order":"asc|desc","limit":20}

Rules:
- field must be one of: title, artist, difficulty, genre, decade, mood, key, tempo_bpm.
- Use match "equals" for exact category matches (difficulty, genre, decade), "contains" for substring text search (title, artist, mood).
- Map beginner/easy -> difficulty=EASY, medium -> MEDIUM, hard/advanced -> HARD.
- At most 4 filters. Omit sort_by, sort_order and limit unless the question asks for them.
- limit must be between 1 and 50.

Question:
%s`, question)
}

func buildFilterRepairPrompt(raw string) string {
	return fmt.Sprintf(`Convert the following text into a valid JSON object for this schema:
{"filters":[{"field":"...","match":"equals|contains","value":"..."}],"sort_by":"...","sort_order":"asc|desc","limit":20}
Return only JSON.
Text:
%s`, raw)
}
