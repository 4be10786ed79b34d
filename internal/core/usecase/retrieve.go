package usecase

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mkarpenko/songbrain/internal/core/domain"
	"github.com/mkarpenko/songbrain/internal/core/ports"
)

const defaultRetrieveTopK = 8

// RetrieveKnowledgeUseCase runs semantic recall for a small set of paraphrase
// queries. Searches fan out in parallel with no ordering dependency among
// them; results are kept slotted per paraphrase and merged afterwards in
// paraphrase order with first-seen-per-key deduplication. The merge is
// deterministic for a given paraphrase list but deliberately not
// score-optimal across paraphrases.
type RetrieveKnowledgeUseCase struct {
	embedder ports.Embedder
	vectors  ports.VectorStore
}

func NewRetrieveKnowledgeUseCase(embedder ports.Embedder, vectors ports.VectorStore) *RetrieveKnowledgeUseCase {
	return &RetrieveKnowledgeUseCase{embedder: embedder, vectors: vectors}
}

func (uc *RetrieveKnowledgeUseCase) Retrieve(ctx context.Context, paraphrases []string, topK int) ([]domain.RetrievedItem, error) {
	queries := sanitizeParaphrases(paraphrases)
	if len(queries) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "semantic retrieve", fmt.Errorf("at least one paraphrase query is required"))
	}
	if topK <= 0 {
		topK = defaultRetrieveTopK
	}

	perQuery := make([][]domain.RetrievedItem, len(queries))
	errs := make([]error, len(queries))

	g, groupCtx := errgroup.WithContext(ctx)
	for i, query := range queries {
		g.Go(func() error {
			vector, err := uc.embedder.EmbedQuery(groupCtx, query)
			if err != nil {
				errs[i] = fmt.Errorf("embed paraphrase %q: %w", query, err)
				return nil
			}
			items, err := uc.vectors.NearestNeighbors(groupCtx, vector, topK)
			if err != nil {
				errs[i] = fmt.Errorf("search paraphrase %q: %w", query, err)
				return nil
			}
			perQuery[i] = items
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	var firstErr error
	for _, err := range errs {
		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if failed == len(queries) {
		return nil, domain.WrapError(domain.ErrUpstreamUnavailable, "semantic retrieve", firstErr)
	}

	return mergeFirstSeen(perQuery), nil
}

// mergeFirstSeen concatenates per-paraphrase result lists in paraphrase
// order and keeps the first occurrence per content key. Later duplicates are
// dropped even when their similarity score is higher.
func mergeFirstSeen(perQuery [][]domain.RetrievedItem) []domain.RetrievedItem {
	seen := make(map[string]struct{})
	out := make([]domain.RetrievedItem, 0)
	for _, items := range perQuery {
		for _, item := range items {
			key := item.Content
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}

func sanitizeParaphrases(paraphrases []string) []string {
	out := make([]string, 0, domain.MaxParaphrases)
	for _, p := range paraphrases {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
		if len(out) == domain.MaxParaphrases {
			break
		}
	}
	return out
}
