package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/mkarpenko/songbrain/internal/core/domain"
)

type fakeRetrieveEmbedder struct {
	failQueries map[string]bool
}

func (f *fakeRetrieveEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("not used")
}

func (f *fakeRetrieveEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if f.failQueries[text] {
		return nil, errors.New("embed backend down")
	}
	return []float32{float32(len(text))}, nil
}

type fakeRetrieveVectorStore struct {
	byVector map[float32][]domain.RetrievedItem
	err      error
}

func (f *fakeRetrieveVectorStore) InsertBatch(context.Context, string, []domain.EmbeddingChunk) error {
	return errors.New("not used")
}

func (f *fakeRetrieveVectorStore) DeleteByResource(context.Context, string) error {
	return errors.New("not used")
}

func (f *fakeRetrieveVectorStore) NearestNeighbors(_ context.Context, vector []float32, _ int) ([]domain.RetrievedItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byVector[vector[0]], nil
}

func TestRetrieveMergesFirstSeenAcrossParaphrases(t *testing.T) {
	// Query lengths address the fake store: "aaaa" -> key 4, "bbbbb" -> key 5.
	store := &fakeRetrieveVectorStore{byVector: map[float32][]domain.RetrievedItem{
		4: {
			{ResourceID: "r1", Content: "cats purr", Score: 0.9},
			{ResourceID: "r2", Content: "dogs bark", Score: 0.8},
		},
		5: {
			{ResourceID: "r1", Content: "cats purr", Score: 0.99},
			{ResourceID: "r3", Content: "birds sing", Score: 0.7},
		},
	}}
	uc := NewRetrieveKnowledgeUseCase(&fakeRetrieveEmbedder{}, store)

	items, err := uc.Retrieve(context.Background(), []string{"aaaa", "bbbbb"}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 deduplicated items, got %d", len(items))
	}
	if items[0].Content != "cats purr" || items[0].Score != 0.9 {
		t.Fatalf("expected first occurrence kept even with lower score, got %+v", items[0])
	}
	if items[1].Content != "dogs bark" || items[2].Content != "birds sing" {
		t.Fatalf("unexpected merge order: %+v", items)
	}
}

func TestRetrieveToleratesPartialFailure(t *testing.T) {
	store := &fakeRetrieveVectorStore{byVector: map[float32][]domain.RetrievedItem{
		4: {{ResourceID: "r1", Content: "cats purr", Score: 0.9}},
	}}
	embedder := &fakeRetrieveEmbedder{failQueries: map[string]bool{"broken": true}}
	uc := NewRetrieveKnowledgeUseCase(embedder, store)

	items, err := uc.Retrieve(context.Background(), []string{"aaaa", "broken"}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected surviving paraphrase results, got %d items", len(items))
	}
}

func TestRetrieveFailsWhenAllParaphrasesFail(t *testing.T) {
	embedder := &fakeRetrieveEmbedder{failQueries: map[string]bool{"one": true, "two": true}}
	uc := NewRetrieveKnowledgeUseCase(embedder, &fakeRetrieveVectorStore{})

	_, err := uc.Retrieve(context.Background(), []string{"one", "two"}, 5)
	if !domain.IsKind(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestRetrieveRejectsEmptyParaphrases(t *testing.T) {
	uc := NewRetrieveKnowledgeUseCase(&fakeRetrieveEmbedder{}, &fakeRetrieveVectorStore{})

	_, err := uc.Retrieve(context.Background(), []string{"", "  "}, 5)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRetrieveCapsParaphraseCount(t *testing.T) {
	queries := sanitizeParaphrases([]string{"a", "b", "c", "d", "e"})
	if len(queries) != domain.MaxParaphrases {
		t.Fatalf("expected cap at %d paraphrases, got %d", domain.MaxParaphrases, len(queries))
	}
}
