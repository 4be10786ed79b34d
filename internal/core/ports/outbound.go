package ports

import (
	"context"
	"io"

	"github.com/mkarpenko/songbrain/internal/core/domain"
)

// CatalogStore reads the fixed-schema song catalog. The retrieval core never
// mutates it; BulkUpsert exists only for the import pipeline.
type CatalogStore interface {
	Query(ctx context.Context, query domain.SongQuery) ([]domain.Song, error)
	BulkUpsert(ctx context.Context, songs []domain.Song) (int, error)
}

// ResourceStore persists resources together with their embedding chunks.
// CreateWithChunks is atomic: either the resource and every chunk commit, or
// nothing does.
type ResourceStore interface {
	CreateWithChunks(ctx context.Context, resource *domain.Resource, chunks []domain.EmbeddingChunk) error
	Delete(ctx context.Context, resourceID string) error
}

// VectorStore indexes embedding chunks and performs nearest-neighbor search.
type VectorStore interface {
	InsertBatch(ctx context.Context, resourceID string, chunks []domain.EmbeddingChunk) error
	NearestNeighbors(ctx context.Context, vector []float32, k int) ([]domain.RetrievedItem, error)
	DeleteByResource(ctx context.Context, resourceID string) error
}

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Planner is the external planning function. PlanJSON must return a single
// JSON object; callers validate it against their own schema and never treat
// it as directly executable.
type Planner interface {
	PlanJSON(ctx context.Context, prompt string) (string, error)
}

// AnswerGenerator creates the final user-facing answer from accumulated
// evidence only.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, evidence domain.Evidence) (string, error)
	GenerateFromPrompt(ctx context.Context, prompt string) (string, error)
}

// Chunker splits resource content into retrievable chunks. Splitting must be
// deterministic for the same input.
type Chunker interface {
	Split(text string) []string
}

// ObjectStorage stores staged catalog files and uploaded resource files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes catalog import events.
type MessageQueue interface {
	PublishCatalogImport(ctx context.Context, storageKey string) error
	SubscribeCatalogImport(ctx context.Context, handler func(context.Context, string) error) error
}

// CatalogFileParser decodes a staged catalog file into songs.
type CatalogFileParser interface {
	Parse(filename string, r io.Reader) ([]domain.Song, error)
}

// TextExtractor extracts plain text from an uploaded resource file.
type TextExtractor interface {
	Extract(ctx context.Context, filename string, r io.Reader) (string, error)
}
