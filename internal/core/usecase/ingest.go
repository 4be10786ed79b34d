package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mkarpenko/songbrain/internal/core/domain"
	"github.com/mkarpenko/songbrain/internal/core/ports"
)

// IngestResourceUseCase turns one unit of user-supplied knowledge into an
// immutable resource with embedded chunks. The whole ingestion either fully
// commits or fully fails: embeddings are computed before anything is
// persisted, the resource and its chunks are written in one transaction, and
// a failed vector index write unwinds the committed rows so no
// resource-without-chunks state stays visible.
type IngestResourceUseCase struct {
	chunker   ports.Chunker
	embedder  ports.Embedder
	resources ports.ResourceStore
	vectors   ports.VectorStore
	embedDim  int
}

func NewIngestResourceUseCase(
	chunker ports.Chunker,
	embedder ports.Embedder,
	resources ports.ResourceStore,
	vectors ports.VectorStore,
	embedDim int,
) *IngestResourceUseCase {
	return &IngestResourceUseCase{
		chunker:   chunker,
		embedder:  embedder,
		resources: resources,
		vectors:   vectors,
		embedDim:  embedDim,
	}
}

func (uc *IngestResourceUseCase) Ingest(ctx context.Context, content string) (*domain.Resource, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest resource", fmt.Errorf("content is required"))
	}

	chunks := uc.chunker.Split(content)
	if len(chunks) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest resource", fmt.Errorf("chunking produced zero chunks"))
	}

	vectors, err := uc.embedder.Embed(ctx, chunks)
	if err != nil {
		return nil, domain.WrapError(domain.ErrIngestionFailed, "embed chunks", err)
	}
	if len(vectors) != len(chunks) {
		return nil, domain.WrapError(domain.ErrIngestionFailed, "embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)))
	}
	for i, vector := range vectors {
		if uc.embedDim > 0 && len(vector) != uc.embedDim {
			return nil, domain.WrapError(domain.ErrIngestionFailed, "embed chunks",
				fmt.Errorf("chunk %d: vector dimension %d, expected %d", i, len(vector), uc.embedDim))
		}
	}

	now := time.Now().UTC()
	resource := &domain.Resource{
		ID:        uuid.NewString(),
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	embedded := make([]domain.EmbeddingChunk, 0, len(chunks))
	for i, chunk := range chunks {
		embedded = append(embedded, domain.EmbeddingChunk{
			ID:         uuid.NewString(),
			ResourceID: resource.ID,
			Index:      i,
			Content:    chunk,
			Vector:     vectors[i],
		})
	}

	if err := uc.resources.CreateWithChunks(ctx, resource, embedded); err != nil {
		return nil, domain.WrapError(domain.ErrIngestionFailed, "persist resource", err)
	}

	if err := uc.vectors.InsertBatch(ctx, resource.ID, embedded); err != nil {
		uc.unwind(ctx, resource.ID)
		return nil, domain.WrapError(domain.ErrIngestionFailed, "index chunks", err)
	}

	return resource, nil
}

// unwind removes the committed rows and any partially written points after a
// failed index write. Best effort: the row delete cascades to chunks.
func (uc *IngestResourceUseCase) unwind(ctx context.Context, resourceID string) {
	if err := uc.vectors.DeleteByResource(ctx, resourceID); err != nil {
		slog.Warn("ingest_unwind_points_failed", "resource_id", resourceID, "error", err)
	}
	if err := uc.resources.Delete(ctx, resourceID); err != nil {
		slog.Warn("ingest_unwind_resource_failed", "resource_id", resourceID, "error", err)
	}
}
