package ports

import (
	"context"
	"io"

	"github.com/mkarpenko/songbrain/internal/core/domain"
)

// ChatService is the inbound contract for one orchestrated assistant turn.
type ChatService interface {
	Complete(ctx context.Context, req domain.ChatRequest) (*domain.TurnResult, error)
}

// ResourceIngestor stores user-supplied knowledge in the knowledge base.
type ResourceIngestor interface {
	Ingest(ctx context.Context, content string) (*domain.Resource, error)
}

// FilterTranslator maps a free-text question to a validated song query.
type FilterTranslator interface {
	Translate(ctx context.Context, question string) (domain.SongQuery, error)
}

// SongSearcher executes a validated filter set against the song catalog.
type SongSearcher interface {
	Search(ctx context.Context, query domain.SongQuery) ([]domain.Song, error)
}

// KnowledgeRetriever runs semantic recall over the knowledge base.
type KnowledgeRetriever interface {
	Retrieve(ctx context.Context, paraphrases []string, topK int) ([]domain.RetrievedItem, error)
}

// CatalogImporter stages a catalog file for asynchronous import and runs a
// staged import on the worker side.
type CatalogImporter interface {
	Stage(ctx context.Context, filename string, body io.Reader) (string, error)
	Run(ctx context.Context, storageKey string) (int, error)
}
