package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mkarpenko/songbrain/internal/config"
	"github.com/mkarpenko/songbrain/internal/core/domain"
	"github.com/mkarpenko/songbrain/internal/core/ports"
	"github.com/mkarpenko/songbrain/internal/core/usecase"
	"github.com/mkarpenko/songbrain/internal/infrastructure/catalogfile"
	"github.com/mkarpenko/songbrain/internal/infrastructure/chunking"
	"github.com/mkarpenko/songbrain/internal/infrastructure/extractor"
	pdfextractor "github.com/mkarpenko/songbrain/internal/infrastructure/extractor/pdf"
	"github.com/mkarpenko/songbrain/internal/infrastructure/extractor/plaintext"
	"github.com/mkarpenko/songbrain/internal/infrastructure/llm/ollama"
	"github.com/mkarpenko/songbrain/internal/infrastructure/queue/nats"
	"github.com/mkarpenko/songbrain/internal/infrastructure/repository/postgres"
	"github.com/mkarpenko/songbrain/internal/infrastructure/resilience"
	"github.com/mkarpenko/songbrain/internal/infrastructure/storage/localfs"
	"github.com/mkarpenko/songbrain/internal/infrastructure/vector/qdrant"
)

// App holds the wired application graph shared by the api, worker and mcp
// entrypoints.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue     ports.MessageQueue
	Extractor ports.TextExtractor

	ChatUC      ports.ChatService
	IngestUC    ports.ResourceIngestor
	RetrieveUC  ports.KnowledgeRetriever
	TranslateUC ports.FilterTranslator
	SearchUC    ports.SongSearcher
	ImportUC    ports.CatalogImporter

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	songRepo := postgres.NewSongRepository(db)
	if err := songRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure songs schema: %w", err)
	}
	resourceRepo := postgres.NewResourceRepository(db)
	if err := resourceRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure resources schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel)
	embedder := ollama.NewResilientEmbedder(ollama.NewEmbedder(ollamaClient), executor)
	planner := ollama.NewResilientPlanner(ollama.NewPlanner(ollamaClient), executor)
	generator := ollama.NewResilientGenerator(ollama.NewGenerator(ollamaClient), executor)

	vectors := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	chunker := chunking.NewSplitter(cfg.ChunkMaxChars)

	textExtractor := extractor.NewSelector(plaintext.New())
	textExtractor.Register(".pdf", pdfextractor.New())

	ingestUC := usecase.NewIngestResourceUseCase(chunker, embedder, resourceRepo, vectors, cfg.EmbedDim)
	retrieveUC := usecase.NewRetrieveKnowledgeUseCase(embedder, vectors)
	translateUC := usecase.NewTranslateSongQueryUseCase(planner)
	searchUC := usecase.NewSearchSongsUseCase(songRepo)
	importUC := usecase.NewImportCatalogUseCase(storage, queue, catalogfile.New(), songRepo)

	chatUC := usecase.NewChatUseCase(
		planner,
		translateUC,
		searchUC,
		retrieveUC,
		ingestUC,
		generator,
		domain.TurnLimits{
			Timeout:        time.Duration(cfg.TurnTimeoutSeconds) * time.Second,
			PlannerTimeout: time.Duration(cfg.PlannerTimeoutSecs) * time.Second,
			ToolTimeout:    time.Duration(cfg.ToolTimeoutSeconds) * time.Second,
			RetrieveTopK:   cfg.RetrieveTopK,
		},
	)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue:     queue,
		Extractor: textExtractor,

		ChatUC:      chatUC,
		IngestUC:    ingestUC,
		RetrieveUC:  retrieveUC,
		TranslateUC: translateUC,
		SearchUC:    searchUC,
		ImportUC:    importUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
