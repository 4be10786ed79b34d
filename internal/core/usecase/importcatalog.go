package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/mkarpenko/songbrain/internal/core/domain"
	"github.com/mkarpenko/songbrain/internal/core/ports"
)

// ImportCatalogUseCase moves catalog files through the two-phase import
// pipeline. Stage runs on the API side: it persists the raw file and emits a
// queue event. Run runs on the worker side: it parses the staged file and
// upserts its rows into the catalog.
type ImportCatalogUseCase struct {
	storage ports.ObjectStorage
	queue   ports.MessageQueue
	parser  ports.CatalogFileParser
	catalog ports.CatalogStore
}

func NewImportCatalogUseCase(
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
	parser ports.CatalogFileParser,
	catalog ports.CatalogStore,
) *ImportCatalogUseCase {
	return &ImportCatalogUseCase{
		storage: storage,
		queue:   queue,
		parser:  parser,
		catalog: catalog,
	}
}

func (uc *ImportCatalogUseCase) Stage(ctx context.Context, filename string, body io.Reader) (string, error) {
	storageKey := fmt.Sprintf("%s_%s", uuid.NewString(), sanitizeFilename(filename))

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return "", fmt.Errorf("save catalog file: %w", err)
	}
	if err := uc.queue.PublishCatalogImport(ctx, storageKey); err != nil {
		return "", fmt.Errorf("publish import event: %w", err)
	}
	return storageKey, nil
}

func (uc *ImportCatalogUseCase) Run(ctx context.Context, storageKey string) (int, error) {
	file, err := uc.storage.Open(ctx, storageKey)
	if err != nil {
		return 0, fmt.Errorf("open staged catalog file: %w", err)
	}
	defer file.Close()

	songs, err := uc.parser.Parse(storageKey, file)
	if err != nil {
		return 0, domain.WrapError(domain.ErrInvalidInput, "parse catalog file", err)
	}
	if len(songs) == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "parse catalog file", errors.New("no song rows found"))
	}

	count, err := uc.catalog.BulkUpsert(ctx, songs)
	if err != nil {
		return 0, fmt.Errorf("upsert catalog rows: %w", err)
	}
	return count, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "catalog.bin"
	}
	return base
}
