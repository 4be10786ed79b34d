package usecase

import (
	"context"
	"fmt"

	"github.com/mkarpenko/songbrain/internal/core/domain"
	"github.com/mkarpenko/songbrain/internal/core/ports"
)

// SearchSongsUseCase executes a validated filter set against the catalog
// store. It is read-only; an empty filter set broadens to match-all, never to
// match-none, and a zero-row result is a valid outcome rather than an error.
type SearchSongsUseCase struct {
	catalog ports.CatalogStore
}

func NewSearchSongsUseCase(catalog ports.CatalogStore) *SearchSongsUseCase {
	return &SearchSongsUseCase{catalog: catalog}
}

func (uc *SearchSongsUseCase) Search(ctx context.Context, query domain.SongQuery) ([]domain.Song, error) {
	rows, err := uc.catalog.Query(ctx, query.Normalize())
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	return rows, nil
}
