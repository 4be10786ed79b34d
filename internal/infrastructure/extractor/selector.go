package extractor

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/mkarpenko/songbrain/internal/core/ports"
)

// Selector dispatches uploaded files to the extractor registered for their
// extension. Extensions are matched case-insensitively.
type Selector struct {
	byExt    map[string]ports.TextExtractor
	fallback ports.TextExtractor
}

// NewSelector builds a selector. The fallback handles files whose extension
// has no registered extractor; it may be nil, in which case such files are
// rejected.
func NewSelector(fallback ports.TextExtractor) *Selector {
	return &Selector{
		byExt:    make(map[string]ports.TextExtractor),
		fallback: fallback,
	}
}

func (s *Selector) Register(ext string, extractor ports.TextExtractor) {
	s.byExt[strings.ToLower(ext)] = extractor
}

func (s *Selector) Extract(ctx context.Context, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if extractor, ok := s.byExt[ext]; ok {
		return extractor.Extract(ctx, filename, r)
	}
	if s.fallback != nil {
		return s.fallback.Extract(ctx, filename, r)
	}
	return "", fmt.Errorf("unsupported file type: %s", ext)
}
