package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/mkarpenko/songbrain/internal/core/domain"
)

type fakeObjectStorage struct {
	savedKey  string
	savedBody string
	files     map[string]string
	saveErr   error
}

func (f *fakeObjectStorage) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	body, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.savedKey = key
	f.savedBody = string(body)
	return nil
}

func (f *fakeObjectStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	body, ok := f.files[key]
	if !ok {
		return nil, errors.New("file not found")
	}
	return io.NopCloser(bytes.NewBufferString(body)), nil
}

type fakeImportQueue struct {
	publishedKey string
	err          error
}

func (f *fakeImportQueue) PublishCatalogImport(_ context.Context, storageKey string) error {
	if f.err != nil {
		return f.err
	}
	f.publishedKey = storageKey
	return nil
}

func (f *fakeImportQueue) SubscribeCatalogImport(context.Context, func(context.Context, string) error) error {
	return errors.New("not used")
}

type fakeCatalogParser struct {
	songs []domain.Song
	err   error
}

func (f *fakeCatalogParser) Parse(string, io.Reader) ([]domain.Song, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.songs, nil
}

type fakeCatalogStore struct {
	upserted []domain.Song
	err      error
}

func (f *fakeCatalogStore) Query(context.Context, domain.SongQuery) ([]domain.Song, error) {
	return nil, errors.New("not used")
}

func (f *fakeCatalogStore) BulkUpsert(_ context.Context, songs []domain.Song) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.upserted = songs
	return len(songs), nil
}

func TestStageSavesFileAndPublishesEvent(t *testing.T) {
	storage := &fakeObjectStorage{}
	queue := &fakeImportQueue{}
	uc := NewImportCatalogUseCase(storage, queue, &fakeCatalogParser{}, &fakeCatalogStore{})

	key, err := uc.Stage(context.Background(), "my songs (2024).csv", strings.NewReader("title,artist"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(key, "_my_songs__2024_.csv") {
		t.Fatalf("expected sanitized key suffix, got %s", key)
	}
	if storage.savedBody != "title,artist" {
		t.Fatalf("expected raw body saved, got %q", storage.savedBody)
	}
	if queue.publishedKey != key {
		t.Fatalf("expected published key %s, got %s", key, queue.publishedKey)
	}
}

func TestStageFailsWhenPublishFails(t *testing.T) {
	queue := &fakeImportQueue{err: errors.New("nats down")}
	uc := NewImportCatalogUseCase(&fakeObjectStorage{}, queue, &fakeCatalogParser{}, &fakeCatalogStore{})

	if _, err := uc.Stage(context.Background(), "songs.csv", strings.NewReader("x")); err == nil {
		t.Fatal("expected error when queue publish fails")
	}
}

func TestRunParsesAndUpserts(t *testing.T) {
	storage := &fakeObjectStorage{files: map[string]string{"abc_songs.csv": "raw"}}
	parser := &fakeCatalogParser{songs: []domain.Song{
		{Title: "Let It Be", Artist: "The Beatles", Difficulty: "EASY"},
		{Title: "Clocks", Artist: "Coldplay", Difficulty: "MEDIUM"},
	}}
	store := &fakeCatalogStore{}
	uc := NewImportCatalogUseCase(storage, &fakeImportQueue{}, parser, store)

	count, err := uc.Run(context.Background(), "abc_songs.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 || len(store.upserted) != 2 {
		t.Fatalf("expected 2 rows upserted, got count=%d stored=%d", count, len(store.upserted))
	}
}

func TestRunRejectsEmptyCatalogFile(t *testing.T) {
	storage := &fakeObjectStorage{files: map[string]string{"abc_songs.csv": ""}}
	uc := NewImportCatalogUseCase(storage, &fakeImportQueue{}, &fakeCatalogParser{}, &fakeCatalogStore{})

	_, err := uc.Run(context.Background(), "abc_songs.csv")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
