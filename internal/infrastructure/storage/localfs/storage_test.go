package localfs

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestSaveThenOpenRoundtrip(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}

	ctx := context.Background()
	if err := storage.Save(ctx, "abc_catalog.csv", strings.NewReader("title,artist\n")); err != nil {
		t.Fatalf("save: %v", err)
	}

	f, err := storage.Open(ctx, "abc_catalog.csv")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(raw) != "title,artist\n" {
		t.Fatalf("unexpected content: %q", raw)
	}
}

func TestRejectsKeysThatEscapeBase(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}

	for _, key := range []string{"", "../escape", "nested/key", "/etc/passwd"} {
		if err := storage.Save(context.Background(), key, strings.NewReader("x")); err == nil {
			t.Fatalf("expected rejection for key %q", key)
		}
		if _, err := storage.Open(context.Background(), key); err == nil {
			t.Fatalf("expected open rejection for key %q", key)
		}
	}
}
