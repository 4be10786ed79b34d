package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRetrievalDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("RETRIEVE_TOP_K", "")
	t.Setenv("EMBED_DIM", "")
	t.Setenv("TURN_TIMEOUT_SECONDS", "")
	t.Setenv("NATS_SUBJECT", "")

	cfg := Load()
	if cfg.RetrieveTopK != 8 {
		t.Fatalf("expected default retrieve top k 8, got %d", cfg.RetrieveTopK)
	}
	if cfg.EmbedDim != 768 {
		t.Fatalf("expected default embed dim 768, got %d", cfg.EmbedDim)
	}
	if cfg.TurnTimeoutSeconds != 30 {
		t.Fatalf("expected default turn timeout 30, got %d", cfg.TurnTimeoutSeconds)
	}
	if cfg.NATSSubject != "catalog.imports" {
		t.Fatalf("expected default import subject, got %q", cfg.NATSSubject)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("RETRIEVE_TOP_K", "12")
	t.Setenv("EMBED_DIM", "1536")
	t.Setenv("API_RATE_LIMIT_RPS", "not-a-number")

	cfg := Load()
	if cfg.RetrieveTopK != 12 {
		t.Fatalf("expected retrieve top k override, got %d", cfg.RetrieveTopK)
	}
	if cfg.EmbedDim != 1536 {
		t.Fatalf("expected embed dim override, got %d", cfg.EmbedDim)
	}
	if cfg.APIRateLimitRPS != 20 {
		t.Fatalf("expected malformed rps to fall back to 20, got %d", cfg.APIRateLimitRPS)
	}
}

func TestLoadYAMLFileOverlayThenEnvWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := []byte("retrieve_top_k: 5\nqdrant_collection: yaml_chunks\n")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("RETRIEVE_TOP_K", "9")
	t.Setenv("QDRANT_COLLECTION", "")

	cfg := Load()
	if cfg.QdrantCollection != "yaml_chunks" {
		t.Fatalf("expected yaml collection, got %q", cfg.QdrantCollection)
	}
	if cfg.RetrieveTopK != 9 {
		t.Fatalf("expected env to win over yaml, got %d", cfg.RetrieveTopK)
	}
}
