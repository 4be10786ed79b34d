package domain

import "time"

// Resource is one user-supplied unit of free-text knowledge. Content is
// immutable after ingestion.
type Resource struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EmbeddingChunk is a sub-span of a Resource together with its vector.
// Chunks are written in one batch at ingestion time and removed only by
// cascading deletion of the owning resource.
type EmbeddingChunk struct {
	ID         string    `json:"id"`
	ResourceID string    `json:"resource_id"`
	Index      int       `json:"index"`
	Content    string    `json:"content"`
	Vector     []float32 `json:"vector"`
}

// RetrievedItem is an ephemeral semantic search hit.
type RetrievedItem struct {
	ResourceID string  `json:"resource_id"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
}
