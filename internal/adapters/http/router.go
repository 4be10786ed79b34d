package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/mkarpenko/songbrain/internal/core/domain"
	"github.com/mkarpenko/songbrain/internal/core/ports"
	"github.com/mkarpenko/songbrain/internal/observability/metrics"
)

const serviceName = "api"

type Router struct {
	chat      ports.ChatService
	ingestor  ports.ResourceIngestor
	searcher  ports.SongSearcher
	importer  ports.CatalogImporter
	extractor ports.TextExtractor
	metrics   *metrics.HTTPServerMetrics
	options   Options
}

type Options struct {
	StreamChunkChars int
	RateLimitRPS     float64
	RateLimitBurst   int
	MaxConcurrent    int
}

func NewRouter(
	chat ports.ChatService,
	ingestor ports.ResourceIngestor,
	searcher ports.SongSearcher,
	importer ports.CatalogImporter,
	extractor ports.TextExtractor,
	serverMetrics *metrics.HTTPServerMetrics,
	options Options,
) *Router {
	if options.StreamChunkChars <= 0 {
		options.StreamChunkChars = 120
	}
	return &Router{
		chat:      chat,
		ingestor:  ingestor,
		searcher:  searcher,
		importer:  importer,
		extractor: extractor,
		metrics:   serverMetrics,
		options:   options,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/chat", rt.chatTurn)
	mux.HandleFunc("/v1/resources", rt.createResource)
	mux.HandleFunc("/v1/resources/files", rt.uploadResourceFile)
	mux.HandleFunc("/v1/songs/search", rt.searchSongs)
	mux.HandleFunc("/v1/catalog/imports", rt.stageCatalogImport)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = validationMiddleware(handler)
	if rt.options.RateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.options.RateLimitRPS, rt.options.RateLimitBurst)
	}
	if rt.options.MaxConcurrent > 0 {
		handler = backpressureMiddleware(handler, rt.options.MaxConcurrent, 50*time.Millisecond)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type chatTurnRequest struct {
	ConversationID string               `json:"conversation_id,omitempty"`
	Messages       []domain.ChatMessage `json:"messages"`
	Stream         *bool                `json:"stream,omitempty"`
}

func (rt *Router) chatTurn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req chatTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	start := time.Now()
	result, err := rt.chat.Complete(r.Context(), domain.ChatRequest{
		ConversationID: req.ConversationID,
		Messages:       req.Messages,
	})
	if err != nil {
		rt.recordTurn("error", start)
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	rt.recordTurnResult(result, start)

	if req.Stream != nil && !*req.Stream {
		writeJSON(w, http.StatusOK, result)
		return
	}
	streamTurnResult(w, result, rt.options.StreamChunkChars)
}

func (rt *Router) recordTurnResult(result *domain.TurnResult, start time.Time) {
	outcome := "answered"
	if result.Answer == domain.FallbackAnswer {
		outcome = "fallback"
	}
	rt.recordTurn(outcome, start)

	if rt.metrics == nil {
		return
	}
	for _, event := range result.ToolEvents {
		rt.metrics.RecordToolCall(serviceName, event.Tool, event.Status)
	}
	rt.metrics.RecordRetrievedItems(serviceName, len(result.Evidence.Items))
}

func (rt *Router) recordTurn(outcome string, start time.Time) {
	if rt.metrics != nil {
		rt.metrics.RecordChatTurn(serviceName, outcome, time.Since(start))
	}
}

type createResourceRequest struct {
	Content string `json:"content"`
}

func (rt *Router) createResource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req createResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	resource, err := rt.ingestor.Ingest(r.Context(), req.Content)
	if rt.metrics != nil {
		rt.metrics.RecordIngestion(serviceName, err)
	}
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, resource)
}

func (rt *Router) uploadResourceFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	text, err := rt.extractor.Extract(r.Context(), fileHeader.Filename, file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	resource, err := rt.ingestor.Ingest(r.Context(), text)
	if rt.metrics != nil {
		rt.metrics.RecordIngestion(serviceName, err)
	}
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, resource)
}

type songSearchRequest struct {
	Filters []struct {
		Field string `json:"field"`
		Match string `json:"match"`
		Value string `json:"value"`
	} `json:"filters"`
	SortBy    string `json:"sort_by,omitempty"`
	SortOrder string `json:"sort_order,omitempty"`
	Limit     *int   `json:"limit,omitempty"`
}

type songSearchResponse struct {
	Songs []domain.Song `json:"songs"`
	Count int           `json:"count"`
}

func (rt *Router) searchSongs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req songSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	query := domain.SongQuery{
		SortBy:    req.SortBy,
		SortOrder: domain.SortOrder(strings.ToLower(req.SortOrder)),
		Limit:     domain.DefaultSongLimit,
	}
	if req.Limit != nil {
		query.Limit = *req.Limit
	}
	for _, f := range req.Filters {
		query.Filters = append(query.Filters, domain.SongFilter{
			Field: f.Field,
			Match: domain.FilterMatch(strings.ToLower(f.Match)),
			Value: f.Value,
		})
	}

	songs, err := rt.searcher.Search(r.Context(), query)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordSongSearch(serviceName, len(songs))
	}
	writeJSON(w, http.StatusOK, songSearchResponse{Songs: songs, Count: len(songs)})
}

func (rt *Router) stageCatalogImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	storageKey, err := rt.importer.Stage(r.Context(), fileHeader.Filename, file)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"storage_key": storageKey,
		"status":      "queued",
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
