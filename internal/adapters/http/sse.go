package httpadapter

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/mkarpenko/songbrain/internal/core/domain"
)

type streamEvent struct {
	ConversationID string   `json:"conversation_id,omitempty"`
	Tools          []string `json:"tools,omitempty"`
	Delta          string   `json:"delta,omitempty"`
	FallbackReason string   `json:"fallback_reason,omitempty"`
	Done           bool     `json:"done,omitempty"`
}

// streamTurnResult writes the finished turn as an SSE stream. The answer is
// only produced after all tool calls complete, so chunking here simulates
// token streaming without exposing intermediate tool output.
func streamTurnResult(w http.ResponseWriter, result *domain.TurnResult, chunkChars int) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusOK, result)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeEvent(w, flusher, streamEvent{
		ConversationID: result.ConversationID,
		Tools:          result.ToolsInvoked,
	})

	for _, part := range splitByRunes(result.Answer, chunkChars) {
		writeEvent(w, flusher, streamEvent{Delta: part})
	}

	writeEvent(w, flusher, streamEvent{
		Done:           true,
		FallbackReason: result.FallbackReason,
	})

	_, _ = io.WriteString(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, event streamEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return
	}
	flusher.Flush()
}

func splitByRunes(text string, chunkChars int) []string {
	if strings.TrimSpace(text) == "" {
		return []string{""}
	}
	if chunkChars <= 0 || utf8.RuneCountInString(text) <= chunkChars {
		return []string{text}
	}

	parts := make([]string, 0, utf8.RuneCountInString(text)/chunkChars+1)
	runes := []rune(text)
	for start := 0; start < len(runes); start += chunkChars {
		end := start + chunkChars
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}
