package domain

import "time"

const (
	ToolAddResource      = "add_resource"
	ToolSemanticSearch   = "semantic_search"
	ToolSongFilterSearch = "song_filter_search"
)

// FallbackAnswer is the fixed terminal answer when no tool produced evidence.
const FallbackAnswer = "Sorry, I don't know."

const MaxParaphrases = 3

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	ConversationID string        `json:"conversation_id,omitempty"`
	Messages       []ChatMessage `json:"messages"`
}

// TurnPlan is the mandatory query-understanding artifact produced before any
// retrieval call: a small set of paraphrase queries plus the intended tool
// order for the turn.
type TurnPlan struct {
	Paraphrases []string `json:"paraphrases"`
	Tools       []string `json:"tools"`
}

// Evidence accumulates tool outputs over one turn. It is handed by value to
// the answer-generation step once all planned tool calls complete.
type Evidence struct {
	Items    []RetrievedItem `json:"items,omitempty"`
	Songs    []Song          `json:"songs,omitempty"`
	Ingested *Resource       `json:"ingested,omitempty"`
}

// Empty reports whether no tool produced any usable evidence.
func (e Evidence) Empty() bool {
	return len(e.Items) == 0 && len(e.Songs) == 0 && e.Ingested == nil
}

type ToolEvent struct {
	Tool   string `json:"tool"`
	Status string `json:"status"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

type TurnResult struct {
	ConversationID string      `json:"conversation_id"`
	Answer         string      `json:"answer"`
	Plan           TurnPlan    `json:"plan"`
	Evidence       Evidence    `json:"evidence"`
	ToolsInvoked   []string    `json:"tools_invoked,omitempty"`
	ToolEvents     []ToolEvent `json:"tool_events,omitempty"`
	FallbackReason string      `json:"fallback_reason,omitempty"`
}

// TurnLimits bounds one chat turn.
type TurnLimits struct {
	Timeout        time.Duration `json:"timeout"`
	PlannerTimeout time.Duration `json:"planner_timeout"`
	ToolTimeout    time.Duration `json:"tool_timeout"`
	RetrieveTopK   int           `json:"retrieve_top_k"`
}
