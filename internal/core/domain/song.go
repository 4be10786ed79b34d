package domain

import "strings"

// Song is one catalog row. The catalog is seeded by import and read-only for
// the retrieval core.
type Song struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Difficulty string `json:"difficulty"`
	Genre      string `json:"genre"`
	Decade     string `json:"decade"`
	Mood       string `json:"mood,omitempty"`
	Key        string `json:"key,omitempty"`
	TempoBPM   int    `json:"tempo_bpm,omitempty"`
	LessonPath string `json:"lesson_path"`
	LessonURL  string `json:"lesson_url"`
}

type FilterMatch string

const (
	MatchEquals   FilterMatch = "equals"
	MatchContains FilterMatch = "contains"
)

// SongFilter is one field/match/value predicate against the catalog schema.
type SongFilter struct {
	Field string      `json:"field"`
	Match FilterMatch `json:"match"`
	Value string      `json:"value"`
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

const (
	FieldTitle      = "title"
	FieldArtist     = "artist"
	FieldDifficulty = "difficulty"
	FieldGenre      = "genre"
	FieldDecade     = "decade"
	FieldMood       = "mood"
	FieldKey        = "key"
	FieldTempoBPM   = "tempo_bpm"
)

const (
	MaxSongFilters   = 4
	DefaultSongLimit = 20
	MaxSongLimit     = 50
)

var filterableFields = map[string]struct{}{
	FieldTitle:      {},
	FieldArtist:     {},
	FieldDifficulty: {},
	FieldGenre:      {},
	FieldDecade:     {},
	FieldMood:       {},
	FieldKey:        {},
	FieldTempoBPM:   {},
}

var sortableFields = map[string]struct{}{
	FieldTitle:    {},
	FieldArtist:   {},
	FieldDecade:   {},
	FieldTempoBPM: {},
}

func IsFilterableField(field string) bool {
	_, ok := filterableFields[field]
	return ok
}

func IsSortableField(field string) bool {
	_, ok := sortableFields[field]
	return ok
}

// NormalizeDifficulty maps the planner vocabulary onto the catalog enum.
func NormalizeDifficulty(value string) string {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	switch normalized {
	case "BEGINNER", "EASY":
		return "EASY"
	case "MEDIUM", "INTERMEDIATE":
		return "MEDIUM"
	case "HARD", "ADVANCED":
		return "HARD"
	default:
		return normalized
	}
}

// SongQuery is a bounded, validated filter set plus optional sort and limit.
type SongQuery struct {
	Filters   []SongFilter `json:"filters"`
	SortBy    string       `json:"sort_by,omitempty"`
	SortOrder SortOrder    `json:"sort_order,omitempty"`
	Limit     int          `json:"limit,omitempty"`
}

// Normalize coerces a query into its executable form: unknown fields are
// dropped silently, the filter count is capped, difficulty filters become
// equality on the upper-cased trimmed value regardless of requested match
// mode, unknown sort columns are dropped, and the limit is clamped to
// [1, MaxSongLimit]. The clamp is a hard ceiling, not a hint. Callers that
// can distinguish an absent limit from an explicit one apply
// DefaultSongLimit before normalizing.
func (q SongQuery) Normalize() SongQuery {
	out := SongQuery{
		SortOrder: q.SortOrder,
		Limit:     q.Limit,
	}

	for _, f := range q.Filters {
		field := strings.ToLower(strings.TrimSpace(f.Field))
		if !IsFilterableField(field) {
			continue
		}
		filter := SongFilter{Field: field, Match: f.Match, Value: f.Value}
		if filter.Match != MatchContains {
			filter.Match = MatchEquals
		}
		if field == FieldDifficulty {
			filter.Match = MatchEquals
			filter.Value = NormalizeDifficulty(filter.Value)
		}
		out.Filters = append(out.Filters, filter)
		if len(out.Filters) == MaxSongFilters {
			break
		}
	}

	if sortBy := strings.ToLower(strings.TrimSpace(q.SortBy)); IsSortableField(sortBy) {
		out.SortBy = sortBy
	}
	if out.SortOrder != SortDesc {
		out.SortOrder = SortAsc
	}

	if out.Limit < 1 {
		out.Limit = 1
	}
	if out.Limit > MaxSongLimit {
		out.Limit = MaxSongLimit
	}

	return out
}
