package ollama

import (
	"fmt"
	"strings"

	"github.com/mkarpenko/songbrain/internal/core/domain"
)

// buildAnswerPrompt renders the accumulated turn evidence into an
// answer-generation prompt. The model may only use what is listed here; when
// the evidence cannot answer the question it must emit the exact fallback
// sentence so the orchestrator's contract holds end to end.
func buildAnswerPrompt(question string, evidence domain.Evidence) string {
	var sb strings.Builder

	if evidence.Ingested != nil {
		sb.WriteString("Stored note (just saved for the user):\n")
		sb.WriteString(evidence.Ingested.Content)
		sb.WriteString("\n\n")
	}

	if len(evidence.Items) > 0 {
		sb.WriteString("Knowledge base passages:\n")
		for idx, item := range evidence.Items {
			fmt.Fprintf(&sb, "[%d] score=%.3f\n%s\n\n", idx+1, item.Score, item.Content)
		}
	}

	if len(evidence.Songs) > 0 {
		sb.WriteString("Catalog matches:\n")
		for idx, song := range evidence.Songs {
			fmt.Fprintf(&sb, "[%d] %q by %s", idx+1, song.Title, song.Artist)
			if song.Difficulty != "" {
				fmt.Fprintf(&sb, " difficulty=%s", song.Difficulty)
			}
			if song.Genre != "" {
				fmt.Fprintf(&sb, " genre=%s", song.Genre)
			}
			if song.Decade != "" {
				fmt.Fprintf(&sb, " decade=%s", song.Decade)
			}
			if song.Mood != "" {
				fmt.Fprintf(&sb, " mood=%s", song.Mood)
			}
			if song.Key != "" {
				fmt.Fprintf(&sb, " key=%s", song.Key)
			}
			if song.TempoBPM > 0 {
				fmt.Fprintf(&sb, " tempo=%dbpm", song.TempoBPM)
			}
			if song.LessonURL != "" {
				fmt.Fprintf(&sb, " lesson=%s", song.LessonURL)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return fmt.Sprintf(`You are a personal assistant. Answer the user's question using ONLY the evidence below.
If a note was just saved, acknowledge it briefly.
If the evidence is insufficient to answer, reply exactly: %s

Question:
%s

Evidence:
%s`, domain.FallbackAnswer, question, sb.String())
}
