package chunking

import (
	"strings"
	"unicode/utf8"
)

// Splitter cuts resource content on sentence boundaries and greedily packs
// sentences into chunks of at most MaxChars runes. Splitting is a pure
// function of the input text, so re-ingesting the same content always yields
// the same chunk set.
type Splitter struct {
	MaxChars int
}

func NewSplitter(maxChars int) *Splitter {
	if maxChars <= 0 {
		maxChars = 500
	}
	return &Splitter{MaxChars: maxChars}
}

func (s *Splitter) Split(text string) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	out := make([]string, 0, len(sentences))
	var b strings.Builder
	runeLen := 0
	for _, sentence := range sentences {
		sentenceLen := utf8.RuneCountInString(sentence)
		if runeLen > 0 && runeLen+1+sentenceLen > s.MaxChars {
			out = append(out, b.String())
			b.Reset()
			runeLen = 0
		}
		if runeLen > 0 {
			b.WriteByte(' ')
			runeLen++
		}
		b.WriteString(sentence)
		runeLen += sentenceLen

		// A single oversized sentence is hard-wrapped on rune boundaries.
		for runeLen > s.MaxChars {
			runes := []rune(b.String())
			out = append(out, strings.TrimSpace(string(runes[:s.MaxChars])))
			rest := strings.TrimSpace(string(runes[s.MaxChars:]))
			b.Reset()
			b.WriteString(rest)
			runeLen = utf8.RuneCountInString(rest)
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}

func splitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	out := make([]string, 0, 8)
	var b strings.Builder
	flush := func() {
		sentence := strings.TrimSpace(b.String())
		if sentence != "" {
			out = append(out, sentence)
		}
		b.Reset()
	}

	for _, r := range text {
		switch r {
		case '.', '!', '?':
			b.WriteRune(r)
			flush()
		case '\n':
			flush()
		default:
			b.WriteRune(r)
		}
	}
	flush()
	return out
}
