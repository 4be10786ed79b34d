package chunking

import (
	"strings"
	"testing"
)

func TestSplitEmptyInput(t *testing.T) {
	s := NewSplitter(100)
	if chunks := s.Split("   \n  "); chunks != nil {
		t.Fatalf("expected nil chunks for blank input, got %v", chunks)
	}
}

func TestSplitPacksSentencesUpToLimit(t *testing.T) {
	s := NewSplitter(40)
	chunks := s.Split("My favorite key is A minor. I also like jazz. Short one.")
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0] != "My favorite key is A minor." {
		t.Fatalf("unexpected first chunk: %q", chunks[0])
	}
	if chunks[1] != "I also like jazz. Short one." {
		t.Fatalf("unexpected second chunk: %q", chunks[1])
	}
}

func TestSplitDeterministic(t *testing.T) {
	s := NewSplitter(25)
	input := "One sentence here. Another sentence! A third? And a fourth one follows."
	first := s.Split(input)
	second := s.Split(input)
	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("chunk %d differs: %q vs %q", i, first[i], second[i])
		}
	}
}

func TestSplitHardWrapsOversizedSentence(t *testing.T) {
	s := NewSplitter(10)
	chunks := s.Split(strings.Repeat("a", 35))
	if len(chunks) < 3 {
		t.Fatalf("expected oversized sentence to wrap, got %v", chunks)
	}
	for _, chunk := range chunks {
		if len([]rune(chunk)) > 10 {
			t.Fatalf("chunk exceeds max chars: %q", chunk)
		}
	}
}

func TestSplitPacksMultibyteTextByRunes(t *testing.T) {
	s := NewSplitter(9)
	// Two 4-rune Cyrillic sentences plus the joining space fit exactly in 9
	// runes; byte counting would split them.
	chunks := s.Split("ааа. ббб.")
	if len(chunks) != 1 {
		t.Fatalf("expected one packed chunk, got %v", chunks)
	}
	if chunks[0] != "ааа. ббб." {
		t.Fatalf("unexpected chunk: %q", chunks[0])
	}
}

func TestSplitNewlineIsBoundary(t *testing.T) {
	s := NewSplitter(100)
	chunks := s.Split("line one without period\nline two")
	if len(chunks) != 1 {
		t.Fatalf("expected packed chunk, got %v", chunks)
	}
	if chunks[0] != "line one without period line two" {
		t.Fatalf("unexpected chunk: %q", chunks[0])
	}
}
