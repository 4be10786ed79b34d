package catalogfile

import (
	"strings"
	"testing"
)

func TestParseCSVMapsAliasedColumns(t *testing.T) {
	const input = `song,artist,difficulty,genre,decade,mood,key,bpm,hdpiano_url
Clocks,Coldplay,intermediate,Rock,2000s,wistful,Eb,131,https://example.com/clocks
Let It Be,The Beatles,beginner,Rock,1970s,hopeful,C,72,
`
	parser := New()
	songs, err := parser.Parse("catalog.csv", strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(songs) != 2 {
		t.Fatalf("expected 2 songs, got %d", len(songs))
	}

	first := songs[0]
	if first.Title != "Clocks" || first.Artist != "Coldplay" {
		t.Fatalf("unexpected first row: %+v", first)
	}
	if first.Difficulty != "MEDIUM" {
		t.Fatalf("expected difficulty normalized to MEDIUM, got %s", first.Difficulty)
	}
	if first.TempoBPM != 131 {
		t.Fatalf("expected bpm alias mapped, got %d", first.TempoBPM)
	}
	if first.LessonURL != "https://example.com/clocks" {
		t.Fatalf("expected lesson url alias mapped, got %s", first.LessonURL)
	}
	if first.ID == "" || songs[1].ID == "" || first.ID == songs[1].ID {
		t.Fatalf("expected unique generated ids")
	}
}

func TestParseCSVRejectsInvalidTempo(t *testing.T) {
	const input = "title,artist,tempo_bpm\nClocks,Coldplay,fast\n"
	parser := New()
	if _, err := parser.Parse("catalog.csv", strings.NewReader(input)); err == nil {
		t.Fatal("expected error for non-numeric tempo")
	}
}

func TestParseCSVRequiresTitleAndArtist(t *testing.T) {
	const input = "title,artist\nClocks,\n"
	parser := New()
	if _, err := parser.Parse("catalog.csv", strings.NewReader(input)); err == nil {
		t.Fatal("expected error for missing artist")
	}
}

func TestParseRejectsUnknownFormat(t *testing.T) {
	parser := New()
	if _, err := parser.Parse("catalog.json", strings.NewReader("{}")); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseHeaderOnlyFileYieldsNoRows(t *testing.T) {
	parser := New()
	songs, err := parser.Parse("catalog.csv", strings.NewReader("title,artist\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(songs) != 0 {
		t.Fatalf("expected no rows, got %d", len(songs))
	}
}
