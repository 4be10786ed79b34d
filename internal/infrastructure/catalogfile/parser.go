package catalogfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/mkarpenko/songbrain/internal/core/domain"
)

// Parser decodes staged catalog files into song rows. CSV and XLSX carry the
// same logical schema; the first row is the header and unknown columns are
// ignored.
type Parser struct{}

func New() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(filename string, r io.Reader) ([]domain.Song, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return parseCSV(r)
	case ".xlsx":
		return parseXLSX(r)
	default:
		return nil, fmt.Errorf("unsupported catalog format: %s", filepath.Ext(filename))
	}
}

func parseCSV(r io.Reader) ([]domain.Song, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rowsToSongs(records)
}

func parseXLSX(r io.Reader) ([]domain.Song, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx has no sheets")
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows: %w", err)
	}
	return rowsToSongs(rows)
}

// columnAliases maps header spellings seen in exported lesson catalogs onto
// the canonical schema.
var columnAliases = map[string]string{
	"song":         domain.FieldTitle,
	"song_title":   domain.FieldTitle,
	"tempo":        domain.FieldTempoBPM,
	"bpm":          domain.FieldTempoBPM,
	"hdpiano_path": "lesson_path",
	"hdpiano_url":  "lesson_url",
}

func rowsToSongs(rows [][]string) ([]domain.Song, error) {
	if len(rows) < 2 {
		return nil, nil
	}

	header := make([]string, len(rows[0]))
	for i, col := range rows[0] {
		name := strings.ToLower(strings.TrimSpace(col))
		if alias, ok := columnAliases[name]; ok {
			name = alias
		}
		header[i] = name
	}

	songs := make([]domain.Song, 0, len(rows)-1)
	for idx, row := range rows[1:] {
		song := domain.Song{ID: uuid.NewString()}
		for i, cell := range row {
			if i >= len(header) {
				break
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			switch header[i] {
			case domain.FieldTitle:
				song.Title = cell
			case domain.FieldArtist:
				song.Artist = cell
			case domain.FieldDifficulty:
				song.Difficulty = domain.NormalizeDifficulty(cell)
			case domain.FieldGenre:
				song.Genre = cell
			case domain.FieldDecade:
				song.Decade = cell
			case domain.FieldMood:
				song.Mood = cell
			case domain.FieldKey:
				song.Key = cell
			case domain.FieldTempoBPM:
				tempo, err := strconv.Atoi(cell)
				if err != nil {
					return nil, fmt.Errorf("row %d: invalid tempo %q", idx+2, cell)
				}
				song.TempoBPM = tempo
			case "lesson_path":
				song.LessonPath = cell
			case "lesson_url":
				song.LessonURL = cell
			}
		}
		if song.Title == "" || song.Artist == "" {
			return nil, fmt.Errorf("row %d: title and artist are required", idx+2)
		}
		songs = append(songs, song)
	}
	return songs, nil
}
