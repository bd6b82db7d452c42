// Package source loads review comments from export files. JSON review
// exports are the primary format, with a CSV fallback for spreadsheets.
package source

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vietddude/markerbridge/internal/core/domain"
)

// Load reads a comment export, picking the parser from the file
// extension. Anything that is not .csv is treated as JSON.
func Load(path string) ([]domain.Comment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read comment file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return ParseCSV(strings.NewReader(string(data)))
	}
	return ParseJSON(data)
}

// jsonExport covers the two shapes review tools emit: a bare array of
// comments, or an object wrapping the array.
type jsonExport struct {
	Comments []jsonComment `json:"comments"`
}

type jsonComment struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Name      string `json:"name"`
	Text      string `json:"text"`
	Body      string `json:"body"`
	Timecode  string `json:"timecode"`
	StartTime string `json:"start_time"`
	IsReply   bool   `json:"is_reply"`
	ParentID  string `json:"parent_id"`
}

func (c jsonComment) toDomain() domain.Comment {
	out := domain.Comment{
		ID:       c.ID,
		Author:   c.Author,
		Text:     c.Text,
		Timecode: c.Timecode,
		IsReply:  c.IsReply || c.ParentID != "",
	}
	if out.Author == "" {
		out.Author = c.Name
	}
	if out.Text == "" {
		out.Text = c.Body
	}
	if out.Timecode == "" {
		out.Timecode = c.StartTime
	}
	return out
}

// ParseJSON decodes a review export. Optional fields may be absent;
// only entries without any timecode are dropped.
func ParseJSON(data []byte) ([]domain.Comment, error) {
	var raw []jsonComment
	if err := json.Unmarshal(data, &raw); err != nil {
		var wrapped jsonExport
		if err2 := json.Unmarshal(data, &wrapped); err2 != nil {
			return nil, fmt.Errorf("failed to parse comment export: %w", err)
		}
		raw = wrapped.Comments
	}

	comments := make([]domain.Comment, 0, len(raw))
	for _, rc := range raw {
		c := rc.toDomain()
		if c.Timecode == "" {
			continue
		}
		comments = append(comments, c)
	}
	return comments, nil
}

// ParseCSV reads a header row and maps the recognized columns. Unknown
// columns are ignored, missing optional columns degrade to empty values.
func ParseCSV(r io.Reader) ([]domain.Comment, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	tcCol, ok := columnIndex(cols, "timecode", "start_time", "tc")
	if !ok {
		return nil, fmt.Errorf("csv export has no timecode column")
	}

	var comments []domain.Comment
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row: %w", err)
		}

		c := domain.Comment{
			ID:       field(record, cols, "id"),
			Author:   field(record, cols, "author", "name"),
			Text:     field(record, cols, "text", "comment", "body"),
			Timecode: fieldAt(record, tcCol),
		}
		if c.Timecode == "" {
			continue
		}
		switch strings.ToLower(field(record, cols, "is_reply", "reply")) {
		case "true", "yes", "1":
			c.IsReply = true
		}
		comments = append(comments, c)
	}
	return comments, nil
}

func columnIndex(cols map[string]int, names ...string) (int, bool) {
	for _, n := range names {
		if i, ok := cols[n]; ok {
			return i, true
		}
	}
	return 0, false
}

func field(record []string, cols map[string]int, names ...string) string {
	if i, ok := columnIndex(cols, names...); ok {
		return fieldAt(record, i)
	}
	return ""
}

func fieldAt(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
