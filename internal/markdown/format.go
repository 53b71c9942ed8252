// Package markdown implements the markdown mirror provider (§4.6): a
// bidirectional projection of table rows to "<id>.md" files (YAML
// frontmatter + body), with loop prevention and filename tracking.
package markdown

import (
	"fmt"
	"strings"
	"time"

	goyaml "github.com/goccy/go-yaml"

	"github.com/epicenter-sh/epicenter/internal/schema"
)

const delimiter = "---"

// File is a parsed markdown file: YAML frontmatter plus the raw body that
// follows the closing delimiter.
type File struct {
	Frontmatter map[string]any
	Body        string
}

// Parse splits a markdown file into frontmatter and body (§4.6.2). The
// file must open with a line containing exactly "---", closed by another
// such line; everything after the second delimiter, including its
// leading newline, is the body verbatim.
func Parse(raw []byte) (File, error) {
	text := string(raw)
	lines := strings.SplitAfter(text, "\n")
	if len(lines) == 0 || strings.TrimRight(lines[0], "\r\n") != delimiter {
		return File{}, fmt.Errorf("epicenter/markdown: missing opening %q delimiter", delimiter)
	}

	closeIdx := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], "\r\n") == delimiter {
			closeIdx = i
			break
		}
	}
	if closeIdx == -1 {
		return File{}, fmt.Errorf("epicenter/markdown: missing closing %q delimiter", delimiter)
	}

	frontmatterText := strings.Join(lines[1:closeIdx], "")
	body := strings.Join(lines[closeIdx+1:], "")

	fm := map[string]any{}
	if strings.TrimSpace(frontmatterText) != "" {
		if err := goyaml.Unmarshal([]byte(frontmatterText), &fm); err != nil {
			return File{}, fmt.Errorf("epicenter/markdown: invalid YAML frontmatter: %w", err)
		}
	}
	return File{Frontmatter: fm, Body: body}, nil
}

// Render writes frontmatter and body back into the on-disk format.
func Render(f File) ([]byte, error) {
	fmYAML, err := goyaml.Marshal(f.Frontmatter)
	if err != nil {
		return nil, fmt.Errorf("epicenter/markdown: marshal frontmatter: %w", err)
	}
	var b strings.Builder
	b.WriteString(delimiter + "\n")
	b.Write(fmYAML)
	b.WriteString(delimiter + "\n")
	b.WriteString(f.Body)
	return []byte(b.String()), nil
}

// FrontmatterValue projects one cell's live (or serialized) value into its
// YAML frontmatter representation (§4.6.2).
func FrontmatterValue(col schema.Column, value any) any {
	if lv, ok := value.(schema.LiveValue); ok {
		value = lv.Plain()
	}
	switch col.Type {
	case schema.TypeDate:
		if t, ok := value.(time.Time); ok {
			return t.Format(time.RFC3339)
		}
		return value
	default:
		return value
	}
}

// DefaultSerialize implements the default per-row serializer (§4.6.1):
// every column goes to frontmatter, the body is empty, and the filename
// is "<id>.md".
func DefaultSerialize(s *schema.Schema, row schema.Row) (File, string) {
	fm := make(map[string]any, len(row))
	for _, col := range s.OrderedColumns() {
		v, present := row[col.Name]
		if !present {
			continue
		}
		fm[col.Name] = FrontmatterValue(col, v)
	}
	id, _ := row[s.IDColumn().Name].(string)
	return File{Frontmatter: fm, Body: ""}, id + ".md"
}

// DefaultDeserialize implements the default deserializer (§4.6.1): the id
// comes from the filename stem, merged with the frontmatter, then
// validated via the schema's serialized-row validator.
func DefaultDeserialize(s *schema.Schema, f File, filename string) (schema.Row, error) {
	stem := strings.TrimSuffix(filename, ".md")
	row := make(schema.Row, len(f.Frontmatter)+1)
	for k, v := range f.Frontmatter {
		row[k] = v
	}
	row[s.IDColumn().Name] = stem

	res := s.ValidateSerializedRow(row, schema.ModePartial)
	if res.Status != schema.StatusValid {
		return nil, fmt.Errorf("epicenter/markdown: %s: %s (%s)", res.Field, res.Detail, res.Reason)
	}
	return row, nil
}
