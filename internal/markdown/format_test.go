package markdown

import (
	"strings"
	"testing"

	"github.com/epicenter-sh/epicenter/internal/schema"
)

func mustSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.New("posts",
		schema.ID("id"),
		schema.Text("title"),
		schema.Tags("tags", []string{"x", "y", "tech", "personal"}),
	)
	if err != nil {
		t.Fatalf("schema.New failed: %v", err)
	}
	return s
}

func TestParseRoundTripsThroughRender(t *testing.T) {
	f := File{
		Frontmatter: map[string]any{"id": "a", "title": "Hi"},
		Body:        "some body text\n",
	}
	raw, err := Render(f)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	parsed, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if parsed.Body != f.Body {
		t.Fatalf("Body = %q, want %q", parsed.Body, f.Body)
	}
	if parsed.Frontmatter["title"] != "Hi" {
		t.Fatalf("frontmatter title = %v, want Hi", parsed.Frontmatter["title"])
	}
}

func TestParseRejectsMissingDelimiters(t *testing.T) {
	_, err := Parse([]byte("id: a\ntitle: Hi\n"))
	if err == nil {
		t.Fatal("expected error for missing delimiters")
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("---\nnot: [yaml\n---\n"))
	if err == nil {
		t.Fatal("expected error for malformed YAML frontmatter")
	}
}

func TestDefaultSerializeProducesIDDotMDFilename(t *testing.T) {
	s := mustSchema(t)
	row := schema.Row{"id": "a", "title": "Hi", "tags": []string{"x", "y"}}
	file, filename := DefaultSerialize(s, row)
	if filename != "a.md" {
		t.Fatalf("filename = %q, want a.md", filename)
	}
	if file.Frontmatter["title"] != "Hi" {
		t.Fatalf("frontmatter title = %v, want Hi", file.Frontmatter["title"])
	}
}

func TestDefaultDeserializeMergesIDFromFilename(t *testing.T) {
	s := mustSchema(t)
	f := File{Frontmatter: map[string]any{"title": "Hi", "tags": []any{"x"}}}
	row, err := DefaultDeserialize(s, f, "a.md")
	if err != nil {
		t.Fatalf("DefaultDeserialize failed: %v", err)
	}
	if row["id"] != "a" {
		t.Fatalf("id = %v, want a", row["id"])
	}
	if row["title"] != "Hi" {
		t.Fatalf("title = %v, want Hi", row["title"])
	}
}

func TestMarkdownRoundTripWritesExpectedFrontmatter(t *testing.T) {
	s := mustSchema(t)
	row := schema.Row{"id": "a", "title": "Hi", "tags": []string{"x", "y"}}
	file, _ := DefaultSerialize(s, row)
	raw, err := Render(file)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	out := string(raw)
	if !strings.HasPrefix(out, "---\n") {
		t.Fatalf("output does not start with delimiter: %q", out)
	}
	if !strings.Contains(out, "title: Hi") {
		t.Fatalf("output missing title field: %q", out)
	}
	if !strings.Contains(out, "- x") || !strings.Contains(out, "- y") {
		t.Fatalf("output missing tags sequence: %q", out)
	}
}
