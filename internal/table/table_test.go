package table

import (
	"testing"

	"github.com/epicenter-sh/epicenter/internal/document"
	"github.com/epicenter-sh/epicenter/internal/schema"
)

func mustSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.New("notes",
		schema.ID("id"),
		schema.Text("body", schema.Nullable(false)),
		schema.Tags("labels", []string{"work", "home"}),
		schema.Integer("views", schema.Default(0)),
	)
	if err != nil {
		t.Fatalf("schema.New failed: %v", err)
	}
	return s
}

func TestUpsertCreatesThenMerges(t *testing.T) {
	s := mustSchema(t)
	doc := document.New()
	tbl := New(doc, s)

	if err := tbl.Upsert(schema.Row{"id": "n1", "body": "hello", "views": float64(0)}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if tbl.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", tbl.Count())
	}

	if err := tbl.Upsert(schema.Row{"id": "n1", "body": "hello world"}); err != nil {
		t.Fatalf("Upsert (merge) failed: %v", err)
	}
	res := tbl.Get("n1")
	if res.Status != StatusValid {
		t.Fatalf("status = %v, want valid (error=%+v)", res.Status, res.Error)
	}
	if res.Row["body"] != "hello world" {
		t.Fatalf("body = %v, want %q", res.Row["body"], "hello world")
	}
	if res.Row["views"] != float64(0) {
		t.Fatalf("views = %v, want 0 (untouched by partial upsert)", res.Row["views"])
	}
}

func TestUpdateIsNoOpWhenRowAbsent(t *testing.T) {
	s := mustSchema(t)
	doc := document.New()
	tbl := New(doc, s)

	if err := tbl.Update(schema.Row{"id": "missing", "body": "x"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if tbl.Has("missing") {
		t.Fatal("Update must never create an absent row")
	}
}

func TestDeleteAndCount(t *testing.T) {
	s := mustSchema(t)
	doc := document.New()
	tbl := New(doc, s)

	_ = tbl.Upsert(schema.Row{"id": "n1", "body": "a", "views": float64(0)})
	_ = tbl.Upsert(schema.Row{"id": "n2", "body": "b", "views": float64(0)})
	if tbl.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", tbl.Count())
	}
	if err := tbl.Delete("n1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if tbl.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", tbl.Count())
	}
	if tbl.Has("n1") {
		t.Fatal("n1 should have been deleted")
	}
}

func TestGetNotFound(t *testing.T) {
	s := mustSchema(t)
	doc := document.New()
	tbl := New(doc, s)

	res := tbl.Get("ghost")
	if res.Status != StatusNotFound {
		t.Fatalf("status = %v, want not_found", res.Status)
	}
}

func TestFilterSkipsInvalidRows(t *testing.T) {
	s := mustSchema(t)
	doc := document.New()
	tbl := New(doc, s)

	_ = tbl.Upsert(schema.Row{"id": "n1", "body": "keep me", "views": float64(0)})
	// n2 omits body, which is non-nullable with no default: invalid.
	_ = tbl.Upsert(schema.Row{"id": "n2", "views": float64(0)})

	valid := tbl.GetAllValid()
	if len(valid) != 1 || valid[0].ID != "n1" {
		t.Fatalf("GetAllValid() = %+v, want only n1", valid)
	}
	invalid := tbl.GetAllInvalid()
	if len(invalid) != 1 || invalid[0].ID != "n2" {
		t.Fatalf("GetAllInvalid() = %+v, want only n2", invalid)
	}

	found := tbl.Filter(func(row document.LiveRow) bool { return true })
	if len(found) != 1 {
		t.Fatalf("Filter matched %d rows, want 1 (invalid rows must be skipped)", len(found))
	}
}

func TestObserveFiresOnUpsertAndDelete(t *testing.T) {
	s := mustSchema(t)
	doc := document.New()
	tbl := New(doc, s)

	var added, deleted int
	unsub := tbl.Observe(document.Observer{
		OnAdd:    func(schema.ValidationResult) { added++ },
		OnDelete: func(string) { deleted++ },
	})
	defer unsub()

	_ = tbl.Upsert(schema.Row{"id": "n1", "body": "a", "views": float64(0)})
	_ = tbl.Delete("n1")

	if added != 1 {
		t.Fatalf("added = %d, want 1", added)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}
}
