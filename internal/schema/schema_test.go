package schema

import "testing"

func TestNewRejectsBadNames(t *testing.T) {
	cases := []struct {
		name    string
		table   string
		columns []Column
	}{
		{"uppercase table", "Posts", []Column{ID("id")}},
		{"dollar-prefixed table", "$posts", []Column{ID("id")}},
		{"uppercase column", "posts", []Column{ID("id"), Text("Title")}},
		{"no id column", "posts", []Column{Text("title")}},
		{"two id columns", "posts", []Column{ID("id"), ID("other_id")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.table, tc.columns...); err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
		})
	}
}

func TestNewAcceptsValidSchema(t *testing.T) {
	s, err := New("posts",
		ID("id"),
		Text("title"),
		Text("content", Nullable(true)),
		Tags("tags", []string{"tech", "personal"}),
		Integer("views", Default(0)),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if s.TableName != "posts" {
		t.Errorf("TableName = %q, want posts", s.TableName)
	}
	if !s.Has("title") {
		t.Error("expected schema to have title column")
	}
	if len(s.OrderedColumns()) != 5 {
		t.Errorf("OrderedColumns len = %d, want 5", len(s.OrderedColumns()))
	}
}

func mustSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := New("posts",
		ID("id"),
		Text("title"),
		Text("content", Nullable(true)),
		Tags("tags", []string{"tech", "personal"}),
		Integer("views", Default(0)),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func TestValidateSerializedRowFull(t *testing.T) {
	s := mustSchema(t)

	row := Row{
		"id":      "p1",
		"title":   "Hello",
		"content": nil,
		"tags":    []string{"tech"},
		"views":   float64(0),
	}
	res := s.ValidateSerializedRow(row, ModeFull)
	if res.Status != StatusValid {
		t.Fatalf("expected valid, got %v (%s: %s)", res.Status, res.Reason, res.Detail)
	}

	badOption := Row{"id": "p2", "title": "Hi", "tags": []string{"unknown"}}
	res = s.ValidateSerializedRow(badOption, ModeFull)
	if res.Status != StatusSchemaMismatch || res.Reason != ReasonInvalidOption {
		t.Fatalf("expected invalid-option mismatch, got %+v", res)
	}

	missingRequired := Row{"id": "p3"}
	res = s.ValidateSerializedRow(missingRequired, ModeFull)
	if res.Status != StatusSchemaMismatch || res.Reason != ReasonMissingRequiredField {
		t.Fatalf("expected missing-required-field, got %+v", res)
	}
}

func TestValidatePartialRowOnlyRequiresID(t *testing.T) {
	s := mustSchema(t)
	res := s.ValidateSerializedRow(Row{"id": "p1", "views": float64(5)}, ModePartial)
	if res.Status != StatusValid {
		t.Fatalf("expected valid partial row, got %+v", res)
	}

	res = s.ValidateSerializedRow(Row{"title": "no id"}, ModePartial)
	if res.Status != StatusSchemaMismatch || res.Reason != ReasonMissingRequiredField {
		t.Fatalf("expected missing id, got %+v", res)
	}
}

func TestValidateIntegerRejectsFractional(t *testing.T) {
	s := mustSchema(t)
	res := s.ValidateSerializedRow(Row{"id": "p1", "views": 1.5}, ModePartial)
	if res.Status != StatusSchemaMismatch || res.Reason != ReasonTypeMismatch {
		t.Fatalf("expected type mismatch for fractional integer, got %+v", res)
	}
}
