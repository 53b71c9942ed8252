package main

import (
	"testing"

	"github.com/epicenter-sh/epicenter/internal/action"
	"github.com/epicenter-sh/epicenter/internal/document"
	"github.com/epicenter-sh/epicenter/internal/schema"
	"github.com/epicenter-sh/epicenter/internal/table"
	"github.com/epicenter-sh/epicenter/internal/workspace"
)

func mustPostsTable(t *testing.T) *table.Table {
	t.Helper()
	s := notesSchema()
	doc := document.New()
	return table.New(doc, s)
}

func TestPostsCreateGeneratesIDWhenAbsent(t *testing.T) {
	posts := mustPostsTable(t)
	tree := notesActions(workspace.ActionsInput{Tables: map[string]*table.Table{"posts": posts}})

	create := tree["posts"].(action.Namespace)["create"].(*action.Action)
	result := create.Invoke(map[string]any{"title": "Hello", "tags": []string{"tech"}})
	if result.Error() != nil {
		t.Fatalf("create failed: %v", result.Error())
	}
	data, _ := result.Data()
	row, ok := data.(schema.Row)
	if !ok {
		t.Fatalf("Data() = %T, want schema.Row", data)
	}
	id, _ := row["id"].(string)
	if id == "" {
		t.Fatal("expected a generated id, got empty string")
	}

	rows := posts.GetAllValid()
	if len(rows) != 1 || rows[0].ID != id {
		t.Fatalf("GetAllValid = %+v, want one row with id %q", rows, id)
	}
}

func TestPostsCreateKeepsSuppliedID(t *testing.T) {
	posts := mustPostsTable(t)
	tree := notesActions(workspace.ActionsInput{Tables: map[string]*table.Table{"posts": posts}})

	create := tree["posts"].(action.Namespace)["create"].(*action.Action)
	result := create.Invoke(map[string]any{"id": "p1", "title": "Hello", "tags": []string{"tech"}})
	if result.Error() != nil {
		t.Fatalf("create failed: %v", result.Error())
	}
	data, _ := result.Data()
	row := data.(schema.Row)
	if row["id"] != "p1" {
		t.Fatalf("id = %v, want p1 (caller-supplied id must not be overwritten)", row["id"])
	}
}
