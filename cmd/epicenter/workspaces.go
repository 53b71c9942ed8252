package main

import (
	"github.com/google/uuid"

	"github.com/epicenter-sh/epicenter/internal/action"
	"github.com/epicenter-sh/epicenter/internal/markdown"
	"github.com/epicenter-sh/epicenter/internal/schema"
	"github.com/epicenter-sh/epicenter/internal/sqlindex"
	"github.com/epicenter-sh/epicenter/internal/workspace"
)

// notesSchema is the example schema this binary assembles: a single
// "posts" table, matching spec.md's blog happy-path walkthrough.
func notesSchema() *schema.Schema {
	s, err := schema.New("posts",
		schema.ID("id"),
		schema.Text("title"),
		schema.Text("content", schema.Nullable(true)),
		schema.Tags("tags", []string{"tech", "personal"}),
		schema.Integer("views", schema.Default(0)),
	)
	if err != nil {
		panic(err)
	}
	return s
}

// defaultConfigs returns the workspace configuration this binary
// assembles: one "notes" workspace, mirrored to markdown and to a SQL
// index, with a small actions tree over its single table.
func defaultConfigs() []workspace.Config {
	s := notesSchema()
	return []workspace.Config{
		{
			ID:      "notes",
			Schemas: []*schema.Schema{s},
			Providers: []workspace.ProviderConfig{
				{ID: "markdown", Provider: markdown.New(markdown.Config{})},
				{ID: "sqlindex", Provider: sqlindex.New(sqlindex.Config{})},
			},
			Actions: notesActions,
		},
	}
}

func notesActions(in workspace.ActionsInput) action.Namespace {
	posts := in.Tables["posts"]

	return action.Namespace{
		"posts": action.Namespace{
			"create": action.Mutation("create a post", func(input any) (any, error) {
				row, err := toRow(input)
				if err != nil {
					return nil, action.WrapErr(action.TagValidationError, "invalid input", err)
				}
				if _, ok := row["id"]; !ok {
					row["id"] = uuid.New().String()
				}
				if err := posts.Upsert(row); err != nil {
					return nil, action.WrapErr(action.TagEpicenterOperationError, "upsert failed", err)
				}
				return row, nil
			}),
			"update": action.Mutation("update a post", func(input any) (any, error) {
				row, err := toRow(input)
				if err != nil {
					return nil, action.WrapErr(action.TagValidationError, "invalid input", err)
				}
				if err := posts.Update(row); err != nil {
					return nil, action.WrapErr(action.TagEpicenterOperationError, "update failed", err)
				}
				return row, nil
			}),
			"list": action.Query("list every valid post", func(any) (any, error) {
				var rows []schema.Row
				for _, r := range posts.GetAllValid() {
					rows = append(rows, r.Row)
				}
				return rows, nil
			}),
		},
	}
}

func toRow(input any) (schema.Row, error) {
	if row, ok := input.(schema.Row); ok {
		return row, nil
	}
	if m, ok := input.(map[string]any); ok {
		return schema.Row(m), nil
	}
	return nil, action.NewErr(action.TagValidationError, "expected a row-shaped input", nil)
}
