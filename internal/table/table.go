// Package table implements the typed table helper: schema-scoped CRUD and
// observation over one table of a document.Document.
package table

import (
	"fmt"

	"github.com/epicenter-sh/epicenter/internal/cell"
	"github.com/epicenter-sh/epicenter/internal/document"
	"github.com/epicenter-sh/epicenter/internal/schema"
)

// RowStatus discriminates the outcome of a single-row query.
type RowStatus string

const (
	StatusValid    RowStatus = "valid"
	StatusInvalid  RowStatus = "invalid"
	StatusNotFound RowStatus = "not_found"
)

// RowResult is the envelope returned by get and the getAll family.
type RowResult struct {
	Status RowStatus
	ID     string
	Row    schema.Row
	Error  *schema.ValidationResult
}

// Table binds one document table to its schema and exposes the typed
// helper operations described in §4.2.
type Table struct {
	doc    *document.Document
	schema *schema.Schema
}

// New mounts the schema's table in doc if it is not mounted yet and binds
// a Table to it. Callers obtain
// Table instances through workspace assembly, never by constructing them
// ad hoc.
func New(doc *document.Document, s *schema.Schema) *Table {
	doc.EnsureTable(s)
	return &Table{doc: doc, schema: s}
}

// Name returns the bound table name.
func (t *Table) Name() string {
	return t.schema.TableName
}

func (t *Table) mergeRowInto(tx *document.Tx, id string, live document.LiveRow, row schema.Row) error {
	for _, col := range t.schema.OrderedColumns() {
		value, present := row[col.Name]
		if !present {
			continue
		}
		existing, ok := live[col.Name]
		if !ok {
			c, err := cell.New(col, value)
			if err != nil {
				return fmt.Errorf("epicenter/table %s: column %q: %w", t.schema.TableName, col.Name, err)
			}
			if err := tx.SetCell(t.schema.TableName, id, col.Name, c); err != nil {
				return err
			}
			continue
		}
		if err := cell.Apply(existing, col, value); err != nil {
			return fmt.Errorf("epicenter/table %s: column %q: %w", t.schema.TableName, col.Name, err)
		}
	}
	return nil
}

// Upsert creates the row if absent, otherwise diff-merges every submitted
// field into the existing live cells. Wrapped in a single transaction.
func (t *Table) Upsert(row schema.Row) error {
	id, err := t.rowID(row)
	if err != nil {
		return err
	}
	return t.doc.Transact(func(tx *document.Tx) error {
		live, _, err := tx.EnsureRow(t.schema.TableName, id)
		if err != nil {
			return err
		}
		if err := t.mergeRowInto(tx, id, live, row); err != nil {
			return err
		}
		tx.MarkFieldChanged(t.schema.TableName, id)
		return nil
	})
}

// UpsertMany upserts every row in a single transaction.
func (t *Table) UpsertMany(rows []schema.Row) error {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		id, err := t.rowID(r)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	return t.doc.Transact(func(tx *document.Tx) error {
		for i, row := range rows {
			live, _, err := tx.EnsureRow(t.schema.TableName, ids[i])
			if err != nil {
				return err
			}
			if err := t.mergeRowInto(tx, ids[i], live, row); err != nil {
				return err
			}
			tx.MarkFieldChanged(t.schema.TableName, ids[i])
		}
		return nil
	})
}

// Update diff-merges the submitted fields into an existing row. It never
// creates a row: a stale update against a row a peer already removed
// would otherwise resurrect a container and clobber concurrent history
// via last-writer-wins at the container key (§4.2).
func (t *Table) Update(partial schema.Row) error {
	id, err := t.rowID(partial)
	if err != nil {
		return err
	}
	return t.doc.Transact(func(tx *document.Tx) error {
		live, exists, err := tx.Row(t.schema.TableName, id)
		if err != nil {
			return err
		}
		if !exists {
			return nil
		}
		if err := t.mergeRowInto(tx, id, live, partial); err != nil {
			return err
		}
		tx.MarkFieldChanged(t.schema.TableName, id)
		return nil
	})
}

// UpdateMany applies Update semantics to every row in a single transaction.
func (t *Table) UpdateMany(rows []schema.Row) error {
	return t.doc.Transact(func(tx *document.Tx) error {
		for _, partial := range rows {
			id, err := t.rowID(partial)
			if err != nil {
				return err
			}
			live, exists, err := tx.Row(t.schema.TableName, id)
			if err != nil {
				return err
			}
			if !exists {
				continue
			}
			if err := t.mergeRowInto(tx, id, live, partial); err != nil {
				return err
			}
			tx.MarkFieldChanged(t.schema.TableName, id)
		}
		return nil
	})
}

// Delete removes a row. No-op if absent.
func (t *Table) Delete(id string) error {
	return t.doc.Transact(func(tx *document.Tx) error {
		_, err := tx.DeleteRow(t.schema.TableName, id)
		return err
	})
}

// DeleteMany removes every listed row in a single transaction.
func (t *Table) DeleteMany(ids []string) error {
	return t.doc.Transact(func(tx *document.Tx) error {
		for _, id := range ids {
			if _, err := tx.DeleteRow(t.schema.TableName, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// Clear empties the table.
func (t *Table) Clear() error {
	return t.doc.Transact(func(tx *document.Tx) error {
		return tx.Clear(t.schema.TableName)
	})
}

func (t *Table) rowID(row schema.Row) (string, error) {
	idName := t.schema.IDColumn().Name
	raw, ok := row[idName]
	if !ok {
		return "", fmt.Errorf("epicenter/table %s: row is missing id field %q", t.schema.TableName, idName)
	}
	id, ok := raw.(string)
	if !ok || id == "" {
		return "", fmt.Errorf("epicenter/table %s: id field %q must be a non-empty string", t.schema.TableName, idName)
	}
	return id, nil
}
