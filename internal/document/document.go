// Package document implements the document core: a map of tables-of-rows
// with a single transaction boundary and observer bus per workspace.
package document

import (
	"fmt"
	"sync"

	"github.com/epicenter-sh/epicenter/internal/cell"
	"github.com/epicenter-sh/epicenter/internal/schema"
)

// LiveRow is a row view whose collaborative columns are live cell.Cell
// objects rather than plain values.
type LiveRow map[string]cell.Cell

// Plain projects a LiveRow down to a schema.Row of plain values, the view
// validators and providers consume.
func (r LiveRow) Plain() schema.Row {
	out := make(schema.Row, len(r))
	for k, v := range r {
		out[k] = v.Plain()
	}
	return out
}

// tableContainer is the document's internal per-table storage: row id to
// live row. Never overwritten once mounted (§4.3 — important when
// reattaching to a document loaded from disk or received from a peer).
type tableContainer struct {
	rows map[string]LiveRow
}

// Document wraps the per-workspace table containers, the transaction
// primitive, and the observer bus. Exactly one Document exists per
// workspace at runtime (invariant 3 in spec.md §3).
type Document struct {
	mu              sync.Mutex
	tables          map[string]*tableContainer
	schemas         map[string]*schema.Schema
	observers       map[string][]subscription
	subID           uint64
	order           []string
	onObserverError func(table, id string, err error)
}

// New creates an empty document. Tables are mounted lazily via EnsureTable
// as workspace assembly builds the table layer.
func New() *Document {
	return &Document{
		tables:    make(map[string]*tableContainer),
		schemas:   make(map[string]*schema.Schema),
		observers: make(map[string][]subscription),
	}
}

// EnsureTable mounts a table container for the given schema if one is not
// already present. It never overwrites an existing container.
func (d *Document) EnsureTable(s *schema.Schema) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.tables[s.TableName]; exists {
		return
	}
	d.tables[s.TableName] = &tableContainer{rows: make(map[string]LiveRow)}
	d.schemas[s.TableName] = s
	d.order = append(d.order, s.TableName)
}

// TableNames returns mounted table names in mount order.
func (d *Document) TableNames() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.order...)
}

func (d *Document) container(table string) (*tableContainer, error) {
	c, ok := d.tables[table]
	if !ok {
		return nil, fmt.Errorf("epicenter/document: unknown table %q", table)
	}
	return c, nil
}

// ClearAll empties every table inside a single transaction.
func (d *Document) ClearAll() error {
	return d.Transact(func(tx *Tx) error {
		for name := range d.tables {
			if err := tx.Clear(name); err != nil {
				return err
			}
		}
		return nil
	})
}
