package document

import "github.com/epicenter-sh/epicenter/internal/cell"

// changeset accumulates the rows touched by a transaction, per table, so
// multiple field edits to the same row collapse into one observer event
// (spec.md §4.2 "observer algorithm" / §8 testable property 5).
type changeset struct {
	added   map[string]map[string]bool
	updated map[string]map[string]bool
	deleted map[string]map[string]bool
}

func newChangeset() *changeset {
	return &changeset{
		added:   make(map[string]map[string]bool),
		updated: make(map[string]map[string]bool),
		deleted: make(map[string]map[string]bool),
	}
}

func (c *changeset) markAdded(table, id string) {
	if c.added[table] == nil {
		c.added[table] = make(map[string]bool)
	}
	c.added[table][id] = true
	// an add supersedes any update recorded earlier in the same tx for a
	// row that did not exist until this point.
	delete(c.updated[table], id)
}

func (c *changeset) markUpdated(table, id string) {
	if c.added[table][id] {
		return // already covered by the pending add
	}
	if c.updated[table] == nil {
		c.updated[table] = make(map[string]bool)
	}
	c.updated[table][id] = true
}

func (c *changeset) markDeleted(table, id string) {
	delete(c.added[table], id)
	delete(c.updated[table], id)
	if c.deleted[table] == nil {
		c.deleted[table] = make(map[string]bool)
	}
	c.deleted[table][id] = true
}

// Tx is the transaction handle passed to the function given to
// Document.Transact. Writes apply immediately (matching the synchronous
// local-apply behavior of CRDT libraries such as Yjs, which this
// implementation's cell diffing is modeled on — see internal/cell); the
// transaction boundary governs when coalesced observer events fire, not
// whether writes are buffered. Invariant 5's "all writes or none" is
// therefore a caller convention (validate before mutating) rather than a
// literal rollback, the same tradeoff real CRDT-backed documents make.
type Tx struct {
	doc *Document
	cs  *changeset
}

// EnsureRow returns the row's live cell map, creating an empty one (and
// recording an add) if the row does not yet exist.
func (tx *Tx) EnsureRow(table, id string) (LiveRow, bool, error) {
	c, err := tx.doc.container(table)
	if err != nil {
		return nil, false, err
	}
	row, exists := c.rows[id]
	if exists {
		return row, false, nil
	}
	row = make(LiveRow)
	c.rows[id] = row
	tx.cs.markAdded(table, id)
	return row, true, nil
}

// Row returns an existing row's live cells, or ok=false if absent.
func (tx *Tx) Row(table, id string) (LiveRow, bool, error) {
	c, err := tx.doc.container(table)
	if err != nil {
		return nil, false, err
	}
	row, exists := c.rows[id]
	return row, exists, nil
}

// MarkFieldChanged records that an existing row had one or more fields
// mutated in place. Safe to call multiple times per row per transaction;
// it collapses to a single onUpdate.
func (tx *Tx) MarkFieldChanged(table, id string) {
	tx.cs.markUpdated(table, id)
}

// DeleteRow removes a row if present, returning whether it existed.
func (tx *Tx) DeleteRow(table, id string) (bool, error) {
	c, err := tx.doc.container(table)
	if err != nil {
		return false, err
	}
	if _, exists := c.rows[id]; !exists {
		return false, nil
	}
	delete(c.rows, id)
	tx.cs.markDeleted(table, id)
	return true, nil
}

// RowIDs lists every row id currently stored in a table, in no particular
// order.
func (tx *Tx) RowIDs(table string) []string {
	c, err := tx.doc.container(table)
	if err != nil {
		return nil
	}
	ids := make([]string, 0, len(c.rows))
	for id := range c.rows {
		ids = append(ids, id)
	}
	return ids
}

// Clear empties a table, recording a delete for each row it held.
func (tx *Tx) Clear(table string) error {
	c, err := tx.doc.container(table)
	if err != nil {
		return err
	}
	for id := range c.rows {
		delete(c.rows, id)
		tx.cs.markDeleted(table, id)
	}
	return nil
}

// CellAt returns the live cell for (table, row, column), or nil if the row
// or cell is absent.
func (tx *Tx) CellAt(table, id, column string) (cell.Cell, error) {
	row, exists, err := tx.Row(table, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return row[column], nil
}

// SetCell installs or replaces the live cell at (table, row, column). Used
// by the table helper when a column's cell container doesn't exist yet.
func (tx *Tx) SetCell(table, id, column string, c cell.Cell) error {
	row, exists, err := tx.Row(table, id)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	row[column] = c
	return nil
}

// Transact groups writes under fn into one transaction, holding the
// document lock for the entire call so a second, concurrent Transact
// call on another goroutine genuinely blocks on the mutex instead of
// racing the first one's writes (spec.md §5, invariant 5). The only
// supported nesting is explicit: call tx.Transact from inside fn to reuse
// the current transaction's changeset on the same call stack. Calling
// Document.Transact again — even from code fn itself invokes — always
// takes its own lock and, if invoked from a different goroutine while
// this one is still in flight, blocks until it releases the mutex.
func (d *Document) Transact(fn func(tx *Tx) error) error {
	d.mu.Lock()
	cs := newChangeset()
	tx := &Tx{doc: d, cs: cs}

	err := fn(tx)

	d.mu.Unlock()
	d.dispatch(cs)
	return err
}

// Transact reuses this transaction's changeset and lock instead of
// starting a new one. Safe only when called from inside the fn passed to
// the Document.Transact call that produced tx — i.e. genuine same-stack
// nesting, such as a helper that wraps its own writes in a transaction
// and is itself called from within another transaction's fn. It never
// re-locks or re-dispatches, so the coalesced commit still only happens
// once, at the outermost Transact's return.
func (tx *Tx) Transact(fn func(tx *Tx) error) error {
	return fn(tx)
}
