package table

import (
	"github.com/epicenter-sh/epicenter/internal/document"
	"github.com/epicenter-sh/epicenter/internal/schema"
)

// Get looks up a single row by id and validates it against the schema.
func (t *Table) Get(id string) RowResult {
	var result RowResult
	// Transact so the read observes a consistent snapshot even though no
	// write happens; mirrors how observers see rows mid-dispatch.
	_ = t.doc.Transact(func(tx *document.Tx) error {
		live, exists, err := tx.Row(t.schema.TableName, id)
		if err != nil {
			return err
		}
		if !exists {
			result = RowResult{Status: StatusNotFound, ID: id}
			return nil
		}
		result = t.validate(id, live)
		return nil
	})
	return result
}

// GetAll returns every row, valid or invalid, in no particular order.
func (t *Table) GetAll() []RowResult {
	var results []RowResult
	_ = t.doc.Transact(func(tx *document.Tx) error {
		for _, id := range t.liveIDs(tx) {
			live, _, err := tx.Row(t.schema.TableName, id)
			if err != nil {
				return err
			}
			results = append(results, t.validate(id, live))
		}
		return nil
	})
	return results
}

// GetAllValid returns only rows that currently pass schema validation.
func (t *Table) GetAllValid() []RowResult {
	return filterStatus(t.GetAll(), StatusValid)
}

// GetAllInvalid returns only rows that currently fail schema validation.
func (t *Table) GetAllInvalid() []RowResult {
	return filterStatus(t.GetAll(), StatusInvalid)
}

func filterStatus(all []RowResult, status RowStatus) []RowResult {
	out := make([]RowResult, 0, len(all))
	for _, r := range all {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

// Has reports whether a row with the given id exists, regardless of
// whether it currently validates.
func (t *Table) Has(id string) bool {
	found := false
	_ = t.doc.Transact(func(tx *document.Tx) error {
		_, exists, err := tx.Row(t.schema.TableName, id)
		if err != nil {
			return err
		}
		found = exists
		return nil
	})
	return found
}

// Count returns the number of rows currently in the table.
func (t *Table) Count() int {
	n := 0
	_ = t.doc.Transact(func(tx *document.Tx) error {
		n = len(t.liveIDs(tx))
		return nil
	})
	return n
}

// Filter returns every valid row whose live view satisfies pred.
// Invalid rows are skipped, matching §4.2.
func (t *Table) Filter(pred func(document.LiveRow) bool) []document.LiveRow {
	var out []document.LiveRow
	_ = t.doc.Transact(func(tx *document.Tx) error {
		for _, id := range t.liveIDs(tx) {
			live, _, err := tx.Row(t.schema.TableName, id)
			if err != nil {
				return err
			}
			if t.validate(id, live).Status != StatusValid {
				continue
			}
			if pred(live) {
				out = append(out, live)
			}
		}
		return nil
	})
	return out
}

// Find returns the first valid row whose live view satisfies pred.
func (t *Table) Find(pred func(document.LiveRow) bool) (document.LiveRow, bool) {
	var found document.LiveRow
	ok := false
	_ = t.doc.Transact(func(tx *document.Tx) error {
		for _, id := range t.liveIDs(tx) {
			live, _, err := tx.Row(t.schema.TableName, id)
			if err != nil {
				return err
			}
			if t.validate(id, live).Status != StatusValid {
				continue
			}
			if pred(live) {
				found, ok = live, true
				return nil
			}
		}
		return nil
	})
	return found, ok
}

// Observe subscribes to this table's change stream. See document.Observe
// for dispatch semantics.
func (t *Table) Observe(obs document.Observer) (unsubscribe func()) {
	return t.doc.Observe(t.schema.TableName, obs)
}

func (t *Table) validate(id string, live document.LiveRow) RowResult {
	res := t.schema.ValidateLiveRow(live.Plain(), schema.ModeFull)
	if res.Status == schema.StatusValid {
		return RowResult{Status: StatusValid, ID: id, Row: res.Row}
	}
	r := res
	return RowResult{Status: StatusInvalid, ID: id, Error: &r}
}

func (t *Table) liveIDs(tx *document.Tx) []string {
	return tx.RowIDs(t.schema.TableName)
}
