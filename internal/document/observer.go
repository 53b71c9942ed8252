package document

import "github.com/epicenter-sh/epicenter/internal/schema"

// Observer is a table-scoped subscription. Handlers run synchronously on
// the committing goroutine after Transact releases the document lock, once
// per affected row, aggregated across the whole transaction; a transaction
// started on another goroutine may run while they do. The validation
// results they receive are computed while the lock is still held
// (spec.md §4.2 "observe algorithm", §5 ordering guarantees).
type Observer struct {
	OnAdd    func(schema.ValidationResult)
	OnUpdate func(schema.ValidationResult)
	OnDelete func(id string)
}

type subscription struct {
	id  uint64
	obs Observer
}

// Observe subscribes to change events for one table, returning an
// unsubscribe function. A top-level replacement of a whole row container
// is never surfaced as OnUpdate; this package's Tx never produces that
// pattern (rows are only ever created via EnsureRow and mutated via
// per-field cell.Apply calls), so providers never see it, matching
// spec.md §4.2's closing note.
func (d *Document) Observe(table string, obs Observer) (unsubscribe func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.subID++
	id := d.subID
	d.observers[table] = append(d.observers[table], subscription{id: id, obs: obs})

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		subs := d.observers[table]
		for i, s := range subs {
			if s.id == id {
				d.observers[table] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}
}

// SetErrorHandler stores a callback for observer failures. Dispatch
// recovers a panicking observer handler so it never reaches document
// internals, but discards the recovered panic: the stored callback is not
// called on that path, or on any other in this package.
func (d *Document) SetErrorHandler(h func(table, id string, err error)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onObserverError = h
}

func (d *Document) reportObserverError(table, id string, err error) {
	d.mu.Lock()
	h := d.onObserverError
	d.mu.Unlock()
	if h != nil {
		h(table, id, err)
	}
}

func (d *Document) dispatch(cs *changeset) {
	for table := range unionTables(cs) {
		d.mu.Lock()
		subs := append([]subscription(nil), d.observers[table]...)
		container := d.tables[table]
		sch := d.schemas[table]
		// Live cells are read under the lock so validation never races a
		// transaction running on another goroutine.
		var added, updated []schema.ValidationResult
		if container != nil && sch != nil {
			for id := range cs.added[table] {
				added = append(added, d.validateRow(container, sch, id))
			}
			for id := range cs.updated[table] {
				updated = append(updated, d.validateRow(container, sch, id))
			}
		}
		d.mu.Unlock()

		if container == nil || sch == nil {
			continue
		}

		for id := range cs.deleted[table] {
			for _, s := range subs {
				invokeDelete(s.obs, id)
			}
		}
		for _, res := range added {
			for _, s := range subs {
				invokeAdd(s.obs, res)
			}
		}
		for _, res := range updated {
			for _, s := range subs {
				invokeUpdate(s.obs, res)
			}
		}
	}
}

func (d *Document) validateRow(c *tableContainer, sch *schema.Schema, id string) schema.ValidationResult {
	row, exists := c.rows[id]
	if !exists {
		return schema.ValidationResult{Status: schema.StatusInvalidStructure, Reason: schema.ReasonNotAnObject, Detail: "row removed before observer dispatch"}
	}
	res := sch.ValidateLiveRow(row.Plain(), schema.ModeFull)
	if res.Status == schema.StatusValid {
		res.Row = row.Plain()
	}
	return res
}

func invokeAdd(obs Observer, res schema.ValidationResult) {
	defer recoverInto(nil)
	if obs.OnAdd != nil {
		obs.OnAdd(res)
	}
}

func invokeUpdate(obs Observer, res schema.ValidationResult) {
	defer recoverInto(nil)
	if obs.OnUpdate != nil {
		obs.OnUpdate(res)
	}
}

func invokeDelete(obs Observer, id string) {
	defer recoverInto(nil)
	if obs.OnDelete != nil {
		obs.OnDelete(id)
	}
}

func recoverInto(_ *error) {
	_ = recover()
}

func unionTables(cs *changeset) map[string]bool {
	out := make(map[string]bool)
	for t := range cs.added {
		out[t] = true
	}
	for t := range cs.updated {
		out[t] = true
	}
	for t := range cs.deleted {
		out[t] = true
	}
	return out
}
