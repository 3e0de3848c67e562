package stateful

import (
	"time"

	"github.com/getmockd/billingmock/internal/id"
	"github.com/getmockd/billingmock/pkg/schema"
)

// Tx is an open store transaction. It is only valid inside the function
// passed to Store.Tx and must not be retained.
type Tx struct {
	store   *Store
	started time.Time
	undo    []func()
	events  []Event
}

// Exists reports whether a live record of kind has the given id.
func (tx *Tx) Exists(kind, id string) bool {
	c, ok := tx.store.collections[kind]
	return ok && c.exists(id)
}

// Retrieve returns a copy of the record or a not-found error.
func (tx *Tx) Retrieve(kind, id string) (*Record, error) {
	c, err := tx.store.collection(kind)
	if err != nil {
		return nil, err
	}
	r := c.get(id)
	if r == nil {
		tx.record(OpRetrieve, kind, id, 0)
		return nil, NotFound(kind, id)
	}
	tx.record(OpRetrieve, kind, id, 1)
	return r.Clone(), nil
}

// Create stores a new record built from params. The id comes from params
// when present and is generated from the kind prefix otherwise. Inline
// reference objects are created first and replaced by their ids.
// Create does not validate; callers run validation in the same transaction.
func (tx *Tx) Create(kind string, params schema.Params) (*Record, error) {
	c, err := tx.store.collection(kind)
	if err != nil {
		return nil, err
	}

	rid, ok := schema.StringID(params[schema.IDField])
	if !ok {
		rid = id.Resource(c.kind.Prefix)
	}
	if c.exists(rid) {
		return nil, Duplicate(c.kind.Label, schema.IDField)
	}

	fields, err := tx.materialize(c.kind, params)
	if err != nil {
		return nil, err
	}

	rec := newRecord(kind, rid, fields, tx.store.now())
	c.insert(rec)
	tx.undo = append(tx.undo, func() { c.remove(rid) })
	tx.record(OpCreate, kind, rid, 1)

	tx.store.logger.Debug("record created", "kind", kind, "id", rid)
	return rec.Clone(), nil
}

// Update merges changed into the stored fields of an existing record.
// The id is never changed; an "id" key in changed is ignored.
func (tx *Tx) Update(kind, id string, changed schema.Params) (*Record, error) {
	c, err := tx.store.collection(kind)
	if err != nil {
		return nil, err
	}
	cur := c.get(id)
	if cur == nil {
		tx.record(OpUpdate, kind, id, 0)
		return nil, NotFound(kind, id)
	}

	changed = schema.Clone(changed)
	delete(changed, schema.IDField)
	fields, err := tx.materialize(c.kind, changed)
	if err != nil {
		return nil, err
	}

	prev := cur.Clone()
	for k, v := range fields {
		cur.Fields[k] = v
	}
	cur.Updated = tx.store.now()
	tx.undo = append(tx.undo, func() {
		cur.Fields = prev.Fields
		cur.Updated = prev.Updated
	})
	tx.record(OpUpdate, kind, id, 1)

	return cur.Clone(), nil
}

// Delete removes a record or returns a not-found error.
func (tx *Tx) Delete(kind, id string) error {
	c, err := tx.store.collection(kind)
	if err != nil {
		return err
	}
	r, pos := c.remove(id)
	if r == nil {
		tx.record(OpDelete, kind, id, 0)
		return NotFound(kind, id)
	}
	tx.undo = append(tx.undo, func() { c.insertAt(r, pos) })
	tx.record(OpDelete, kind, id, 1)
	return nil
}

// List returns one page of records of kind in insertion order.
func (tx *Tx) List(kind string, opts ListOptions) (*ListResult, error) {
	c, err := tx.store.collection(kind)
	if err != nil {
		return nil, err
	}

	matched := ApplyFilters(c.records(), opts.Filters)
	page, more, start := Paginate(matched, opts.StartingAfter, opts.Limit, tx.store.maxPageSize)
	if start < 0 {
		return nil, &RequestError{
			Type:    ErrorResourceNotFound,
			Message: "No such " + kind + ": " + opts.StartingAfter,
			Param:   "starting_after",
		}
	}

	data := make([]*Record, len(page))
	for i, r := range page {
		data[i] = r.Clone()
	}
	tx.record(OpList, kind, "", len(data))
	return &ListResult{Kind: kind, Data: data, HasMore: more, Total: len(matched)}, nil
}

// materialize creates the records behind inline reference objects and
// returns a copy of params with each inline object replaced by the new id.
func (tx *Tx) materialize(k *schema.Kind, params schema.Params) (schema.Params, error) {
	out := schema.Clone(params)
	for i := range k.Fields {
		f := &k.Fields[i]
		if f.Kind != schema.FieldReference || !f.Inline {
			continue
		}
		sub, ok := schema.AsMap(out[f.Name])
		if !ok {
			continue
		}
		ref, ok := tx.store.registry.Get(f.Ref)
		if !ok {
			return nil, UnknownKind(f.Ref)
		}
		child, err := tx.Create(ref.Name, ref.InlineParams(sub))
		if err != nil {
			return nil, err
		}
		out[f.Name] = child.ID
	}
	return out, nil
}

func (tx *Tx) record(op Op, kind, id string, count int) {
	tx.events = append(tx.events, Event{Op: op, Kind: kind, ID: id, Count: count})
}

func (tx *Tx) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
	tx.store.logger.Debug("transaction rolled back", "events", len(tx.events))
}

// finish stamps the collected events with the outcome. A failed
// transaction reports a single event carrying the error.
func (tx *Tx) finish(err error) []Event {
	d := time.Since(tx.started)
	if err != nil {
		ev := Event{Err: err, Duration: d}
		if len(tx.events) > 0 {
			last := tx.events[len(tx.events)-1]
			ev.Op, ev.Kind, ev.ID = last.Op, last.Kind, last.ID
		}
		return []Event{ev}
	}
	for i := range tx.events {
		tx.events[i].Duration = d
	}
	return tx.events
}
