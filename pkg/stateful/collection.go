package stateful

import (
	"github.com/getmockd/billingmock/pkg/schema"
)

// collection holds the live records of one kind in insertion order.
// It does no locking of its own; the Store mutex guards every access.
type collection struct {
	kind  *schema.Kind
	order []string
	items map[string]*Record
}

func newCollection(kind *schema.Kind) *collection {
	return &collection{
		kind:  kind,
		items: make(map[string]*Record),
	}
}

func (c *collection) get(id string) *Record {
	return c.items[id]
}

func (c *collection) exists(id string) bool {
	_, ok := c.items[id]
	return ok
}

func (c *collection) insert(r *Record) {
	c.items[r.ID] = r
	c.order = append(c.order, r.ID)
}

// insertAt puts r back at position pos in the insertion order.
func (c *collection) insertAt(r *Record, pos int) {
	if pos < 0 || pos > len(c.order) {
		pos = len(c.order)
	}
	c.items[r.ID] = r
	c.order = append(c.order, "")
	copy(c.order[pos+1:], c.order[pos:])
	c.order[pos] = r.ID
}

// remove deletes the record and returns it with its former position.
func (c *collection) remove(id string) (*Record, int) {
	r, ok := c.items[id]
	if !ok {
		return nil, -1
	}
	delete(c.items, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return r, i
		}
	}
	return r, -1
}

func (c *collection) records() []*Record {
	out := make([]*Record, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out
}

func (c *collection) count() int {
	return len(c.items)
}

func (c *collection) clear() int {
	n := len(c.items)
	c.items = make(map[string]*Record)
	c.order = nil
	return n
}
