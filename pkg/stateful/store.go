package stateful

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/getmockd/billingmock/pkg/logging"
	"github.com/getmockd/billingmock/pkg/schema"
)

// Store owns every simulated record for its lifetime. One mutex serializes
// all operations, so a transaction sees and mutates a consistent state
// across kinds.
type Store struct {
	mu          sync.Mutex
	registry    *schema.Registry
	collections map[string]*collection
	observer    Observer
	logger      *slog.Logger
	maxPageSize int
	now         func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithObserver sets the observer notified after each committed operation.
func WithObserver(o Observer) StoreOption {
	return func(s *Store) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logging.WithComponent(l, "store")
	}
}

// WithMaxPageSize caps every list page.
func WithMaxPageSize(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.maxPageSize = n
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates an empty store for the kinds in registry.
func NewStore(registry *schema.Registry, opts ...StoreOption) *Store {
	if registry == nil {
		panic("stateful.NewStore: registry must not be nil")
	}
	s := &Store{
		registry:    registry,
		collections: make(map[string]*collection),
		observer:    NoopObserver{},
		logger:      logging.WithComponent(nil, "store"),
		maxPageSize: DefaultMaxPageSize,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the kind registry the store was built with.
func (s *Store) Registry() *schema.Registry {
	return s.registry
}

// MaxPageSize returns the list page cap.
func (s *Store) MaxPageSize() int {
	return s.maxPageSize
}

// Tx runs fn with exclusive access to the store. If fn returns an error,
// every mutation fn made is undone before Tx returns, so no partial
// create or update is ever visible.
func (s *Store) Tx(fn func(tx *Tx) error) error {
	s.mu.Lock()
	tx := &Tx{store: s, started: s.now()}
	err := fn(tx)
	if err != nil {
		tx.rollback()
	}
	events := tx.finish(err)
	s.mu.Unlock()

	for _, ev := range events {
		s.observer.Observe(ev)
	}
	return err
}

// Create stores a record; see Tx.Create.
func (s *Store) Create(kind string, params schema.Params) (*Record, error) {
	var rec *Record
	err := s.Tx(func(tx *Tx) error {
		var err error
		rec, err = tx.Create(kind, params)
		return err
	})
	return rec, err
}

// Retrieve returns a copy of the record; see Tx.Retrieve.
func (s *Store) Retrieve(kind, id string) (*Record, error) {
	var rec *Record
	err := s.Tx(func(tx *Tx) error {
		var err error
		rec, err = tx.Retrieve(kind, id)
		return err
	})
	return rec, err
}

// Update merges changed fields into a record; see Tx.Update.
func (s *Store) Update(kind, id string, changed schema.Params) (*Record, error) {
	var rec *Record
	err := s.Tx(func(tx *Tx) error {
		var err error
		rec, err = tx.Update(kind, id, changed)
		return err
	})
	return rec, err
}

// Delete removes a record; see Tx.Delete.
func (s *Store) Delete(kind, id string) error {
	return s.Tx(func(tx *Tx) error {
		return tx.Delete(kind, id)
	})
}

// List returns one page of records; see Tx.List.
func (s *Store) List(kind string, opts ListOptions) (*ListResult, error) {
	var res *ListResult
	err := s.Tx(func(tx *Tx) error {
		var err error
		res, err = tx.List(kind, opts)
		return err
	})
	return res, err
}

// Exists reports whether a live record of kind has the given id.
func (s *Store) Exists(kind, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[kind]
	return ok && c.exists(id)
}

// Count returns the number of live records of kind.
func (s *Store) Count(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.collections[kind]; ok {
		return c.count()
	}
	return 0
}

// Kinds returns the kinds that currently hold records, sorted.
func (s *Store) Kinds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.collections))
	for name, c := range s.collections {
		if c.count() > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Clear removes every record of one kind and returns how many were removed.
func (s *Store) Clear(kind string) int {
	start := time.Now()
	s.mu.Lock()
	n := 0
	if c, ok := s.collections[kind]; ok {
		n = c.clear()
	}
	s.mu.Unlock()

	s.observer.Observe(Event{Op: OpReset, Kind: kind, Count: n, Duration: time.Since(start)})
	return n
}

// Reset removes every record of every kind.
func (s *Store) Reset() int {
	start := time.Now()
	s.mu.Lock()
	n := 0
	for _, c := range s.collections {
		n += c.count()
	}
	s.collections = make(map[string]*collection)
	s.mu.Unlock()

	s.logger.Debug("store reset", "removed", n)
	s.observer.Observe(Event{Op: OpReset, Count: n, Duration: time.Since(start)})
	return n
}

// Overview summarizes record counts per kind.
func (s *Store) Overview() *Overview {
	s.mu.Lock()
	defer s.mu.Unlock()

	ov := &Overview{Counts: make(map[string]int)}
	for name, c := range s.collections {
		if c.count() == 0 {
			continue
		}
		ov.Counts[name] = c.count()
		ov.TotalItems += c.count()
	}
	ov.Kinds = len(ov.Counts)
	return ov
}

// collection returns the collection for kind, creating it on first use.
// Callers must hold s.mu.
func (s *Store) collection(kind string) (*collection, error) {
	if c, ok := s.collections[kind]; ok {
		return c, nil
	}
	k, ok := s.registry.Get(kind)
	if !ok {
		return nil, UnknownKind(kind)
	}
	c := newCollection(k)
	s.collections[kind] = c
	return c, nil
}
