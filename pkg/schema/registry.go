package schema

import (
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/expr-lang/expr"
)

// Registry holds the declared kinds by name.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]*Kind
}

// NewRegistry creates a registry holding the given kinds.
func NewRegistry(kinds ...*Kind) (*Registry, error) {
	r := &Registry{kinds: make(map[string]*Kind)}
	for _, k := range kinds {
		if err := r.Register(k); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register validates a kind declaration, compiles its rules and adds it.
func (r *Registry) Register(k *Kind) error {
	if k == nil {
		return errors.New("kind cannot be nil")
	}
	if k.Name == "" {
		return errors.New("kind name cannot be empty")
	}
	if k.Label == "" {
		k.Label = LabelFor(k.Name)
	}

	seen := make(map[string]bool, len(k.Fields))
	for _, f := range k.Fields {
		if f.Name == "" {
			return errors.Newf("kind %q: field name cannot be empty", k.Name)
		}
		if seen[f.Name] {
			return errors.Newf("kind %q: duplicate field %q", k.Name, f.Name)
		}
		seen[f.Name] = true
		if f.Kind == FieldReference && f.Ref == "" {
			return errors.Newf("kind %q: reference field %q has no target kind", k.Name, f.Name)
		}
	}

	// Declared fields shadow expr builtins such as duration and len.
	env := make(map[string]interface{}, len(k.Fields))
	for _, f := range k.Fields {
		env[f.Name] = nil
	}
	for i := range k.Rules {
		rule := &k.Rules[i]
		program, err := expr.Compile(rule.Expr, expr.Env(env), expr.AllowUndefinedVariables(), expr.AsBool())
		if err != nil {
			return errors.Wrapf(err, "kind %q: compile rule %q", k.Name, rule.Expr)
		}
		rule.program = program
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.kinds[k.Name]; exists {
		return errors.Newf("kind %q already registered", k.Name)
	}
	r.kinds[k.Name] = k
	return nil
}

// Get returns the kind registered under name.
func (r *Registry) Get(name string) (*Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kinds[name]
	return k, ok
}

// Names returns all registered kind names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckReferences reports reference fields pointing at kinds that are not registered.
func (r *Registry) CheckReferences() error {
	for _, name := range r.Names() {
		k, _ := r.Get(name)
		for _, f := range k.Fields {
			if f.Kind != FieldReference {
				continue
			}
			if _, ok := r.Get(f.Ref); !ok {
				return errors.Newf("kind %q: field %q references unknown kind %q", k.Name, f.Name, f.Ref)
			}
		}
	}
	return nil
}
