package validation

import (
	"log/slog"

	"github.com/getmockd/billingmock/pkg/logging"
	"github.com/getmockd/billingmock/pkg/schema"
	"github.com/getmockd/billingmock/pkg/stateful"
)

// Reader answers existence questions against current store state.
// Both *stateful.Store and *stateful.Tx satisfy it.
type Reader interface {
	Exists(kind, id string) bool
}

// Engine validates parameters for the kinds of one registry.
type Engine struct {
	registry *schema.Registry
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logging.WithComponent(l, "validation")
	}
}

// New creates a validation engine for registry.
func New(registry *schema.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		logger:   logging.WithComponent(nil, "validation"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ValidateCreate checks merged create parameters for kind.
func (e *Engine) ValidateCreate(kind string, params schema.Params, r Reader) error {
	k, ok := e.registry.Get(kind)
	if !ok {
		return stateful.UnknownKind(kind)
	}
	if err := e.validateCreate(k, params, r, ""); err != nil {
		e.logger.Debug("create rejected", "kind", kind, "param", paramOf(err), "error", err)
		return err
	}
	return nil
}

// ValidateUpdate checks the changed fields of an update against the stored
// record. Only changed fields are type and reference checked; rules see the
// merged result. The id of a record can not be changed.
func (e *Engine) ValidateUpdate(kind string, existing *stateful.Record, changed schema.Params, r Reader) error {
	k, ok := e.registry.Get(kind)
	if !ok {
		return stateful.UnknownKind(kind)
	}
	if existing == nil {
		return stateful.NotFound(kind, "")
	}

	if v, present := changed[schema.IDField]; present {
		if s, _ := schema.StringID(v); s != existing.ID {
			return stateful.InvalidValue(schema.IDField, "Received unknown parameter: id")
		}
	}

	for i := range k.Fields {
		f := &k.Fields[i]
		v, present := changed[f.Name]
		if !present || f.Name == schema.IDField {
			continue
		}
		if v == nil {
			if f.Required {
				return stateful.MissingRequired(f.Name, f.Missing(f.Name))
			}
			continue
		}
		if err := checkField(f, f.Name, v); err != nil {
			return err
		}
	}

	merged := schema.Clone(existing.Fields)
	for key, v := range changed {
		merged[key] = schema.CloneValue(v)
	}
	if err := runRules(k, merged); err != nil {
		return err
	}

	for i := range k.Fields {
		f := &k.Fields[i]
		v, present := changed[f.Name]
		if !present || v == nil || f.Kind != schema.FieldReference {
			continue
		}
		if err := e.checkReference(f, f.Name, v, r); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) validateCreate(k *schema.Kind, params schema.Params, r Reader, prefix string) error {
	// 1. required fields
	for _, f := range k.RequiredFields() {
		if params[f.Name] == nil {
			path := schema.Path(prefix, f.Name)
			return stateful.MissingRequired(path, f.Missing(path))
		}
	}

	// 2. uniqueness
	if rid, ok := schema.StringID(params[schema.IDField]); ok && r != nil && r.Exists(k.Name, rid) {
		return stateful.Duplicate(k.Label, schema.Path(prefix, schema.IDField))
	}

	// 3. types, then rules
	for i := range k.Fields {
		f := &k.Fields[i]
		v := params[f.Name]
		// ids of any scalar type are stringified on insert
		if v == nil || f.Kind == schema.FieldReference || f.Name == schema.IDField {
			continue
		}
		if err := checkField(f, schema.Path(prefix, f.Name), v); err != nil {
			return err
		}
	}
	if err := runRules(k, params); err != nil {
		if re, ok := err.(*stateful.RequestError); ok && prefix != "" {
			re.Param = schema.Path(prefix, re.Param)
		}
		return err
	}

	// 4. references
	for i := range k.Fields {
		f := &k.Fields[i]
		v := params[f.Name]
		if v == nil || f.Kind != schema.FieldReference {
			continue
		}
		if err := e.checkReference(f, schema.Path(prefix, f.Name), v, r); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) checkReference(f *schema.Field, path string, v interface{}, r Reader) error {
	ref, ok := e.registry.Get(f.Ref)
	if !ok {
		return stateful.UnknownKind(f.Ref)
	}

	if sub, ok := schema.AsMap(v); ok {
		if !f.Inline {
			return stateful.InvalidValue(path, "Invalid "+f.Ref+": must be an id")
		}
		return e.validateCreate(ref, ref.InlineParams(sub), r, path)
	}

	rid, ok := schema.StringID(v)
	if !ok {
		return stateful.InvalidValue(path, "Invalid "+f.Ref+": must be an id")
	}
	if r == nil || !r.Exists(ref.Name, rid) {
		return stateful.Unresolved(path, ref.Name, rid)
	}
	return nil
}

func paramOf(err error) string {
	if re, ok := err.(*stateful.RequestError); ok {
		return re.Param
	}
	return ""
}
