package schema

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr/vm"
)

// Params is a field mapping as supplied by a caller or stored in a record.
// Values are strings, numbers, booleans, nil, nested Params/maps or slices.
type Params = map[string]interface{}

// IDField is the identifier field every kind shares.
const IDField = "id"

// FieldKind is the value type constraint declared for a field.
type FieldKind string

const (
	// FieldAny accepts any value.
	FieldAny FieldKind = ""
	// FieldString requires a string.
	FieldString FieldKind = "string"
	// FieldInteger requires a whole number (int types, whole floats or numeric strings).
	FieldInteger FieldKind = "integer"
	// FieldNumber requires any number.
	FieldNumber FieldKind = "number"
	// FieldBoolean requires a boolean.
	FieldBoolean FieldKind = "boolean"
	// FieldObject requires a nested mapping.
	FieldObject FieldKind = "object"
	// FieldReference requires an id of another kind, or an inline object when Inline is set.
	FieldReference FieldKind = "reference"
)

// DefaultMissingMessage is used when a required field has no custom message.
const DefaultMissingMessage = "Missing required param: %s."

// Field declares one field of a kind.
type Field struct {
	// Name is the field key.
	Name string
	// Kind constrains the value type.
	Kind FieldKind
	// Required fields must be present and non-nil on create.
	Required bool
	// MissingMessage overrides DefaultMissingMessage; %s is the field path.
	MissingMessage string
	// Enum lists the allowed literal values (compared as strings).
	Enum []string
	// Ref names the referenced kind for FieldReference.
	Ref string
	// Inline allows the reference to be given as an object that is created
	// as a side effect before the parent record.
	Inline bool
	// Currency marks a field that falls back to the process-wide default currency.
	Currency bool
}

// Missing renders the missing-field message for path.
func (f *Field) Missing(path string) string {
	msg := f.MissingMessage
	if msg == "" {
		msg = DefaultMissingMessage
	}
	return fmt.Sprintf(msg, path)
}

// Rule is a cross-field constraint written as an expr-lang boolean
// expression over the record's fields. Undefined fields evaluate to nil.
type Rule struct {
	Expr    string
	Param   string
	Message string

	program *vm.Program
}

// Program returns the compiled expression. It is nil until the owning kind is registered.
func (r *Rule) Program() *vm.Program {
	return r.program
}

// Fingerprint declares a secret-bearing sub-object whose identifying
// sub-field is replaced in spirit by a derived fingerprint.
type Fingerprint struct {
	// Object is the sub-object key (e.g. "card").
	Object string `json:"object" yaml:"object"`
	// Source is the identifying sub-field (e.g. "number").
	Source string `json:"source" yaml:"source"`
}

// Kind is the declared schema of one resource kind.
type Kind struct {
	// Name is the resource kind and the resource-name field for not-found errors (e.g. "plan").
	Name string
	// Label is the capitalized singular used in messages (e.g. "Plan").
	Label string
	// Prefix is used for generated identifiers (e.g. "prod" -> test_prod_...).
	Prefix string
	// Fields are declared in template order; required checks follow this order.
	Fields []Field
	// Template is the default parameter set used by the normalizer.
	Template Params
	// InlineDefaults are applied under an inline sub-object when this kind is
	// materialized as a side effect of creating another record.
	InlineDefaults Params
	// Rules run after per-field type checks, in declared order.
	Rules []Rule
	// Fingerprints lists secret sub-objects to fingerprint in local mode.
	Fingerprints []Fingerprint
}

// Field returns the declared field named name.
func (k *Kind) Field(name string) (*Field, bool) {
	for i := range k.Fields {
		if k.Fields[i].Name == name {
			return &k.Fields[i], true
		}
	}
	return nil, false
}

// RequiredFields returns the required fields in declared order.
func (k *Kind) RequiredFields() []*Field {
	var out []*Field
	for i := range k.Fields {
		if k.Fields[i].Required {
			out = append(out, &k.Fields[i])
		}
	}
	return out
}

// InlineParams overlays an inline sub-object onto the kind's inline defaults.
func (k *Kind) InlineParams(sub map[string]interface{}) Params {
	out := Clone(k.InlineDefaults)
	if out == nil {
		out = make(Params, len(sub))
	}
	for key, v := range sub {
		out[key] = CloneValue(v)
	}
	return out
}

// Path joins a parent path and a field the way the real API reports nested
// parameters: "" + "amount" -> "amount", "product" + "name" -> "product[name]".
func Path(parent, field string) string {
	if parent == "" {
		return field
	}
	return parent + "[" + field + "]"
}

// LabelFor derives a message label from a kind name ("bank_account" -> "Bank account").
func LabelFor(name string) string {
	if name == "" {
		return ""
	}
	s := strings.ReplaceAll(name, "_", " ")
	return strings.ToUpper(s[:1]) + s[1:]
}

// Clone deep-copies a field mapping so stored records never alias caller data.
func Clone(p map[string]interface{}) Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies nested maps and slices; scalars are returned as is.
func CloneValue(v interface{}) interface{} {
	switch tv := v.(type) {
	case map[string]interface{}:
		return Clone(tv)
	case []interface{}:
		out := make([]interface{}, len(tv))
		for i, e := range tv {
			out[i] = CloneValue(e)
		}
		return out
	case map[string]string:
		out := make(Params, len(tv))
		for k, s := range tv {
			out[k] = s
		}
		return out
	default:
		return v
	}
}

// AsMap returns v as a field mapping when it is one.
func AsMap(v interface{}) (map[string]interface{}, bool) {
	switch tv := v.(type) {
	case map[string]interface{}:
		return tv, true
	case map[string]string:
		return CloneValue(tv).(Params), true
	default:
		return nil, false
	}
}

// StringID renders an id value as a string. Non-string ids are formatted,
// nil and empty values report false.
func StringID(v interface{}) (string, bool) {
	switch tv := v.(type) {
	case nil:
		return "", false
	case string:
		return tv, tv != ""
	default:
		s := fmt.Sprint(tv)
		return s, s != ""
	}
}
