package schema

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Definition is the YAML/JSON form of a kind declaration.
//
//	kinds:
//	  - name: price
//	    prefix: price
//	    fields:
//	      - {name: unit_amount, type: integer, required: true}
//	      - {name: product, type: reference, ref: product, inline: true}
//	    template:
//	      unit_amount: 500
//	    rules:
//	      - expr: "unit_amount > 0"
//	        param: unit_amount
//	        message: "Invalid unit_amount: must be positive."
type Definition struct {
	Name           string                 `json:"name" yaml:"name" validate:"required"`
	Label          string                 `json:"label,omitempty" yaml:"label,omitempty"`
	Prefix         string                 `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Fields         []FieldDefinition      `json:"fields,omitempty" yaml:"fields,omitempty" validate:"dive"`
	Template       map[string]interface{} `json:"template,omitempty" yaml:"template,omitempty"`
	InlineDefaults map[string]interface{} `json:"inlineDefaults,omitempty" yaml:"inlineDefaults,omitempty"`
	Rules          []RuleDefinition       `json:"rules,omitempty" yaml:"rules,omitempty" validate:"dive"`
	Fingerprints   []Fingerprint          `json:"fingerprints,omitempty" yaml:"fingerprints,omitempty"`
}

// FieldDefinition is the YAML/JSON form of a Field.
type FieldDefinition struct {
	Name           string   `json:"name" yaml:"name" validate:"required"`
	Type           string   `json:"type,omitempty" yaml:"type,omitempty" validate:"omitempty,oneof=string integer number boolean object reference"`
	Required       bool     `json:"required,omitempty" yaml:"required,omitempty"`
	MissingMessage string   `json:"missingMessage,omitempty" yaml:"missingMessage,omitempty"`
	Enum           []string `json:"enum,omitempty" yaml:"enum,omitempty"`
	Ref            string   `json:"ref,omitempty" yaml:"ref,omitempty" validate:"required_if=Type reference"`
	Inline         bool     `json:"inline,omitempty" yaml:"inline,omitempty"`
	Currency       bool     `json:"currency,omitempty" yaml:"currency,omitempty"`
}

// RuleDefinition is the YAML/JSON form of a Rule.
type RuleDefinition struct {
	Expr    string `json:"expr" yaml:"expr" validate:"required"`
	Param   string `json:"param,omitempty" yaml:"param,omitempty"`
	Message string `json:"message" yaml:"message" validate:"required"`
}

// Kind converts the definition into a Kind ready for Register.
func (d *Definition) Kind() (*Kind, error) {
	if d == nil {
		return nil, errors.New("definition cannot be nil")
	}

	k := &Kind{
		Name:           d.Name,
		Label:          d.Label,
		Prefix:         d.Prefix,
		Template:       NormalizeYAML(d.Template),
		InlineDefaults: NormalizeYAML(d.InlineDefaults),
		Fingerprints:   d.Fingerprints,
	}
	if k.Template == nil {
		k.Template = Params{}
	}

	hasID := false
	for _, fd := range d.Fields {
		if fd.Name == IDField {
			hasID = true
		}
		k.Fields = append(k.Fields, Field{
			Name:           fd.Name,
			Kind:           FieldKind(fd.Type),
			Required:       fd.Required && fd.Name != IDField,
			MissingMessage: fd.MissingMessage,
			Enum:           fd.Enum,
			Ref:            fd.Ref,
			Inline:         fd.Inline,
			Currency:       fd.Currency,
		})
	}
	if !hasID {
		k.Fields = append([]Field{{Name: IDField, Kind: FieldString}}, k.Fields...)
	}

	for _, rd := range d.Rules {
		k.Rules = append(k.Rules, Rule{Expr: rd.Expr, Param: rd.Param, Message: rd.Message})
	}
	return k, nil
}

// NormalizeYAML converts map[interface{}]interface{} values produced by some
// decoders into string-keyed maps so records are uniform.
func NormalizeYAML(m map[string]interface{}) Params {
	if m == nil {
		return nil
	}
	out := make(Params, len(m))
	for k, v := range m {
		out[k] = normalizeYAMLValue(v)
	}
	return out
}

func normalizeYAMLValue(v interface{}) interface{} {
	switch tv := v.(type) {
	case map[string]interface{}:
		return NormalizeYAML(tv)
	case map[interface{}]interface{}:
		out := make(Params, len(tv))
		for k, e := range tv {
			out[fmt.Sprint(k)] = normalizeYAMLValue(e)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(tv))
		for i, e := range tv {
			out[i] = normalizeYAMLValue(e)
		}
		return out
	default:
		return v
	}
}
