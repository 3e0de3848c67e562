// Package params builds the merged parameter set for a create request by
// overlaying caller fields on a kind's default template.
package params

import (
	"github.com/samber/lo"

	"github.com/getmockd/billingmock/internal/id"
	"github.com/getmockd/billingmock/pkg/schema"
)

// Determinism controls whether locally derived identifiers are attached.
type Determinism string

const (
	// DeterminismLocal simulates realistic identifiers such as card fingerprints.
	DeterminismLocal Determinism = "local"
	// DeterminismPassthrough leaves derivation to a live backend.
	DeterminismPassthrough Determinism = "passthrough"
)

// FingerprintField is the key added to secret-bearing sub-objects.
const FingerprintField = "fingerprint"

// Normalizer merges caller parameters over per-kind templates.
type Normalizer struct {
	registry    *schema.Registry
	currency    string
	determinism Determinism
}

// New creates a normalizer. An empty currency leaves currency fields to the
// caller; an empty determinism means DeterminismLocal.
func New(registry *schema.Registry, currency string, determinism Determinism) *Normalizer {
	if determinism == "" {
		determinism = DeterminismLocal
	}
	return &Normalizer{registry: registry, currency: currency, determinism: determinism}
}

// Determinism returns the configured mode.
func (n *Normalizer) Determinism() Determinism {
	return n.determinism
}

// Template returns a fresh copy of kind's default template with currency
// fields resolved. Unknown kinds yield an empty template.
func (n *Normalizer) Template(kind string) schema.Params {
	k, ok := n.registry.Get(kind)
	if !ok {
		return schema.Params{}
	}
	out := schema.Clone(k.Template)
	if out == nil {
		out = schema.Params{}
	}
	if n.currency != "" {
		for i := range k.Fields {
			f := &k.Fields[i]
			if !f.Currency {
				continue
			}
			if _, set := out[f.Name]; !set {
				out[f.Name] = n.currency
			}
		}
	}
	return out
}

// Normalize overlays caller on the template of kind. Keys present in
// caller win even when their value is nil. In local mode, secret-bearing
// sub-objects get a derived fingerprint.
func (n *Normalizer) Normalize(kind string, caller map[string]interface{}) schema.Params {
	merged := Overlay(n.Template(kind), caller)
	if n.determinism != DeterminismLocal {
		return merged
	}
	if k, ok := n.registry.Get(kind); ok {
		for _, fp := range k.Fingerprints {
			attachFingerprint(merged, fp)
		}
	}
	return merged
}

// Overlay returns a copy of base with every key of overrides applied on top.
func Overlay(base, overrides map[string]interface{}) schema.Params {
	return lo.Assign(schema.Clone(base), schema.Clone(overrides))
}

func attachFingerprint(params schema.Params, fp schema.Fingerprint) {
	sub, ok := schema.AsMap(params[fp.Object])
	if !ok {
		return
	}
	src, ok := sub[fp.Source].(string)
	if !ok || src == "" {
		return
	}
	sub = schema.Clone(sub)
	sub[FingerprintField] = id.Fingerprint(src)
	params[fp.Object] = sub
}
