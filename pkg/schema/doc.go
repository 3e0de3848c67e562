// Package schema declares the resource kinds the simulator knows about.
//
// A Kind is static configuration: its default template, the declared order of
// required fields, per-field type constraints, enum choices, cross-references
// to other kinds and optional expression rules. Nothing here is mutated at
// runtime; the store, normalizer and validation engine all read the same
// Registry so adding a kind never needs per-kind Go code.
//
// Built-in kinds cover the billing objects exercised by client code (plan,
// product, coupon, customer, token and the card/bank_account sub-objects).
// Additional kinds can be declared in YAML through Definition.
package schema
