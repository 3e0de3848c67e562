// Package id provides identifier and fingerprint generation for simulated resources.
//
// Generated resource identifiers follow the "test_<prefix>_<suffix>" shape so
// client code can tell a mocked object from a live one at a glance:
//
//   - Resource: prefixed, k-sortable ULID suffix (e.g. test_plan_01J9...)
//   - UUID: standard UUID v4 for request and idempotency keys
//   - Fingerprint: a stable, non-reversible digest of a secret sub-field
//     (card number, bank account number) so raw secrets are never stored
package id
