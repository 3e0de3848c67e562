// Package validation checks merged create and update parameters against a
// kind's declared schema before anything is written to the store.
//
// Checks run in a fixed order and stop at the first violation:
//
//  1. required fields, in declared order
//  2. uniqueness of a caller-supplied id
//  3. per-field type and enum checks, then cross-field rules
//  4. references to other kinds; inline reference objects are validated
//     recursively against the referenced kind
//
// Every failure is a *stateful.RequestError whose message matches what the
// real billing API returns for the same input.
package validation
