// Package stateful holds the in-memory record store of the billing mock.
//
// Records are grouped by kind and kept in insertion order, so lists are
// stable and paginate with a starting_after cursor. Every operation runs
// under one store-wide mutex; Store.Tx exposes that lock to callers that
// need to validate and write atomically:
//
//	err := store.Tx(func(tx *stateful.Tx) error {
//	    if err := engine.ValidateCreate(kind, params, tx); err != nil {
//	        return err
//	    }
//	    _, err := tx.Create("plan", params)
//	    return err
//	})
//
// A failed transaction is rolled back in full, including records created
// for inline references.
//
// Errors returned by the store and by the validation engine are
// *RequestError values. Each carries an ErrorType, the offending
// parameter path and a classification that maps to an HTTP-like status.
package stateful
