// Package engine is the protocol-agnostic entry point of the billing mock.
//
// A Request names a kind, an action and its parameters; Engine.Do runs the
// validation engine and the store inside one store transaction and returns
// a Response or a *stateful.RequestError. Adapters (the CLI fixture runner,
// the mock strategy, tests) translate their own input into Requests.
//
// Create requests may carry an idempotency key. The first response for a
// key is cached for the configured TTL and replayed for repeated requests.
package engine
