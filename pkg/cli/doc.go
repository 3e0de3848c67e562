// Package cli implements the billingmock command line.
//
//	billingmock kinds                 list registered resource kinds
//	billingmock run fixture.yaml      replay a fixture against a fresh engine
//
// Configuration comes from --config, BILLINGMOCK_* environment variables and
// a .env file in the working directory.
package cli
