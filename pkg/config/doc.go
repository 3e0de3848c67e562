// Package config loads process-wide settings for the billing mock from a
// YAML file, environment variables and an optional .env file.
//
// Precedence, lowest first: Default(), the YAML file, BILLINGMOCK_* environment
// variables. Load validates the result.
package config
