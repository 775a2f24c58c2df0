// Package testutil contains helpers used across tests to reduce boilerplate
// when building an in-memory host and asserting on the native connection
// graph. They are not intended for production usage.
package testutil
