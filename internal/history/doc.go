// Package history persists a ledger of completed and failed dubbing runs
// in a local SQLite database.
package history
