// Package ledger persists which mailbox messages have been processed and which
// were moved to spam, so repeated triage runs never classify or alert twice.
//
// The Store wraps a single processed_emails table. Entries are created once
// (first write wins), may transition from unmoved to moved, and are never
// deleted. SQLite is the default backend; PostgreSQL is supported for shared
// deployments through the pgx driver. Both use the same schema and the same
// single-statement create-if-absent insert.
//
// Schema changes bump schemaVersion in schema.go; opening a database with a
// different version fails with ErrSchemaMismatch.
package ledger
