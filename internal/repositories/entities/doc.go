// Package entities provides the local persistence layer for entity lists.
//
// # Overview
//
// Entities are versioned records identified by (list, id). Saving an entity
// that already exists supersedes it in place: the row keeps its position in
// the list, the version never goes backwards and properties are merged by
// name. Reads always return the current version of each entity together
// with its 1-based index in the list's insertion order.
//
// A SQLite-backed implementation (SQLiteRepository) persists data via a
// dbx.DBTX (*sql.DB or *sql.Tx). Multi-statement reads and writes run in a
// single transaction.
package entities
