// Package forms provides the persistence layer for downloaded form versions.
//
// # Overview
//
// The package defines a Repository interface for saving form version records
// and reading them back by form ID or by database ID. A SQLite-backed
// implementation (SQLiteRepository) persists data via a dbx.DBTX
// (*sql.DB or *sql.Tx).
//
// Key Types
//
//   - type Repository       : contract used by the form version index and services
//   - type SQLiteRepository : SQLite implementation over dbx.DBTX
//
// Typical Usage
//
//	repo := forms.NewSQLiteRepository(db)
//	_ = repo.Save(ctx, &form)            // form.DbID is assigned on insert
//	all, _ := repo.GetAllByFormID(ctx, "household")
//	f, _ := repo.Get(ctx, form.DbID)
//
// See also: internal/models.FormVersion for field semantics.
package forms
