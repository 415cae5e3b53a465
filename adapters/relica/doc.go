// Package relica provides a SQL pushcomm.Store built on the Relica query builder.
//
// Relica (github.com/coregx/relica) handles reads and writes. Batch commits
// run in a single relica.Tx (delete, upsert, journal insert) so that record
// writes and journal appends become visible together.
//
// Two tables back the store (default prefix "pushcomm_"):
//   - <prefix>record: one row per occupied location
//   - <prefix>event: the ordered event journal
//
// Create them with pushcomm.Migrate (or pushcomm.MigrateWithPrefix for a
// custom prefix) before first use.
//
// Example usage:
//
//	import (
//	    "database/sql"
//	    "github.com/coregx/pushcomm"
//	    "github.com/coregx/pushcomm/adapters/relica"
//	    _ "github.com/mattn/go-sqlite3"
//	)
//
//	db, err := sql.Open("sqlite3", "pushcomm.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := pushcomm.Migrate(ctx, db, "sqlite3"); err != nil {
//	    log.Fatal(err)
//	}
//
//	dir, err := pushcomm.NewDirectory(
//	    pushcomm.WithStore(relica.NewStore(db, "sqlite3")),
//	)
package relica
