package relica

import (
	"database/sql"
	"sync"

	"github.com/coregx/pushcomm"
	"github.com/coregx/relica"
)

// DefaultTablePrefix is prepended to every table name.
const DefaultTablePrefix = pushcomm.DefaultTablePrefix

// Store implements pushcomm.Store on MySQL, PostgreSQL or SQLite.
type Store struct {
	db          *relica.DB
	driverName  string
	tablePrefix string

	// commitMu serializes commits from this process; journal sequence numbers
	// are allocated inside the commit transaction.
	commitMu sync.Mutex
}

// NewStore creates a Store with the default table prefix.
//
// The driverName should be "mysql", "postgres", or "sqlite3".
func NewStore(sqlDB *sql.DB, driverName string) *Store {
	return NewStoreWithPrefix(sqlDB, driverName, DefaultTablePrefix)
}

// NewStoreWithPrefix creates a Store with a custom table prefix. Create its
// tables with pushcomm.MigrateWithPrefix using the same prefix.
func NewStoreWithPrefix(sqlDB *sql.DB, driverName, prefix string) *Store {
	return &Store{
		db:          relica.WrapDB(sqlDB, driverName),
		driverName:  driverName,
		tablePrefix: prefix,
	}
}

func (s *Store) recordTable() string {
	return s.tablePrefix + "record"
}

func (s *Store) eventTable() string {
	return s.tablePrefix + "event"
}
