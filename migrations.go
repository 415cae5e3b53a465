package pushcomm

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DefaultTablePrefix is the table prefix written in the embedded migrations.
const DefaultTablePrefix = "pushcomm_"

var tablePrefixPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// MigrationFiles contains the schema for each supported SQL dialect, one file
// per driver name: migrations/sqlite3.sql, migrations/mysql.sql and
// migrations/postgres.sql. Tables use DefaultTablePrefix.
//
// Apply them with Migrate, or feed the FS to an external migration tool.
//
//go:embed migrations/*.sql
var MigrationFiles embed.FS

// Migrate creates the store tables for driverName if they do not exist.
// Statements are idempotent, so Migrate is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB, driverName string) error {
	return MigrateWithPrefix(ctx, db, driverName, DefaultTablePrefix)
}

// MigrateWithPrefix is Migrate with every table and index name prefixed by
// prefix instead of DefaultTablePrefix.
func MigrateWithPrefix(ctx context.Context, db *sql.DB, driverName, prefix string) error {
	err := validation.Validate(prefix, validation.Required, validation.Length(1, 32), validation.Match(tablePrefixPattern))
	if err != nil {
		return NewErrorWithCause(ErrCodeConfiguration, fmt.Sprintf("invalid table prefix %q", prefix), err)
	}

	script, err := MigrationFiles.ReadFile("migrations/" + driverName + ".sql")
	if err != nil {
		return NewErrorWithCause(ErrCodeConfiguration, fmt.Sprintf("no migrations for driver %q", driverName), err)
	}

	ddl := strings.ReplaceAll(string(script), DefaultTablePrefix, prefix)
	for _, stmt := range splitStatements(ddl) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return NewErrorWithCause(ErrCodeDatabase, "migration failed", err)
		}
	}
	return nil
}

func splitStatements(script string) []string {
	var out []string
	for _, part := range strings.Split(script, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
