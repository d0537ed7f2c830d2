// Package sqlite registers the "sqlite" storage kind, backed by the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"strings"

	_ "modernc.org/sqlite"

	"movieetl/internal/ddl"
	"movieetl/internal/storage"
	"movieetl/internal/storage/sqldb"
)

// Dialect is the SQLite flavour of sqldb.Dialect.
//
// AUTOINCREMENT keeps its counter in sqlite_sequence, so a reset clears
// both the rows and the counter.
var Dialect = sqldb.Dialect{
	DDL:         ddl.SQLite,
	Placeholder: sqldb.Question,
	Reset: func(table, quoted string) []string {
		return []string{
			"DELETE FROM " + quoted,
			"DELETE FROM sqlite_sequence WHERE name = '" + strings.ReplaceAll(table, "'", "''") + "'",
		}
	},
}.StandardSavepoints()

func init() {
	storage.Register("sqlite", open)
	storage.Register("sqlite3", open)
}

func open(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	return sqldb.Open(ctx, "sqlite", cfg.DSN, Dialect)
}
