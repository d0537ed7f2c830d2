// Package mssql registers the "mssql" storage kind, backed by
// github.com/microsoft/go-mssqldb.
package mssql

import (
	"context"
	"strconv"

	_ "github.com/microsoft/go-mssqldb"

	"movieetl/internal/ddl"
	"movieetl/internal/storage"
	"movieetl/internal/storage/sqldb"
)

// Dialect is the SQL Server flavour of sqldb.Dialect.
//
// TRUNCATE is transactional and reseeds IDENTITY. Savepoints use
// SAVE TRANSACTION and have no release statement.
var Dialect = sqldb.Dialect{
	DDL:         ddl.MSSQL,
	Placeholder: func(i int) string { return "@p" + strconv.Itoa(i) },
	Reset: func(_, quoted string) []string {
		return []string{"TRUNCATE TABLE " + quoted}
	},
	Savepoint:  func(n string) string { return "SAVE TRANSACTION " + n },
	RollbackTo: func(n string) string { return "ROLLBACK TRANSACTION " + n },
}

func open(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	return sqldb.Open(ctx, "sqlserver", cfg.DSN, Dialect)
}

func init() {
	storage.Register("mssql", open)
	storage.Register("sqlserver", open)
}
