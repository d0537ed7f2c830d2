// Package mysql registers the "mysql" storage kind, backed by
// github.com/go-sql-driver/mysql.
package mysql

import (
	"context"

	_ "github.com/go-sql-driver/mysql"

	"movieetl/internal/ddl"
	"movieetl/internal/storage"
	"movieetl/internal/storage/sqldb"
)

// Dialect is the MySQL flavour of sqldb.Dialect.
//
// TRUNCATE commits implicitly in MySQL, so the reset reopens the
// transaction on the same connection right after it. Unlike the other
// backends the reset is therefore not atomic with the load: if the load
// fails afterwards, the table stays empty.
var Dialect = sqldb.Dialect{
	DDL:         ddl.MySQL,
	Placeholder: sqldb.Question,
	Reset: func(_, quoted string) []string {
		return []string{
			"TRUNCATE TABLE " + quoted,
			"START TRANSACTION",
		}
	},
}.StandardSavepoints()

func init() {
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return sqldb.Open(ctx, "mysql", cfg.DSN, Dialect)
	})
}
