// Package all wires every built-in storage backend into the storage factory.
//
// Importing it for side effects makes the "postgres", "sqlite", "mysql" and
// "mssql" kinds available to storage.New.
package all

import (
	_ "movieetl/internal/storage/mssql"
	_ "movieetl/internal/storage/mysql"
	_ "movieetl/internal/storage/postgres"
	_ "movieetl/internal/storage/sqlite"
)
