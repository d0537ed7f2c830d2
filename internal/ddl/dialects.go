package ddl

import (
	"fmt"
	"strings"
)

// Postgres, SQLite, MySQL and MSSQL are the built-in dialects.
var (
	Postgres Dialect = postgresDialect{}
	SQLite   Dialect = sqliteDialect{}
	MySQL    Dialect = mysqlDialect{}
	MSSQL    Dialect = mssqlDialect{}
)

// ForKind returns the dialect registered for a storage kind.
func ForKind(kind string) (Dialect, error) {
	switch strings.ToLower(kind) {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "mysql":
		return MySQL, nil
	case "mssql", "sqlserver":
		return MSSQL, nil
	default:
		return nil, fmt.Errorf("ddl: unsupported dialect %q", kind)
	}
}

func doubleQuote(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// commonType covers the kinds whose spelling is the same in every dialect.
func commonType(c ColumnDef) string {
	switch c.Kind {
	case KindText:
		size := c.Size
		if size <= 0 {
			size = 255
		}
		return fmt.Sprintf("VARCHAR(%d)", size)
	case KindInt:
		return "INTEGER"
	case KindBigInt:
		return "BIGINT"
	case KindDecimal:
		return fmt.Sprintf("DECIMAL(%d,%d)", c.Precision, c.Scale)
	case KindTimestamp:
		return "TIMESTAMP"
	default:
		return ""
	}
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }
func (postgresDialect) Quote(id string) string { return doubleQuote(id) }
func (postgresDialect) CreateIfMissing(_, q, body string) string {
	return "CREATE TABLE IF NOT EXISTS " + q + " " + body
}
func (postgresDialect) ColumnType(c ColumnDef) string {
	if c.Kind == KindIdentity {
		return "SERIAL PRIMARY KEY"
	}
	return commonType(c)
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }
func (sqliteDialect) Quote(id string) string { return doubleQuote(id) }
func (sqliteDialect) CreateIfMissing(_, q, body string) string {
	return "CREATE TABLE IF NOT EXISTS " + q + " " + body
}
func (sqliteDialect) ColumnType(c ColumnDef) string {
	if c.Kind == KindIdentity {
		// AUTOINCREMENT keeps a row in sqlite_sequence, which is what a reset clears.
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	return commonType(c)
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return "mysql" }
func (mysqlDialect) Quote(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}
func (mysqlDialect) CreateIfMissing(_, q, body string) string {
	return "CREATE TABLE IF NOT EXISTS " + q + " " + body
}
func (mysqlDialect) ColumnType(c ColumnDef) string {
	if c.Kind == KindIdentity {
		return "INT NOT NULL AUTO_INCREMENT PRIMARY KEY"
	}
	return commonType(c)
}

type mssqlDialect struct{}

func (mssqlDialect) Name() string { return "mssql" }
func (mssqlDialect) Quote(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}
func (mssqlDialect) CreateIfMissing(table, q, body string) string {
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\nCREATE TABLE %s %s",
		strings.ReplaceAll(table, "'", "''"), q, body)
}
func (mssqlDialect) ColumnType(c ColumnDef) string {
	switch c.Kind {
	case KindIdentity:
		return "INT IDENTITY(1,1) PRIMARY KEY"
	case KindText:
		size := c.Size
		if size <= 0 {
			size = 255
		}
		return fmt.Sprintf("NVARCHAR(%d)", size)
	case KindTimestamp:
		return "DATETIME2"
	default:
		return commonType(c)
	}
}
