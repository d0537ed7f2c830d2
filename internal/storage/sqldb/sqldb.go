// Package sqldb implements storage.Repository over database/sql for the
// engines that share its shape (SQLite, MySQL, SQL Server). A Dialect
// supplies the engine-specific SQL; everything else is common.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"movieetl/internal/ddl"
	"movieetl/internal/storage"
)

// Dialect describes the SQL an engine needs beyond CREATE TABLE.
type Dialect struct {
	// DDL renders identifiers and CREATE TABLE.
	DDL ddl.Dialect

	// Placeholder returns the bind marker for the i-th (1-based) argument.
	Placeholder func(i int) string

	// Reset returns the statements that empty a table and restart its
	// surrogate key. table is the raw name, quoted is ready for SQL.
	Reset func(table, quoted string) []string

	// Savepoint, RollbackTo and Release build per-row savepoint statements.
	// A nil Release means the engine has no release statement.
	Savepoint  func(name string) string
	RollbackTo func(name string) string
	Release    func(name string) string
}

// Question is the "?" placeholder style.
func Question(int) string { return "?" }

// StandardSavepoints fills the SQL-standard savepoint statements.
func (d Dialect) StandardSavepoints() Dialect {
	d.Savepoint = func(n string) string { return "SAVEPOINT " + n }
	d.RollbackTo = func(n string) string { return "ROLLBACK TO SAVEPOINT " + n }
	d.Release = func(n string) string { return "RELEASE SAVEPOINT " + n }
	return d
}

// sqlDBCore is the subset of *sql.DB the repository uses.
type sqlDBCore interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	Close() error
}

// sqlTxCore is the subset of *sql.Tx the transaction uses.
type sqlTxCore interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Commit() error
	Rollback() error
}

// Repository is a database/sql-backed storage.Repository.
type Repository struct {
	db      sqlDBCore
	dialect Dialect
	beginTx func(ctx context.Context) (sqlTxCore, error)
}

// Open opens driverName with dsn, limits the pool to one connection and
// pings it.
func Open(ctx context.Context, driverName, dsn string, d Dialect) (*Repository, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db, d), nil
}

// New wraps an existing *sql.DB.
func New(db *sql.DB, d Dialect) *Repository {
	r := &Repository{db: db, dialect: d}
	r.beginTx = func(ctx context.Context) (sqlTxCore, error) {
		return db.BeginTx(ctx, nil)
	}
	return r
}

// EnsureTable implements storage.Repository.
func (r *Repository) EnsureTable(ctx context.Context, td ddl.TableDef) error {
	q, err := ddl.BuildCreateTableSQL(td, r.dialect.DDL)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, q)
	return err
}

// Begin implements storage.Repository.
func (r *Repository) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, d: r.dialect, inserts: map[string]string{}}, nil
}

// Close implements storage.Repository.
func (r *Repository) Close(context.Context) error { return r.db.Close() }

const savepointName = "movieetl_row"

// Tx is a database/sql load transaction.
type Tx struct {
	tx      sqlTxCore
	d       Dialect
	inserts map[string]string
}

// Reset implements storage.Tx.
func (t *Tx) Reset(ctx context.Context, table string) error {
	for _, q := range t.d.Reset(table, ddl.QuoteFQN(t.d.DDL, table)) {
		if _, err := t.tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("%s: %w", q, err)
		}
	}
	return nil
}

// Insert implements storage.Tx.
func (t *Tx) Insert(ctx context.Context, table string, cols []string, vals []any) error {
	if _, err := t.tx.ExecContext(ctx, t.d.Savepoint(savepointName)); err != nil {
		return fmt.Errorf("savepoint: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, t.insertSQL(table, cols), vals...); err != nil {
		if _, rbErr := t.tx.ExecContext(ctx, t.d.RollbackTo(savepointName)); rbErr != nil {
			return fmt.Errorf("%w (rollback to savepoint: %v)", err, rbErr)
		}
		return err
	}
	if t.d.Release != nil {
		if _, err := t.tx.ExecContext(ctx, t.d.Release(savepointName)); err != nil {
			return fmt.Errorf("release savepoint: %w", err)
		}
	}
	return nil
}

func (t *Tx) insertSQL(table string, cols []string) string {
	k := table + "\x00" + strings.Join(cols, "\x00")
	if q, ok := t.inserts[k]; ok {
		return q
	}
	ph := make([]string, len(cols))
	for i := range cols {
		ph[i] = t.d.Placeholder(i + 1)
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		ddl.QuoteFQN(t.d.DDL, table),
		strings.Join(ddl.QuoteAll(t.d.DDL, cols), ", "),
		strings.Join(ph, ", "),
	)
	t.inserts[k] = q
	return q
}

// Commit implements storage.Tx.
func (t *Tx) Commit(context.Context) error { return t.tx.Commit() }

// Rollback implements storage.Tx.
func (t *Tx) Rollback(context.Context) error { return t.tx.Rollback() }
