// Package postgres implements storage.Repository over a single pgx
// connection.
//
// Each per-row insert runs in a nested pgx transaction, which pgx issues as
// a SAVEPOINT; a failed row rolls back to it and the outer transaction
// carries on.
package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"movieetl/internal/ddl"
	"movieetl/internal/storage"
)

func init() {
	storage.Register("postgres", open)
	storage.Register("postgresql", open)
}

func open(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	return NewRepository(ctx, cfg.DSN)
}

// pgConnLike is the subset of *pgx.Conn the repository uses.
type pgConnLike interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close(ctx context.Context) error
}

// Repository is a Postgres-backed storage.Repository.
type Repository struct{ conn pgConnLike }

// NewRepository connects with pgx.Connect. One connection, no pool.
func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	c, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Repository{conn: c}, nil
}

// EnsureTable implements storage.Repository.
func (r *Repository) EnsureTable(ctx context.Context, td ddl.TableDef) error {
	q, err := ddl.BuildCreateTableSQL(td, ddl.Postgres)
	if err != nil {
		return err
	}
	_, err = r.conn.Exec(ctx, q)
	return err
}

// Begin implements storage.Repository.
func (r *Repository) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx}, nil
}

// Close implements storage.Repository.
func (r *Repository) Close(ctx context.Context) error { return r.conn.Close(ctx) }

// Tx wraps pgx.Tx.
type Tx struct{ tx pgx.Tx }

// Reset truncates table and restarts its identity sequence.
func (t *Tx) Reset(ctx context.Context, table string) error {
	_, err := t.tx.Exec(ctx, "TRUNCATE TABLE "+ddl.QuoteFQN(ddl.Postgres, table)+" RESTART IDENTITY")
	return err
}

// Insert runs one INSERT inside a savepoint.
func (t *Tx) Insert(ctx context.Context, table string, cols []string, vals []any) error {
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("savepoint: %w", err)
	}
	if _, err := sp.Exec(ctx, insertSQL(table, cols), vals...); err != nil {
		_ = sp.Rollback(ctx)
		return err
	}
	return sp.Commit(ctx)
}

// Commit implements storage.Tx.
func (t *Tx) Commit(ctx context.Context) error { return t.tx.Commit(ctx) }

// Rollback implements storage.Tx.
func (t *Tx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

func insertSQL(table string, cols []string) string {
	ph := make([]string, len(cols))
	for i := range cols {
		ph[i] = "$" + strconv.Itoa(i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		ddl.QuoteFQN(ddl.Postgres, table),
		strings.Join(ddl.QuoteAll(ddl.Postgres, cols), ", "),
		strings.Join(ph, ", "),
	)
}
