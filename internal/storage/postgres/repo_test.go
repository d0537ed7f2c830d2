package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"movieetl/internal/movies"
)

type execCall struct {
	q    string
	args []any
}

// fakePgConn implements pgConnLike.
type fakePgConn struct {
	execCalls []execCall
	execErr   error
	beginTx   pgx.Tx
	beginErr  error
	closed    bool
}

func (c *fakePgConn) Exec(ctx context.Context, q string, args ...any) (pgconn.CommandTag, error) {
	c.execCalls = append(c.execCalls, execCall{q, args})
	return pgconn.CommandTag{}, c.execErr
}

func (c *fakePgConn) Begin(ctx context.Context) (pgx.Tx, error) {
	if c.beginErr != nil {
		return nil, c.beginErr
	}
	return c.beginTx, nil
}

func (c *fakePgConn) Close(ctx context.Context) error { c.closed = true; return nil }

// fakePgTx implements pgx.Tx. Begin hands out nested fakes that stand in for
// savepoints; failExec makes Exec fail for statements containing it.
type fakePgTx struct {
	execCalls  []execCall
	failExec   string
	nested     []*fakePgTx
	committed  bool
	rolledBack bool
}

func (t *fakePgTx) Begin(ctx context.Context) (pgx.Tx, error) {
	n := &fakePgTx{failExec: t.failExec}
	t.nested = append(t.nested, n)
	return n, nil
}

func (t *fakePgTx) Exec(ctx context.Context, q string, args ...any) (pgconn.CommandTag, error) {
	t.execCalls = append(t.execCalls, execCall{q, args})
	if t.failExec != "" && len(args) > 0 && args[0] == t.failExec {
		return pgconn.CommandTag{}, errors.New("value too long for type character varying(255)")
	}
	return pgconn.CommandTag{}, nil
}

func (t *fakePgTx) Query(ctx context.Context, q string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *fakePgTx) QueryRow(ctx context.Context, q string, args ...any) pgx.Row { return nil }
func (t *fakePgTx) CopyFrom(ctx context.Context, table pgx.Identifier, cols []string, src pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *fakePgTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *fakePgTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *fakePgTx) Conn() *pgx.Conn                                              { return nil }
func (t *fakePgTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *fakePgTx) Commit(ctx context.Context) error   { t.committed = true; return nil }
func (t *fakePgTx) Rollback(ctx context.Context) error { t.rolledBack = true; return nil }

func TestEnsureTable(t *testing.T) {
	t.Parallel()

	c := &fakePgConn{}
	r := &Repository{conn: c}
	if err := r.EnsureTable(context.Background(), movies.TableDef()); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	if len(c.execCalls) != 1 {
		t.Fatalf("exec calls = %d; want 1", len(c.execCalls))
	}
	q := c.execCalls[0].q
	for _, want := range []string{`CREATE TABLE IF NOT EXISTS "movies"`, `"id" SERIAL PRIMARY KEY`, `"imdb_score" DECIMAL(3,1)`} {
		if !strings.Contains(q, want) {
			t.Fatalf("DDL missing %q:\n%s", want, q)
		}
	}

	c.execErr = errors.New("permission denied")
	if err := r.EnsureTable(context.Background(), movies.TableDef()); err == nil {
		t.Fatalf("expected EnsureTable to surface exec error")
	}
}

func TestTx_ResetInsertCommit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	outer := &fakePgTx{failExec: "bad"}
	r := &Repository{conn: &fakePgConn{beginTx: outer}}

	tx, err := r.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := tx.Reset(ctx, "movies"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if got := outer.execCalls[0].q; got != `TRUNCATE TABLE "movies" RESTART IDENTITY` {
		t.Fatalf("reset sql = %q", got)
	}

	cols := []string{"movie_title", "imdb_score"}
	if err := tx.Insert(ctx, "movies", cols, []any{"good", 7.5}); err != nil {
		t.Fatalf("Insert good: %v", err)
	}
	if err := tx.Insert(ctx, "movies", cols, []any{"bad", 7.5}); err == nil {
		t.Fatalf("Insert bad: expected error")
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if len(outer.nested) != 2 {
		t.Fatalf("savepoints = %d; want one per row", len(outer.nested))
	}
	good, bad := outer.nested[0], outer.nested[1]
	if !good.committed || good.rolledBack {
		t.Fatalf("good row savepoint should be released")
	}
	if !bad.rolledBack || bad.committed {
		t.Fatalf("bad row savepoint should be rolled back")
	}
	if want := `INSERT INTO "movies" ("movie_title", "imdb_score") VALUES ($1, $2)`; good.execCalls[0].q != want {
		t.Fatalf("insert sql = %q; want %q", good.execCalls[0].q, want)
	}
	if !outer.committed {
		t.Fatalf("outer transaction not committed")
	}
}

func TestBeginError(t *testing.T) {
	t.Parallel()

	r := &Repository{conn: &fakePgConn{beginErr: errors.New("conn busy")}}
	if _, err := r.Begin(context.Background()); err == nil {
		t.Fatalf("expected Begin error")
	}
}

func TestClose(t *testing.T) {
	t.Parallel()

	c := &fakePgConn{}
	if err := (&Repository{conn: c}).Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !c.closed {
		t.Fatalf("expected underlying connection to be closed")
	}
}

func TestNewRepository_InvalidDSN(t *testing.T) {
	t.Parallel()

	if _, err := NewRepository(context.Background(), "not-a-valid-dsn"); err == nil {
		t.Fatalf("expected error for invalid DSN")
	}
}
