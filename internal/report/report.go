// Package report reads the loaded table back for validation and display.
//
// It is read-only and goes through database/sql with sqlx, so the same code
// serves every destination kind the loader supports.
package report

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"movieetl/internal/ddl"
	"movieetl/internal/etlerr"
	"movieetl/internal/movies"
	"movieetl/internal/storage"
)

// Movie is one row as shown by the report and the dashboard.
type Movie struct {
	Title  string  `db:"movie_title" json:"movie_title"`
	Score  float64 `db:"imdb_score" json:"imdb_score"`
	Year   int64   `db:"title_year" json:"title_year"`
	Budget int64   `db:"budget" json:"budget"`
}

// Reader queries the movies table.
type Reader struct {
	db    *sqlx.DB
	d     ddl.Dialect
	table string
}

// DriverName maps a storage kind to its database/sql driver.
func DriverName(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "postgres", "postgresql", "pgx":
		return "pgx", nil
	case "sqlite", "sqlite3":
		return "sqlite", nil
	case "mysql":
		return "mysql", nil
	case "mssql", "sqlserver":
		return "sqlserver", nil
	default:
		return "", fmt.Errorf("report: unsupported storage kind %q", kind)
	}
}

// Open connects to the store described by cfg. An empty table means
// movies.Table. Connection failures wrap etlerr.ErrConnection.
func Open(ctx context.Context, cfg storage.Config, table string) (*Reader, error) {
	driver, err := DriverName(cfg.Kind)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.ConnectContext(ctx, driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("report: connect %s: %w: %w", driver, etlerr.ErrConnection, err)
	}
	r, err := NewReader(db, cfg.Kind, table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

// NewReader wraps an open handle.
func NewReader(db *sqlx.DB, kind, table string) (*Reader, error) {
	d, err := ddl.ForKind(kind)
	if err != nil {
		return nil, err
	}
	if table == "" {
		table = movies.Table
	}
	return &Reader{db: db, d: d, table: table}, nil
}

// Close releases the connection.
func (r *Reader) Close() error { return r.db.Close() }

// Count returns the number of rows in the table.
func (r *Reader) Count(ctx context.Context) (int, error) {
	var n int
	q := "SELECT COUNT(*) FROM " + ddl.QuoteFQN(r.d, r.table)
	if err := r.db.GetContext(ctx, &n, q); err != nil {
		return 0, fmt.Errorf("report: count: %w", err)
	}
	return n, nil
}

// Top returns the n highest-scored movies. Titles are cleaned for display.
func (r *Reader) Top(ctx context.Context, n int) ([]Movie, error) {
	if n <= 0 {
		return nil, nil
	}
	return r.list(ctx, n)
}

// All returns every movie ordered by score, best first.
func (r *Reader) All(ctx context.Context) ([]Movie, error) {
	return r.list(ctx, 0)
}

func (r *Reader) list(ctx context.Context, limit int) ([]Movie, error) {
	var out []Movie
	if err := r.db.SelectContext(ctx, &out, r.selectSQL(limit)); err != nil {
		return nil, fmt.Errorf("report: select: %w", err)
	}
	for i := range out {
		out[i].Title = CleanTitle(out[i].Title)
	}
	return out, nil
}

func (r *Reader) selectSQL(limit int) string {
	q := r.d.Quote
	cols := strings.Join([]string{
		"COALESCE(" + q("movie_title") + ", '') AS movie_title",
		"COALESCE(" + q("imdb_score") + ", 0) AS imdb_score",
		"COALESCE(" + q("title_year") + ", 0) AS title_year",
		"COALESCE(" + q("budget") + ", 0) AS budget",
	}, ", ")
	from := " FROM " + ddl.QuoteFQN(r.d, r.table) +
		" ORDER BY " + q("imdb_score") + " DESC, " + q("id") + " ASC"

	switch {
	case limit <= 0:
		return "SELECT " + cols + from
	case r.d.Name() == "mssql":
		return fmt.Sprintf("SELECT TOP (%d) %s%s", limit, cols, from)
	default:
		return fmt.Sprintf("SELECT %s%s LIMIT %d", cols, from, limit)
	}
}
