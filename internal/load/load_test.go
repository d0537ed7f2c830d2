package load

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"movieetl/internal/datasource/file"
	"movieetl/internal/ddl"
	"movieetl/internal/etlerr"
	"movieetl/internal/storage"
	_ "movieetl/internal/storage/sqlite"
	"movieetl/internal/transform"
)

func writeArtifact(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "movies_transformed.csv")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return p
}

// openSQLite opens a fresh file-backed store; each call is one "stage
// invocation" with its own connection.
func openSQLite(t *testing.T, dsn string) storage.Repository {
	t.Helper()
	repo, err := storage.New(context.Background(), storage.Config{Kind: "sqlite", DSN: dsn})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close(context.Background()) })
	return repo
}

func query(t *testing.T, dsn, q string, dest ...any) {
	t.Helper()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	if err := db.QueryRow(q).Scan(dest...); err != nil {
		t.Fatalf("%s: %v", q, err)
	}
}

func TestRun_RoundTripFromTransform(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "Movies.csv")
	raw := "movie_title,imdb_score,budget,director_facebook_likes,gross\n" +
		"Movie A ,8.5,1000000,12,N/A\n" +
		",7.0,5,1,1\n" +
		"Movie B,11.0,5,1,1\n" +
		"Movie C,6.1,,3,250\n"
	if err := os.WriteFile(src, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	tres, err := transform.Run(context.Background(), file.NewLocal(src), transform.Options{
		OutputPath: filepath.Join(dir, "movies_transformed.csv"),
	})
	if err != nil {
		t.Fatalf("transform: %v", err)
	}

	dsn := filepath.Join(dir, "movies.db")
	res, err := Run(context.Background(), openSQLite(t, dsn), tres.ArtifactPath, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.InputRows != tres.OutputRows || res.Inserted != tres.OutputRows || res.Failed != 0 {
		t.Fatalf("load result = %+v; want %d inserted", res, tres.OutputRows)
	}

	var n int
	query(t, dsn, `SELECT COUNT(*) FROM movies`, &n)
	if n != tres.OutputRows {
		t.Fatalf("table rows = %d; want %d", n, tres.OutputRows)
	}

	var title string
	var budget, likes, gross, year int64
	var score float64
	query(t, dsn, `SELECT movie_title, imdb_score, budget, director_facebook_likes, gross, title_year FROM movies WHERE id = 1`,
		&title, &score, &budget, &likes, &gross, &year)
	if title != "Movie A" || score != 8.5 || budget != 1000000 || likes != 12 || gross != 0 || year != 0 {
		t.Fatalf("row 1 = %q %v %d %d %d %d", title, score, budget, likes, gross, year)
	}
}

func TestRun_FractionalIntegersSurviveRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "Movies.csv")
	raw := "movie_title,imdb_score,duration,budget\n" +
		"Movie A,8.5,90.5,1000000\n" +
		"Movie B,7.0,100,2.5e6\n"
	if err := os.WriteFile(src, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	tres, err := transform.Run(context.Background(), file.NewLocal(src), transform.Options{
		OutputPath: filepath.Join(dir, "movies_transformed.csv"),
	})
	if err != nil {
		t.Fatalf("transform: %v", err)
	}

	dsn := filepath.Join(dir, "movies.db")
	res, err := Run(context.Background(), openSQLite(t, dsn), tres.ArtifactPath, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tres.OutputRows != 2 || res.Inserted != 2 || res.Failed != 0 {
		t.Fatalf("cleaned=%d load=%+v; want 2 inserted", tres.OutputRows, res)
	}

	var duration, budget int64
	query(t, dsn, `SELECT duration, budget FROM movies WHERE movie_title = 'Movie A'`, &duration, &budget)
	if duration != 91 || budget != 1000000 {
		t.Fatalf("Movie A duration=%d budget=%d; want 91 and 1000000", duration, budget)
	}
	query(t, dsn, `SELECT budget FROM movies WHERE movie_title = 'Movie B'`, &budget)
	if budget != 2500000 {
		t.Fatalf("Movie B budget = %d; want 2500000", budget)
	}
}

func TestRun_IdempotentReload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	dsn := filepath.Join(dir, "movies.db")
	art := writeArtifact(t, "movie_title,imdb_score\nA,1\nB,2\nC,3\n")

	for i := 0; i < 2; i++ {
		repo := openSQLite(t, dsn)
		if _, err := Run(context.Background(), repo, art, Options{}); err != nil {
			t.Fatalf("load #%d: %v", i+1, err)
		}
		_ = repo.Close(context.Background())
	}

	var n, maxID int
	query(t, dsn, `SELECT COUNT(*), MAX(id) FROM movies`, &n, &maxID)
	if n != 3 || maxID != 3 {
		t.Fatalf("after two loads: rows=%d max(id)=%d; want 3 and 3", n, maxID)
	}
}

func TestRun_RowFailuresAreSkipped(t *testing.T) {
	t.Parallel()

	dsn := filepath.Join(t.TempDir(), "movies.db")
	long := strings.Repeat("x", 300)
	art := writeArtifact(t, "movie_title,imdb_score,budget\n"+
		"Good,5,100\n"+
		long+",5,100\n"+
		"Bad budget,5,lots\n"+
		"Also good,6,\n")

	res, err := Run(context.Background(), openSQLite(t, dsn), art, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.InputRows != 4 || res.Inserted != 2 || res.Failed != 2 {
		t.Fatalf("result = %+v; want 4 in, 2 inserted, 2 failed", res)
	}
	var n int
	query(t, dsn, `SELECT COUNT(*) FROM movies`, &n)
	if n != 2 {
		t.Fatalf("rows = %d; want 2", n)
	}
}

func TestRun_DuplicateArtifactColumnsKeepFirst(t *testing.T) {
	t.Parallel()

	dsn := filepath.Join(t.TempDir(), "movies.db")
	art := writeArtifact(t, "movie_title,imdb_score,budget,budget\nA,5,100,999\n")
	if _, err := Run(context.Background(), openSQLite(t, dsn), art, Options{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	var budget int64
	query(t, dsn, `SELECT budget FROM movies`, &budget)
	if budget != 100 {
		t.Fatalf("budget = %d; want first occurrence 100", budget)
	}
}

// failingRepo fails table creation.
type failingRepo struct{ storage.Repository }

func (failingRepo) EnsureTable(context.Context, ddl.TableDef) error {
	return errors.New("permission denied for schema public")
}

func TestRun_SchemaError(t *testing.T) {
	t.Parallel()

	art := writeArtifact(t, "movie_title,imdb_score\nA,1\n")
	_, err := Run(context.Background(), failingRepo{}, art, Options{})
	if !errors.Is(err, etlerr.ErrSchema) {
		t.Fatalf("err = %v; want ErrSchema", err)
	}
}

func TestRun_MissingArtifact(t *testing.T) {
	t.Parallel()

	_, err := Run(context.Background(), failingRepo{}, filepath.Join(t.TempDir(), "nope.csv"), Options{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v; want os.ErrNotExist", err)
	}
}

func TestBind(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		header  string
		row     []string
		wantErr bool
	}{
		{"all present", "movie_title,imdb_score,budget", []string{"A", "7.5", "100"}, false},
		{"absent fields zero", "movie_title", []string{"A"}, false},
		{"missing title", "imdb_score", []string{"5"}, true},
		{"non-numeric int", "movie_title,duration", []string{"A", "long"}, true},
		{"int32 overflow", "movie_title,duration", []string{"A", "3000000000"}, true},
		{"bigint fits", "movie_title,budget", []string{"A", "3000000000"}, false},
		{"score out of range", "movie_title,imdb_score", []string{"A", "10.5"}, true},
		{"fractional int rounds", "movie_title,duration", []string{"A", "90.5"}, false},
		{"fractional bigint rounds", "movie_title,budget", []string{"A", "2.5e6"}, false},
		{"int32 overflow after rounding", "movie_title,duration", []string{"A", "2147483647.5"}, true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tbl := tableOf(strings.Split(tc.header, ","), tc.row)
			vals, err := newBinder(tbl).bind(tbl.Rows[0])
			if tc.wantErr {
				if !errors.Is(err, etlerr.ErrRowInsert) {
					t.Fatalf("err = %v; want ErrRowInsert", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("bind: %v", err)
			}
			if len(vals) != 15 {
				t.Fatalf("len(vals) = %d; want 15", len(vals))
			}
		})
	}
}
