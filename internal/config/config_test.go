package config

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// TestLoadFromArgs_EnvDefaultsAndFlags checks that env seeds defaults and
// explicit flags override env.
func TestLoadFromArgs_EnvDefaultsAndFlags(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		"STORAGE_KIND":     "sqlite",
		"DB_DSN":           "file:movies.db",
		"SOURCE_ENCODINGS": "latin-1, utf-8",
		"SOURCE_SECURE":    "yes",
		"REPORT_TOP_N":     "3",
		"ETL_COMMAND":      "go run ./cmd/etl",
	}
	getenv := func(k string) string { return env[k] }

	cfg, err := LoadFromArgs(newFlagSet(), getenv, []string{"-storage=mysql", "-key=other.csv"})
	if err != nil {
		t.Fatalf("LoadFromArgs: %v", err)
	}
	if cfg.StorageKind != "mysql" || cfg.Key != "other.csv" {
		t.Fatalf("flag override not applied: %+v", cfg)
	}
	if cfg.DSN != "file:movies.db" || !cfg.Secure || cfg.TopN != 3 {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if want := []string{"latin-1", "utf-8"}; !reflect.DeepEqual(cfg.Encodings, want) {
		t.Fatalf("Encodings = %q; want %q", cfg.Encodings, want)
	}
	if want := []string{"go", "run", "./cmd/etl"}; !reflect.DeepEqual(cfg.ETLCommand, want) {
		t.Fatalf("ETLCommand = %q; want %q", cfg.ETLCommand, want)
	}
}

func TestLoadFromArgs_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromArgs(newFlagSet(), func(string) string { return "" }, nil)
	if err != nil {
		t.Fatalf("LoadFromArgs: %v", err)
	}
	if cfg.SourceKind != "file" || cfg.Bucket != "movies" || cfg.Key != "Movies.csv" {
		t.Fatalf("source defaults: %+v", cfg)
	}
	if cfg.StorageKind != "postgres" || cfg.Table != "movies" || cfg.TopN != 5 {
		t.Fatalf("destination defaults: %+v", cfg)
	}
	if want := []string{"utf-8", "latin-1", "windows-1252"}; !reflect.DeepEqual(cfg.Encodings, want) {
		t.Fatalf("Encodings = %q", cfg.Encodings)
	}
}

func TestLoadFromArgs_Invalid(t *testing.T) {
	t.Parallel()

	cases := map[string][]string{
		"unknown_flag":    {"-nope"},
		"empty_key":       {"-key="},
		"no_encodings":    {"-encodings= , "},
		"negative_top":    {"-top=-1"},
		"unknown_metrics": {"-metrics=statsite"},
	}
	for name, args := range cases {
		args := args
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := LoadFromArgs(newFlagSet(), func(string) string { return "" }, args); err == nil {
				t.Fatalf("expected error for %v", args)
			}
		})
	}
}

func TestDotEnv(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := filepath.Join(dir, "first.env")
	second := filepath.Join(dir, "second.env")
	if err := os.WriteFile(first, []byte("DB_DSN=from-first\nSTORAGE_KIND=sqlite\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(second, []byte("DB_DSN=from-second\nLOG_LEVEL=debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	process := map[string]string{"STORAGE_KIND": "mssql"}

	getenv, err := DotEnv(func(k string) string { return process[k] }, first, second, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("DotEnv: %v", err)
	}
	for k, want := range map[string]string{
		"DB_DSN":       "from-first",
		"STORAGE_KIND": "mssql",
		"LOG_LEVEL":    "debug",
		"UNSET":        "",
	} {
		if got := getenv(k); got != want {
			t.Fatalf("getenv(%q) = %q; want %q", k, got, want)
		}
	}

	cfg, err := LoadFromArgs(newFlagSet(), getenv, nil)
	if err != nil {
		t.Fatalf("LoadFromArgs: %v", err)
	}
	if cfg.DSN != "from-first" || cfg.StorageKind != "mssql" || cfg.LogLevel != "debug" {
		t.Fatalf("dotenv not applied: %+v", cfg)
	}
}
