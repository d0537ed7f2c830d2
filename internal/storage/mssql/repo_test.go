package mssql

import (
	"reflect"
	"testing"
)

func TestDialect(t *testing.T) {
	t.Parallel()

	if got := Dialect.Placeholder(3); got != "@p3" {
		t.Fatalf("placeholder = %q; want @p3", got)
	}
	if got := Dialect.Reset("movies", "[movies]"); !reflect.DeepEqual(got, []string{"TRUNCATE TABLE [movies]"}) {
		t.Fatalf("reset = %q", got)
	}
	if Dialect.Release != nil {
		t.Fatalf("SQL Server has no RELEASE SAVEPOINT")
	}
	if got := Dialect.Savepoint("sp"); got != "SAVE TRANSACTION sp" {
		t.Fatalf("savepoint = %q", got)
	}
	if got := Dialect.RollbackTo("sp"); got != "ROLLBACK TRANSACTION sp" {
		t.Fatalf("rollback = %q", got)
	}
}
