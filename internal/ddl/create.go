// Package ddl defines a small model for SQL DDL and renders idempotent
// CREATE TABLE statements for each supported dialect.
//
// The model is dialect-neutral; a Dialect adapts it by quoting identifiers,
// mapping logical kinds to SQL types and wrapping the statement in the
// dialect's "create if missing" form.
package ddl

import (
	"fmt"
	"strings"
)

// Dialect renders dialect-specific pieces of a CREATE TABLE statement.
type Dialect interface {
	// Name returns the storage kind this dialect serves (e.g. "postgres").
	Name() string
	// Quote quotes a single identifier segment.
	Quote(ident string) string
	// ColumnType returns the SQL type for c. For KindIdentity the result
	// includes the primary key clause.
	ColumnType(c ColumnDef) string
	// CreateIfMissing wraps a CREATE TABLE body so that re-running it is a no-op.
	CreateIfMissing(table, quotedTable, body string) string
}

// QuoteFQN quotes a possibly schema-qualified name like "public.movies"
// segment by segment.
func QuoteFQN(d Dialect, fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, d.Quote(p))
		}
	}
	return strings.Join(out, ".")
}

// QuoteAll quotes each column name.
func QuoteAll(d Dialect, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = d.Quote(c)
	}
	return out
}

// BuildCreateTableSQL renders an idempotent CREATE TABLE statement for t.
//
// Rules:
//
//   - t.FQN must be non-empty.
//   - Each column must have a non-empty Name.
//   - A column is rendered as:
//
//     <Name> <Type> [NOT NULL] [DEFAULT <Default>]
//
//     except identity columns, whose type already carries the key clause.
func BuildCreateTableSQL(t TableDef, d Dialect) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", fqn)
		}
		typ := d.ColumnType(c)
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s: no %s type for kind %s", name, d.Name(), c.Kind)
		}

		var sb strings.Builder
		sb.WriteString(d.Quote(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)

		if c.Kind != KindIdentity {
			if !c.Nullable {
				sb.WriteString(" NOT NULL")
			}
			if def := strings.TrimSpace(c.Default); def != "" {
				sb.WriteString(" DEFAULT ")
				sb.WriteString(def)
			}
		}
		cols = append(cols, sb.String())
	}

	body := "(\n  " + strings.Join(cols, ",\n  ") + "\n)"
	return d.CreateIfMissing(fqn, QuoteFQN(d, fqn), body), nil
}
