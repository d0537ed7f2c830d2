// Package csv reads and writes the small in-memory tables passed between
// pipeline stages: the decoded source file and the intermediate artifact.
//
// Surrounding whitespace in column names is ignored. When a header repeats
// a name exactly only the first column is kept; names differing in case are
// distinct columns. Lookups try the exact name first and then fall back to a
// case-insensitive match.
package csv

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/zeebo/xxh3"
)

// Table is a header plus rows of string cells. Every row has len(Header) cells.
type Table struct {
	Header []string
	Rows   [][]string

	index  map[string]int // exact name
	folded map[string]int // lowercased name, first occurrence
}

// NewTable builds a Table over header and rows, dropping duplicate columns.
func NewTable(header []string, rows [][]string) *Table {
	t := &Table{}
	keep := t.setHeader(header)
	t.Rows = make([][]string, 0, len(rows))
	for _, r := range rows {
		t.Rows = append(t.Rows, project(r, keep))
	}
	return t
}

// setHeader installs the deduplicated header and returns the source positions
// of the kept columns.
func (t *Table) setHeader(header []string) []int {
	t.Header = make([]string, 0, len(header))
	t.index = make(map[string]int, len(header))
	t.folded = make(map[string]int, len(header))
	keep := make([]int, 0, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, dup := t.index[h]; dup {
			continue
		}
		t.index[h] = len(t.Header)
		if _, ok := t.folded[key(h)]; !ok {
			t.folded[key(h)] = len(t.Header)
		}
		t.Header = append(t.Header, h)
		keep = append(keep, i)
	}
	return keep
}

// project picks the cells at keep, padding short rows with empty cells.
func project(row []string, keep []int) []string {
	out := make([]string, len(keep))
	for j, i := range keep {
		if i < len(row) {
			out[j] = row[i]
		}
	}
	return out
}

func key(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

// Index returns the column position of name, or -1.
func (t *Table) Index(name string) int {
	if i, ok := t.index[strings.TrimSpace(name)]; ok {
		return i
	}
	if i, ok := t.folded[key(name)]; ok {
		return i
	}
	return -1
}

// Has reports whether the table has a column called name.
func (t *Table) Has(name string) bool { return t.Index(name) >= 0 }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Read parses CSV text with a header row.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv: empty input, header row required")
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}
	StripHeaderBOM(header)

	t := &Table{}
	keep := t.setHeader(header)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
		t.Rows = append(t.Rows, project(rec, keep))
	}
	return t, nil
}

// ReadFile opens path and parses it with Read.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}

// Write emits the header and rows as CSV.
func (t *Table) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteFile writes the table to path and returns the xxh3 hash of the bytes
// written.
func (t *Table) WriteFile(path string) (uint64, error) {
	var buf bytes.Buffer
	if err := t.Write(&buf); err != nil {
		return 0, fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	return xxh3.Hash(buf.Bytes()), nil
}
