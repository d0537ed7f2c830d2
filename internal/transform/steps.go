package transform

import (
	"math"
	"strconv"
	"strings"

	"movieetl/internal/movies"
	pcsv "movieetl/internal/parser/csv"
)

// dropMissing removes rows whose title or score is absent: the column is
// missing, or the cell is blank or a missing token. It returns the number
// of rows removed.
func dropMissing(t *pcsv.Table) int {
	ti, si := t.Index(movies.TitleField), t.Index(movies.ScoreField)
	if ti < 0 || si < 0 {
		n := len(t.Rows)
		t.Rows = t.Rows[:0]
		return n
	}
	kept := t.Rows[:0]
	for _, r := range t.Rows {
		if movies.IsMissing(r[ti]) || movies.IsMissing(r[si]) {
			continue
		}
		kept = append(kept, r)
	}
	n := len(t.Rows) - len(kept)
	t.Rows = kept
	return n
}

// coerceNumeric rewrites every present numeric column as a number. Cells
// that are missing or do not parse become "0". It returns how many cells
// were substituted.
func coerceNumeric(t *pcsv.Table, fields []string) int {
	n := 0
	for _, f := range fields {
		i := t.Index(f)
		if i < 0 {
			continue
		}
		for _, r := range t.Rows {
			v, ok := parseNumber(r[i])
			if !ok {
				r[i] = "0"
				n++
				continue
			}
			r[i] = formatNumber(v)
		}
	}
	return n
}

// trimTitle strips surrounding whitespace from the title.
func trimTitle(t *pcsv.Table) {
	i := t.Index(movies.TitleField)
	if i < 0 {
		return
	}
	for _, r := range t.Rows {
		r[i] = strings.TrimSpace(r[i])
	}
}

// filterScore keeps rows whose score parses and lies in the closed range
// [movies.ScoreMin, movies.ScoreMax]. It returns the number of rows removed.
func filterScore(t *pcsv.Table) int {
	i := t.Index(movies.ScoreField)
	if i < 0 {
		return 0
	}
	kept := t.Rows[:0]
	for _, r := range t.Rows {
		v, ok := parseNumber(r[i])
		if !ok || v < movies.ScoreMin || v > movies.ScoreMax {
			continue
		}
		r[i] = formatNumber(v)
		kept = append(kept, r)
	}
	n := len(t.Rows) - len(kept)
	t.Rows = kept
	return n
}

// project renames mapped columns to their destination names and drops the
// rest. Mapped columns missing from t stay absent.
func project(t *pcsv.Table, mapping []movies.Mapping) *pcsv.Table {
	header := make([]string, 0, len(mapping))
	src := make([]int, 0, len(mapping))
	for _, m := range mapping {
		i := t.Index(m.Source)
		if i < 0 {
			continue
		}
		header = append(header, m.Dest)
		src = append(src, i)
	}
	rows := make([][]string, len(t.Rows))
	for ri, r := range t.Rows {
		out := make([]string, len(src))
		for j, i := range src {
			out[j] = r[i]
		}
		rows[ri] = out
	}
	return pcsv.NewTable(header, rows)
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if movies.IsMissing(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func formatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
