package load

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"movieetl/internal/ddl"
	"movieetl/internal/etlerr"
	"movieetl/internal/movies"
	pcsv "movieetl/internal/parser/csv"
)

// binder turns artifact rows into insert arguments for every destination
// column, in movies.ColumnMapping order.
type binder struct {
	cols []string
	defs []ddl.ColumnDef
	src  []int // artifact position per column, -1 when absent
}

func newBinder(t *pcsv.Table) *binder {
	td := movies.TableDef()
	b := &binder{}
	for _, m := range movies.ColumnMapping {
		name := movies.ColumnName(m.Dest)
		c, _ := td.Column(name)
		b.cols = append(b.cols, name)
		b.defs = append(b.defs, c)
		b.src = append(b.src, t.Index(m.Dest))
	}
	return b
}

// bind returns the arguments for row. Absent fields are supplied as zero and
// fractional values in integer columns are rounded. A value the destination
// column cannot hold fails the row with etlerr.ErrRowInsert.
func (b *binder) bind(row []string) ([]any, error) {
	vals := make([]any, len(b.cols))
	for i, c := range b.defs {
		raw := ""
		if j := b.src[i]; j >= 0 {
			raw = strings.TrimSpace(row[j])
		}
		v, err := convert(c, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: column %s: %v", etlerr.ErrRowInsert, c.Name, err)
		}
		vals[i] = v
	}
	return vals, nil
}

func convert(c ddl.ColumnDef, raw string) (any, error) {
	if c.Kind == ddl.KindText {
		if raw == "" {
			return nil, fmt.Errorf("empty value")
		}
		if c.Size > 0 && len([]rune(raw)) > c.Size {
			return nil, fmt.Errorf("value longer than %d characters", c.Size)
		}
		return raw, nil
	}

	f := 0.0
	if !movies.IsMissing(raw) {
		var err error
		if f, err = strconv.ParseFloat(raw, 64); err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%q is not a number", raw)
		}
	}

	switch c.Kind {
	case ddl.KindInt, ddl.KindBigInt:
		// Fractions round half away from zero, as Postgres does on an
		// integer cast.
		f = math.Round(f)
		lo, hi := float64(math.MinInt32), float64(math.MaxInt32)
		if c.Kind == ddl.KindBigInt {
			lo, hi = -9.223372036854775e18, 9.223372036854775e18
		}
		if f < lo || f > hi {
			return nil, fmt.Errorf("%v out of range for %s", f, c.Kind)
		}
		return int64(f), nil
	case ddl.KindDecimal:
		if c.Name == movies.ScoreField && (f < movies.ScoreMin || f > movies.ScoreMax) {
			return nil, fmt.Errorf("score %v outside [%v, %v]", f, movies.ScoreMin, movies.ScoreMax)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unsupported kind %s", c.Kind)
	}
}
