// Package transform turns the raw source file into the cleaned intermediate
// artifact.
//
// The stage runs a fixed sequence of steps over an in-memory table:
//
//	decode -> parse -> drop rows missing title/score -> coerce numerics to
//	number-or-zero -> trim title -> keep score in [0,10] -> project -> write
//
// Dropping a row for a missing title or score and zero-filling a bad number
// are deliberately different policies and stay in separate steps.
package transform

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"movieetl/internal/datasource"
	"movieetl/internal/metrics"
	"movieetl/internal/movies"
	pcsv "movieetl/internal/parser/csv"
)

// DefaultOutputPath is where the artifact is written when Options.OutputPath
// is empty.
const DefaultOutputPath = "movies_transformed.csv"

// Options configures a transform run.
type Options struct {
	// Encodings is the decode fallback order; empty means
	// pcsv.DefaultEncodings.
	Encodings []string

	// OutputPath is the artifact destination.
	OutputPath string
}

// Result summarizes a transform run.
type Result struct {
	Encoding          string
	InputRows         int
	DroppedMissing    int
	DroppedOutOfRange int
	CoercedCells      int
	OutputRows        int
	Columns           []string
	ArtifactPath      string
	Checksum          uint64
}

// Run reads src, cleans it and writes the artifact. Decode failures wrap
// etlerr.ErrDecode.
func Run(ctx context.Context, src datasource.Source, opt Options) (res *Result, err error) {
	start := time.Now()
	defer func() { metrics.RecordStep(metrics.Job, "transform", err, time.Since(start)) }()

	log := zap.L().Named("transform")
	out := opt.OutputPath
	if out == "" {
		out = DefaultOutputPath
	}

	raw, err := readAll(ctx, src)
	if err != nil {
		return nil, err
	}

	text, enc, err := pcsv.Decode(raw, opt.Encodings)
	if err != nil {
		log.Error("decode failed", zap.Error(err))
		return nil, fmt.Errorf("transform: %w", err)
	}
	log.Info("source decoded", zap.String("encoding", enc), zap.Int("bytes", len(raw)))

	tbl, err := pcsv.Read(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("transform: parse source: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res = &Result{Encoding: enc, InputRows: tbl.Len(), ArtifactPath: out}
	for _, f := range []string{movies.TitleField, movies.ScoreField} {
		if !tbl.Has(f) {
			log.Warn("required column absent; every row is dropped",
				zap.String("column", f), zap.Strings("header", tbl.Header))
		}
	}
	res.DroppedMissing = dropMissing(tbl)
	res.CoercedCells = coerceNumeric(tbl, movies.NumericFields)
	trimTitle(tbl)
	res.DroppedOutOfRange = filterScore(tbl)

	cleaned := project(tbl, movies.ColumnMapping)
	res.OutputRows = cleaned.Len()
	res.Columns = append([]string(nil), cleaned.Header...)

	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("transform: %w", err)
		}
	}
	if res.Checksum, err = cleaned.WriteFile(out); err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}

	metrics.RecordRow(metrics.Job, metrics.KindInput, int64(res.InputRows))
	metrics.RecordRow(metrics.Job, metrics.KindDroppedMissing, int64(res.DroppedMissing))
	metrics.RecordRow(metrics.Job, metrics.KindCoerced, int64(res.CoercedCells))
	metrics.RecordRow(metrics.Job, metrics.KindDroppedOutOfRange, int64(res.DroppedOutOfRange))
	metrics.RecordRow(metrics.Job, metrics.KindOutput, int64(res.OutputRows))

	log.Info("artifact written",
		zap.String("path", out),
		zap.Int("input_rows", res.InputRows),
		zap.Int("dropped_missing", res.DroppedMissing),
		zap.Int("coerced_cells", res.CoercedCells),
		zap.Int("dropped_out_of_range", res.DroppedOutOfRange),
		zap.Int("output_rows", res.OutputRows),
		zap.Strings("columns", res.Columns),
		zap.String("xxh3", fmt.Sprintf("%016x", res.Checksum)),
	)
	return res, nil
}

func readAll(ctx context.Context, src datasource.Source) ([]byte, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("transform: open source: %w", err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("transform: read source: %w", err)
	}
	return b, nil
}
