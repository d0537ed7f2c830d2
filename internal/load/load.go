// Package load populates the destination table from the intermediate
// artifact.
//
// A load is a full refresh: the table is created if needed, emptied with
// its surrogate key restarted, and every artifact row is inserted in one
// transaction committed at the end. A row that fails to insert is logged,
// counted and skipped; it never aborts the load.
package load

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"movieetl/internal/etlerr"
	"movieetl/internal/metrics"
	"movieetl/internal/movies"
	pcsv "movieetl/internal/parser/csv"
	"movieetl/internal/storage"
)

// Options configures a load run.
type Options struct {
	// Table overrides the destination table name.
	Table string
}

// Result summarizes a load run.
type Result struct {
	InputRows int
	Inserted  int
	Failed    int
}

// Run loads the artifact at path through repo. Table creation failures wrap
// etlerr.ErrSchema.
func Run(ctx context.Context, repo storage.Repository, path string, opt Options) (res *Result, err error) {
	start := time.Now()
	defer func() { metrics.RecordStep(metrics.Job, "load", err, time.Since(start)) }()

	log := zap.L().Named("load")

	tbl, err := pcsv.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	td := movies.TableDef()
	if opt.Table != "" {
		td.FQN = opt.Table
	}
	if err := repo.EnsureTable(ctx, td); err != nil {
		log.Error("create table failed", zap.String("table", td.FQN), zap.Error(err))
		return nil, fmt.Errorf("load: ensure table %s: %w: %w", td.FQN, etlerr.ErrSchema, err)
	}

	tx, err := repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("load: begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := tx.Reset(ctx, td.FQN); err != nil {
		return nil, fmt.Errorf("load: reset %s: %w", td.FQN, err)
	}

	b := newBinder(tbl)
	res = &Result{InputRows: tbl.Len()}
	for i, row := range tbl.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := insertRow(ctx, tx, td.FQN, b, row); err != nil {
			res.Failed++
			log.Warn("row skipped",
				zap.Int("line", i+2),
				zap.String("title", first(row, tbl.Index(movies.TitleField))),
				zap.Error(err),
			)
			continue
		}
		res.Inserted++
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("load: commit: %w", err)
	}
	committed = true

	metrics.RecordRow(metrics.Job, metrics.KindInserted, int64(res.Inserted))
	metrics.RecordRow(metrics.Job, metrics.KindInsertFailed, int64(res.Failed))
	log.Info("load complete",
		zap.String("table", td.FQN),
		zap.Int("input_rows", res.InputRows),
		zap.Int("inserted", res.Inserted),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

func insertRow(ctx context.Context, tx storage.Tx, table string, b *binder, row []string) error {
	vals, err := b.bind(row)
	if err != nil {
		return err
	}
	if err := tx.Insert(ctx, table, b.cols, vals); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %w", etlerr.ErrRowInsert, err)
	}
	return nil
}

func first(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
