// Package pipeline runs the extract, transform and load stages in order.
//
// A stage failure aborts the remaining stages. Retries apply to the whole
// chain only: a failed attempt waits for the retry delay and starts again
// from extract. Individual stages and rows are never retried.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"movieetl/internal/config"
	"movieetl/internal/datasource"
	"movieetl/internal/etlerr"
	"movieetl/internal/extract"
	"movieetl/internal/load"
	"movieetl/internal/metrics"
	"movieetl/internal/storage"
	"movieetl/internal/transform"
)

// StageError reports which stage of which attempt failed.
type StageError struct {
	Stage   string
	Attempt int
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s (attempt %d): %v", e.Stage, e.Attempt, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// OpenFunc opens the destination store. It is called once per load.
type OpenFunc func(ctx context.Context) (storage.Repository, error)

// Runner wires the stages to their inputs.
type Runner struct {
	Store     datasource.ObjectStore
	Location  datasource.Location
	Transform transform.Options
	Open      OpenFunc
	Load      load.Options
	Schedule  config.Schedule

	// sleep waits between attempts; tests replace it.
	sleep func(ctx context.Context, d time.Duration) error
}

// Report collects the results of a successful run.
type Report struct {
	Attempts  int
	Source    *extract.Artifact
	Transform *transform.Result
	Load      *load.Result
}

// NewRunner returns a Runner that opens the destination with storage.New.
func NewRunner(store datasource.ObjectStore, loc datasource.Location, sc storage.Config) *Runner {
	return &Runner{
		Store:    store,
		Location: loc,
		Open:     func(ctx context.Context) (storage.Repository, error) { return storage.New(ctx, sc) },
		Schedule: config.DefaultSchedule(),
	}
}

// Run executes the chain, retrying the whole chain up to
// Schedule.Retries times. The error of the last attempt is returned as a
// *StageError.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	log := zap.L().Named("pipeline")
	attempts := r.Schedule.Attempts()
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			log.Warn("retrying pipeline",
				zap.Int("attempt", attempt),
				zap.Duration("delay", r.Schedule.RetryDelay),
				zap.Error(lastErr),
			)
			if err := r.wait(ctx, r.Schedule.RetryDelay); err != nil {
				return nil, fmt.Errorf("pipeline: retry wait: %w", err)
			}
		}

		rep, err := r.runOnce(ctx, attempt)
		metrics.RecordRun(metrics.Job, attempt, err)
		if err == nil {
			rep.Attempts = attempt
			log.Info("pipeline completed", zap.Int("attempt", attempt))
			return rep, nil
		}
		log.Error("pipeline attempt failed",
			zap.Int("attempt", attempt),
			zap.String("kind", etlerr.Kind(err)),
			zap.Error(err),
		)
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (r *Runner) runOnce(ctx context.Context, attempt int) (*Report, error) {
	rep := &Report{}
	var err error

	if rep.Source, err = r.Extract(ctx); err != nil {
		return nil, &StageError{Stage: config.TaskExtract, Attempt: attempt, Err: err}
	}
	if rep.Transform, err = transform.Run(ctx, rep.Source, r.Transform); err != nil {
		return nil, &StageError{Stage: config.TaskTransform, Attempt: attempt, Err: err}
	}
	if rep.Load, err = r.LoadArtifact(ctx, rep.Transform.ArtifactPath); err != nil {
		return nil, &StageError{Stage: config.TaskLoad, Attempt: attempt, Err: err}
	}
	return rep, nil
}

// Extract runs the extract stage alone.
func (r *Runner) Extract(ctx context.Context) (*extract.Artifact, error) {
	return extract.Extract(ctx, r.Store, r.Location)
}

// TransformSource locates the source and runs the transform stage on it.
func (r *Runner) TransformSource(ctx context.Context) (*transform.Result, error) {
	a, err := r.Extract(ctx)
	if err != nil {
		return nil, err
	}
	return transform.Run(ctx, a, r.Transform)
}

// LoadArtifact opens the destination, loads the artifact at path and closes
// the connection. An empty path means the configured transform output.
func (r *Runner) LoadArtifact(ctx context.Context, path string) (*load.Result, error) {
	if path == "" {
		path = r.Transform.OutputPath
	}
	if path == "" {
		path = transform.DefaultOutputPath
	}
	repo, err := r.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := repo.Close(ctx); cerr != nil {
			zap.L().Named("pipeline").Warn("close destination", zap.Error(cerr))
		}
	}()
	return load.Run(ctx, repo, path, r.Load)
}

func (r *Runner) wait(ctx context.Context, d time.Duration) error {
	if r.sleep != nil {
		return r.sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
