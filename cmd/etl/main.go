// Command etl runs the movie pipeline once.
//
// Without stage flags it runs extract >> transform >> load with the
// configured whole-run retries, then prints a validation summary. With
// -extract, -transform or -load it runs only that stage.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"movieetl/internal/config"
	"movieetl/internal/datasource"
	_ "movieetl/internal/datasource/all"
	"movieetl/internal/load"
	"movieetl/internal/logging"
	"movieetl/internal/metrics"
	"movieetl/internal/metrics/datadog"
	"movieetl/internal/metrics/prompush"
	"movieetl/internal/pipeline"
	"movieetl/internal/report"
	"movieetl/internal/storage"
	_ "movieetl/internal/storage/all"
	"movieetl/internal/transform"
)

// Stages selectable from the command line.
const (
	stageAll       = ""
	stageExtract   = "extract"
	stageTransform = "transform"
	stageLoad      = "load"
)

func main() {
	extractOnly := flag.Bool("extract", false, "run only the extract stage")
	transformOnly := flag.Bool("transform", false, "run only the transform stage")
	loadOnly := flag.Bool("load", false, "run only the load stage")

	cfg, err := config.Load()
	if err != nil {
		fatalf("config: %v", err)
	}
	stage, err := pickStage(*extractOnly, *transformOnly, *loadOnly)
	if err != nil {
		fatalf("%v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	closeMetrics := setupMetrics(cfg)

	err = run(ctx, cfg, stage, os.Stdout)

	closeMetrics()
	stop()
	if err != nil {
		logger.Error("etl failed", zap.String("stage", stage), zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func pickStage(e, t, l bool) (string, error) {
	stage, n := stageAll, 0
	for name, on := range map[string]bool{stageExtract: e, stageTransform: t, stageLoad: l} {
		if on {
			stage = name
			n++
		}
	}
	if n > 1 {
		return "", errors.New("at most one of -extract, -transform, -load may be set")
	}
	return stage, nil
}

// run executes the selected stage (or the whole chain) and writes a
// human-readable summary to out.
func run(ctx context.Context, cfg *config.Config, stage string, out io.Writer) error {
	sched, err := config.LoadSchedule(cfg.SchedulePath)
	if err != nil {
		return err
	}

	store, err := datasource.New(ctx, datasource.Config{
		Kind:            cfg.SourceKind,
		Root:            cfg.SourceRoot,
		Endpoint:        cfg.Endpoint,
		AccessKey:       cfg.AccessKey,
		SecretKey:       cfg.SecretKey,
		Secure:          cfg.Secure,
		CredentialsFile: cfg.GCSCredentials,
	})
	if err != nil {
		return err
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}

	sc := storage.Config{Kind: cfg.StorageKind, DSN: cfg.DSN}
	r := pipeline.NewRunner(store, datasource.Location{Bucket: cfg.Bucket, Key: cfg.Key}, sc)
	r.Transform = transform.Options{Encodings: cfg.Encodings, OutputPath: cfg.ArtifactPath}
	r.Load = load.Options{Table: cfg.Table}
	r.Schedule = sched

	switch stage {
	case stageExtract:
		a, err := r.Extract(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Extract completed: %s (%d bytes)\n", a.Location, a.Info.Size)
		return nil

	case stageTransform:
		res, err := r.TransformSource(ctx)
		if err != nil {
			return err
		}
		printTransform(out, res)
		return nil

	case stageLoad:
		res, err := r.LoadArtifact(ctx, cfg.ArtifactPath)
		if err != nil {
			return err
		}
		printLoad(out, res)
		return nil
	}

	fmt.Fprintf(out, "Starting ETL pipeline %s\n", sched.DagID)
	rep, err := r.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Extract completed: %s\n", rep.Source.Location)
	printTransform(out, rep.Transform)
	printLoad(out, rep.Load)
	fmt.Fprintf(out, "ETL pipeline completed successfully (attempt %d)\n\n", rep.Attempts)

	return validate(ctx, sc, cfg.Table, cfg.TopN, out)
}

// validate reads the loaded table back and prints the row count and the
// top movies by score.
func validate(ctx context.Context, sc storage.Config, table string, topN int, out io.Writer) error {
	rd, err := report.Open(ctx, sc, table)
	if err != nil {
		return err
	}
	defer rd.Close()

	n, err := rd.Count(ctx)
	if err != nil {
		return err
	}
	top, err := rd.Top(ctx, topN)
	if err != nil {
		return err
	}
	return report.Print(out, n, top)
}

func printTransform(out io.Writer, res *transform.Result) {
	fmt.Fprintf(out, "Transform completed: %s (%s, %d -> %d rows; dropped %d missing, %d out of range; %d cells coerced)\n",
		res.ArtifactPath, res.Encoding, res.InputRows, res.OutputRows,
		res.DroppedMissing, res.DroppedOutOfRange, res.CoercedCells)
}

func printLoad(out io.Writer, res *load.Result) {
	fmt.Fprintf(out, "Load completed: %d inserted, %d failed of %d rows\n", res.Inserted, res.Failed, res.InputRows)
}

// setupMetrics installs the configured metrics backend and returns a func
// that flushes it at exit.
func setupMetrics(cfg *config.Config) func() {
	log := zap.L().Named("metrics")

	var (
		b   metrics.Backend
		err error
	)
	switch cfg.MetricsBackend {
	case "prompush":
		b, err = prompush.NewBackend(metrics.Job, cfg.PushgatewayURL)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       cfg.DogStatsDAddr,
			Namespace:  "movies.",
			GlobalTags: []string{"job:" + metrics.Job},
		})
	default:
		return func() {}
	}
	if err != nil {
		log.Warn("metrics backend unavailable; metrics disabled", zap.String("backend", cfg.MetricsBackend), zap.Error(err))
		return func() {}
	}

	metrics.SetBackend(b)
	log.Info("metrics enabled", zap.String("backend", cfg.MetricsBackend))
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics flush failed", zap.Error(err))
		}
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
