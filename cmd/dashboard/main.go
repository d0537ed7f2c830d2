// Command dashboard serves the pipeline status page and lets an operator
// trigger a run of the etl command.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"movieetl/internal/config"
	"movieetl/internal/logging"
	"movieetl/internal/report"
	"movieetl/internal/storage"
	"movieetl/internal/webui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fatalf("%v", err)
	}
	defer func() { _ = logger.Sync() }()

	sched, err := config.LoadSchedule(cfg.SchedulePath)
	if err != nil {
		fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := webui.NewServer(newServerConfig(cfg, sched))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ListenAndServe(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("dashboard shutting down")
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Error("dashboard stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func newServerConfig(cfg *config.Config, sched config.Schedule) webui.Config {
	sc := storage.Config{Kind: cfg.StorageKind, DSN: cfg.DSN}
	return webui.Config{
		Addr:  cfg.DashboardAddr,
		DagID: sched.DagID,
		Table: cfg.Table,
		TopN:  cfg.TopN,
		Open: func(ctx context.Context) (webui.Movies, error) {
			return report.Open(ctx, sc, cfg.Table)
		},
		Run: webui.ExecRunner(cfg.ETLCommand),
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
