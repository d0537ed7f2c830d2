// Package webui serves the pipeline status dashboard.
//
// Routes:
//
//	GET  /         → HTML status page (row count, top movies)
//	GET  /data     → every loaded movie as JSON, best score first
//	POST /run-etl  → runs the ETL command; one run at a time
//	GET  /logs     → outcomes of recent runs
//	GET  /metrics  → Prometheus exposition of dashboard metrics
//	GET  /healthz  → liveness
package webui

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"movieetl/internal/report"
)

// Movies is the read side the dashboard needs. *report.Reader implements it.
type Movies interface {
	Count(ctx context.Context) (int, error)
	Top(ctx context.Context, n int) ([]report.Movie, error)
	All(ctx context.Context) ([]report.Movie, error)
	Close() error
}

// OpenFunc opens the store for one request.
type OpenFunc func(ctx context.Context) (Movies, error)

// RunFunc executes one pipeline run and returns its combined output.
type RunFunc func(ctx context.Context, runID string) ([]byte, error)

// Config controls the server.
type Config struct {
	Addr  string
	DagID string
	Table string
	// TopN is the number of movies on the status page.
	TopN int
	// History is the number of run outcomes kept for /logs.
	History int

	Open OpenFunc
	Run  RunFunc
}

// RunRecord is one entry of /logs.
type RunRecord struct {
	ID       string    `json:"run_id"`
	Started  time.Time `json:"started"`
	Duration float64   `json:"duration_seconds"`
	Status   string    `json:"status"`
	Message  string    `json:"message"`
}

// Server holds the routes and run state.
type Server struct {
	cfg  Config
	mux  *http.ServeMux
	tmpl *template.Template
	log  *zap.Logger

	runMu sync.Mutex // held for the duration of a run

	histMu  sync.Mutex
	history []RunRecord

	reg         *prometheus.Registry
	runs        *prometheus.CounterVec
	runDuration prometheus.Histogram
}

//go:embed index.html
var indexHTML string

// NewServer constructs a Server with its routes and embedded template.
func NewServer(cfg Config) *Server {
	if cfg.TopN <= 0 {
		cfg.TopN = 5
	}
	if cfg.History <= 0 {
		cfg.History = 20
	}
	p := message.NewPrinter(language.English)
	s := &Server{
		cfg: cfg,
		mux: http.NewServeMux(),
		tmpl: template.Must(template.New("index").Funcs(template.FuncMap{
			"money": func(v int64) string {
				if v == 0 {
					return "N/A"
				}
				return p.Sprintf("$%d", v)
			},
		}).Parse(indexHTML)),
		log: zap.L().Named("webui"),
		reg: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_etl_runs_total",
			Help: "Pipeline runs triggered from the dashboard.",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dashboard_etl_run_duration_seconds",
			Help:    "Duration of pipeline runs triggered from the dashboard.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}
	s.reg.MustRegister(s.runs, s.runDuration)
	s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("dashboard listening", zap.String("addr", s.cfg.Addr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /data", s.handleData)
	s.mux.HandleFunc("POST /run-etl", s.handleRun)
	s.mux.HandleFunc("GET /logs", s.handleLogs)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
}

type indexData struct {
	Now   string
	DagID string
	Table string
	Total int
	Top   []report.Movie
	Error string
}

// handleIndex renders the status page. A store error is shown on the page
// instead of failing the request.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{
		Now:   time.Now().Format("2006-01-02 15:04:05"),
		DagID: s.cfg.DagID,
		Table: s.cfg.Table,
	}
	if err := s.withMovies(r.Context(), func(m Movies) error {
		var err error
		if data.Total, err = m.Count(r.Context()); err != nil {
			return err
		}
		data.Top, err = m.Top(r.Context(), s.cfg.TopN)
		return err
	}); err != nil {
		s.log.Warn("dashboard stats unavailable", zap.Error(err))
		data.Total, data.Top, data.Error = 0, nil, err.Error()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, data); err != nil {
		s.log.Error("template error", zap.Error(err))
	}
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	var rows []report.Movie
	err := s.withMovies(r.Context(), func(m Movies) error {
		var err error
		rows, err = m.All(r.Context())
		return err
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	if rows == nil {
		rows = []report.Movie{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": rows, "count": len(rows)})
}

// handleRun starts a pipeline run and reports its outcome. A request that
// arrives while another run is in progress is rejected with 409.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	runID := uuid.NewString()
	if s.cfg.Run == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "no ETL command configured"})
		return
	}
	if !s.runMu.TryLock() {
		writeJSON(w, http.StatusConflict, map[string]string{
			"message": "ETL Pipeline is already running",
			"run_id":  runID,
		})
		return
	}
	defer s.runMu.Unlock()

	log := s.log.With(zap.String("run_id", runID))
	log.Info("pipeline run started")
	start := time.Now()
	// The run outlives a disconnecting client.
	out, err := s.cfg.Run(context.WithoutCancel(r.Context()), runID)
	elapsed := time.Since(start)

	rec := RunRecord{ID: runID, Started: start, Duration: elapsed.Seconds(), Status: "success"}
	status := http.StatusOK
	if err != nil {
		rec.Status = "failure"
		rec.Message = "ETL Pipeline failed: " + err.Error()
		if len(out) > 0 {
			rec.Message += ": " + tail(string(out), 2048)
		}
		status = http.StatusInternalServerError
		log.Error("pipeline run failed", zap.Duration("elapsed", elapsed), zap.Error(err))
	} else {
		rec.Message = "ETL Pipeline executed successfully!"
		log.Info("pipeline run finished", zap.Duration("elapsed", elapsed))
	}
	s.runs.WithLabelValues(rec.Status).Inc()
	s.runDuration.Observe(elapsed.Seconds())
	s.remember(rec)

	writeJSON(w, status, map[string]string{"message": rec.Message, "run_id": runID})
}

func (s *Server) handleLogs(w http.ResponseWriter, _ *http.Request) {
	s.histMu.Lock()
	runs := make([]RunRecord, len(s.history))
	for i, rec := range s.history {
		runs[len(runs)-1-i] = rec
	}
	s.histMu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) remember(rec RunRecord) {
	s.histMu.Lock()
	defer s.histMu.Unlock()
	s.history = append(s.history, rec)
	if n := len(s.history) - s.cfg.History; n > 0 {
		s.history = append(s.history[:0], s.history[n:]...)
	}
}

func (s *Server) withMovies(ctx context.Context, fn func(Movies) error) error {
	if s.cfg.Open == nil {
		return errors.New("webui: no store configured")
	}
	m, err := s.cfg.Open(ctx)
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
