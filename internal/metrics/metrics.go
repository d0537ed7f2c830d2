// Package metrics records operational metrics from the pipeline stages
// through a pluggable Backend.
//
// The global backend defaults to a no-op, so instrumentation is always safe
// to call. Concrete systems (Prometheus Pushgateway, Datadog) live in
// subpackages and are installed with SetBackend at startup.
package metrics

import (
	"strconv"
	"sync"
	"time"
)

// Job is the job label attached to every pipeline metric.
const Job = "movies_etl"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordStep counts one execution of a pipeline stage and observes its
// duration, labelled with the outcome.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}
	b := current()
	b.IncCounter("etl_step_total", 1, lbls)
	b.ObserveHistogram("etl_step_duration_seconds", d.Seconds(), lbls)
}

// Record kinds reported by the stages.
const (
	KindInput             = "input"
	KindDroppedMissing    = "dropped_missing"
	KindDroppedOutOfRange = "dropped_out_of_range"
	KindCoerced           = "coerced"
	KindOutput            = "output"
	KindInserted          = "inserted"
	KindInsertFailed      = "insert_failed"
)

// RecordRow increments a record-level counter for the given job and kind.
// Non-positive deltas are ignored.
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter("etl_records_total", float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordRun counts a whole pipeline run with its attempt number and outcome.
func RecordRun(job string, attempt int, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	current().IncCounter("etl_runs_total", 1, Labels{
		"job":     job,
		"status":  status,
		"attempt": strconv.Itoa(attempt),
	})
}
