package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Task ids of the pipeline chain, in execution order.
const (
	TaskExtract   = "extract_from_minio"
	TaskTransform = "transform_data"
	TaskLoad      = "load_to_postgresql"
)

// Tasks is the only chain the pipeline runs.
var Tasks = []string{TaskExtract, TaskTransform, TaskLoad}

// Schedule validation errors.
var (
	ErrInvalidRetries    = errors.New("retries must be non-negative")
	ErrInvalidRetryDelay = errors.New("retry_delay must be non-negative")
	ErrInvalidInterval   = errors.New("schedule_interval must be positive")
	ErrInvalidChain      = errors.New("chain must be " + strings.Join(Tasks, " >> "))
)

// Schedule describes how the pipeline is run: its identity, cadence and
// whole-run retry policy.
type Schedule struct {
	DagID       string        `yaml:"dag_id"`
	Description string        `yaml:"description"`
	Owner       string        `yaml:"owner"`
	Interval    time.Duration `yaml:"schedule_interval"`
	Retries     int           `yaml:"retries"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
	Tags        []string      `yaml:"tags"`
	Chain       string        `yaml:"chain"`
}

// DefaultSchedule returns the built-in schedule: daily, one retry after
// five minutes.
func DefaultSchedule() Schedule {
	return Schedule{
		DagID:       "etl_pipeline",
		Description: "ETL Pipeline: MinIO -> Transform -> PostgreSQL",
		Owner:       "data_engineer",
		Interval:    24 * time.Hour,
		Retries:     1,
		RetryDelay:  5 * time.Minute,
		Tags:        []string{"etl", "minio", "postgresql", "movies"},
		Chain:       strings.Join(Tasks, " >> "),
	}
}

// LoadSchedule reads a YAML schedule from path. Fields absent from the file
// keep their DefaultSchedule values; an empty path returns the defaults.
func LoadSchedule(path string) (Schedule, error) {
	s := DefaultSchedule()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Schedule{}, fmt.Errorf("failed to read schedule file: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Schedule{}, fmt.Errorf("failed to parse schedule YAML: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Schedule{}, fmt.Errorf("schedule validation failed: %w", err)
	}
	return s, nil
}

// Validate checks the retry policy and the task chain.
func (s Schedule) Validate() error {
	if s.Retries < 0 {
		return ErrInvalidRetries
	}
	if s.RetryDelay < 0 {
		return ErrInvalidRetryDelay
	}
	if s.Interval <= 0 {
		return ErrInvalidInterval
	}
	got := s.Steps()
	if len(got) != len(Tasks) {
		return fmt.Errorf("%w: got %q", ErrInvalidChain, s.Chain)
	}
	for i := range Tasks {
		if got[i] != Tasks[i] {
			return fmt.Errorf("%w: got %q", ErrInvalidChain, s.Chain)
		}
	}
	return nil
}

// Steps splits Chain on ">>".
func (s Schedule) Steps() []string {
	return splitList(s.Chain, ">>")
}

// Attempts is the total number of whole-run attempts: one plus Retries.
func (s Schedule) Attempts() int { return s.Retries + 1 }
