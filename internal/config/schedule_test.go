package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeSchedule(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "schedule.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDefaultSchedule(t *testing.T) {
	t.Parallel()

	s := DefaultSchedule()
	if err := s.Validate(); err != nil {
		t.Fatalf("default schedule invalid: %v", err)
	}
	if s.Attempts() != 2 || s.RetryDelay != 5*time.Minute || s.Interval != 24*time.Hour {
		t.Fatalf("defaults = %+v", s)
	}
}

func TestLoadSchedule(t *testing.T) {
	t.Parallel()

	p := writeSchedule(t, `
dag_id: movies_nightly
retries: 3
retry_delay: 30s
tags: [movies]
`)
	s, err := LoadSchedule(p)
	if err != nil {
		t.Fatalf("LoadSchedule: %v", err)
	}
	if s.DagID != "movies_nightly" || s.Retries != 3 || s.RetryDelay != 30*time.Second {
		t.Fatalf("file values not applied: %+v", s)
	}
	if s.Interval != 24*time.Hour || s.Owner != "data_engineer" {
		t.Fatalf("defaults not kept: %+v", s)
	}
	if len(s.Tags) != 1 || s.Tags[0] != "movies" {
		t.Fatalf("Tags = %q", s.Tags)
	}

	if s, err := LoadSchedule(""); err != nil || s.DagID != "etl_pipeline" {
		t.Fatalf("empty path: %+v, %v", s, err)
	}
}

func TestLoadSchedule_Invalid(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
		want error
	}{
		{"negative_retries", "retries: -1\n", ErrInvalidRetries},
		{"negative_delay", "retry_delay: -5m\n", ErrInvalidRetryDelay},
		{"zero_interval", "schedule_interval: 0s\n", ErrInvalidInterval},
		{"reordered_chain", "chain: transform_data >> extract_from_minio >> load_to_postgresql\n", ErrInvalidChain},
		{"short_chain", "chain: extract_from_minio >> transform_data\n", ErrInvalidChain},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadSchedule(writeSchedule(t, tc.body))
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v; want %v", err, tc.want)
			}
		})
	}

	if _, err := LoadSchedule(writeSchedule(t, "retries: [\n")); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := LoadSchedule(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file err = %v", err)
	}
}
