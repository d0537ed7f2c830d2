// Package etlerr holds the error taxonomy shared by the pipeline stages.
//
// Stage-level failures wrap one of the sentinels below with fmt.Errorf("...: %w")
// and propagate to the orchestrator. Row-level insert failures wrap ErrRowInsert
// but are only logged and counted by the loader; they never leave the load stage.
package etlerr

import "errors"

var (
	// ErrNotFound reports that the configured source object does not exist.
	ErrNotFound = errors.New("source not found")

	// ErrDecode reports that no encoding in the fallback list could decode the source.
	ErrDecode = errors.New("decode failed")

	// ErrConnection reports that the destination store could not be reached.
	ErrConnection = errors.New("destination unreachable")

	// ErrSchema reports that the destination table could not be created or prepared.
	ErrSchema = errors.New("schema setup failed")

	// ErrRowInsert reports a single row that could not be inserted.
	ErrRowInsert = errors.New("row insert failed")
)

// Kind returns a short label for the sentinel wrapped by err, or "unknown".
// It is used for log fields and metric labels.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrConnection):
		return "connection"
	case errors.Is(err, ErrSchema):
		return "schema"
	case errors.Is(err, ErrRowInsert):
		return "row_insert"
	default:
		return "unknown"
	}
}
