package webui

import (
	"context"
	"errors"
	"os"
	"os/exec"
)

// ExecRunner returns a RunFunc that runs argv as a subprocess. The run id
// is passed to the child as ETL_RUN_ID.
func ExecRunner(argv []string) RunFunc {
	return func(ctx context.Context, runID string) ([]byte, error) {
		if len(argv) == 0 {
			return nil, errors.New("webui: empty ETL command")
		}
		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		cmd.Env = append(os.Environ(), "ETL_RUN_ID="+runID)
		return cmd.CombinedOutput()
	}
}
