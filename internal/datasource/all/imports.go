// Package all links every datasource backend into the binary.
package all

import (
	_ "movieetl/internal/datasource/file"
	_ "movieetl/internal/datasource/gcs"
	_ "movieetl/internal/datasource/minio"
)
