// Package extract locates the raw source object. It reads nothing and
// transforms nothing; the returned Artifact is opened later by transform.
package extract

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"movieetl/internal/datasource"
	"movieetl/internal/metrics"
)

// Artifact references a located source object.
type Artifact struct {
	Location datasource.Location
	Info     datasource.ObjectInfo

	store datasource.ObjectStore
}

// Open fetches the object bytes. It satisfies datasource.Source.
func (a *Artifact) Open(ctx context.Context) (io.ReadCloser, error) {
	return a.store.Fetch(ctx, a.Location)
}

// Extract checks that loc exists in store and returns a handle to it.
// A missing object yields an error wrapping etlerr.ErrNotFound.
func Extract(ctx context.Context, store datasource.ObjectStore, loc datasource.Location) (_ *Artifact, err error) {
	start := time.Now()
	defer func() { metrics.RecordStep(metrics.Job, "extract", err, time.Since(start)) }()

	log := zap.L().Named("extract")
	log.Info("locating source", zap.String("bucket", loc.Bucket), zap.String("key", loc.Key))

	info, err := store.Stat(ctx, loc)
	if err != nil {
		log.Error("source unavailable", zap.Stringer("location", loc), zap.Error(err))
		return nil, fmt.Errorf("extract %s: %w", loc, err)
	}

	log.Info("source located",
		zap.Stringer("location", loc),
		zap.Int64("bytes", info.Size),
		zap.Time("modified", info.ModTime),
	)
	return &Artifact{Location: loc, Info: info, store: store}, nil
}
