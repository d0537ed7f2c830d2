// Package datasource abstracts where the raw source file comes from.
//
// Stages depend on the ObjectStore capability ("fetch bytes by bucket and
// key") and never on a concrete client. Backends live in subpackages and
// register themselves by kind; import datasource/all to link them in.
package datasource

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// Source is anything that can be opened for reading.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Location addresses one object in a store.
type Location struct {
	Bucket string
	Key    string
}

func (l Location) String() string {
	if l.Bucket == "" {
		return l.Key
	}
	return l.Bucket + "/" + l.Key
}

// ObjectInfo is the metadata returned by Stat.
type ObjectInfo struct {
	Size    int64
	ModTime time.Time
}

// ObjectStore fetches objects by location.
//
// Stat must return an error wrapping etlerr.ErrNotFound when the object (or
// its bucket) does not exist.
type ObjectStore interface {
	Stat(ctx context.Context, loc Location) (ObjectInfo, error)
	Fetch(ctx context.Context, loc Location) (io.ReadCloser, error)
}

// Config selects and configures an ObjectStore backend.
type Config struct {
	// Kind is the backend name: "file", "minio" or "gcs".
	Kind string

	// Root is the base directory for the file backend.
	Root string

	// Endpoint is the host[:port] of an S3-compatible server, or an
	// alternative GCS endpoint (e.g. an emulator).
	Endpoint  string
	AccessKey string
	SecretKey string
	Secure    bool

	// CredentialsFile is an optional GCS service account key.
	CredentialsFile string
}

// Factory constructs a backend from Config.
type Factory func(ctx context.Context, cfg Config) (ObjectStore, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under kind. It panics on duplicates.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	kind = strings.ToLower(kind)
	if _, dup := factories[kind]; dup {
		panic("datasource: Register called twice for " + kind)
	}
	factories[kind] = f
}

// New constructs the backend named by cfg.Kind ("file" when empty).
func New(ctx context.Context, cfg Config) (ObjectStore, error) {
	kind := strings.ToLower(strings.TrimSpace(cfg.Kind))
	if kind == "" {
		kind = "file"
	}
	mu.RLock()
	f, ok := factories[kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("datasource: unknown kind %q (registered: %s)", kind, strings.Join(Kinds(), ", "))
	}
	return f(ctx, cfg)
}

// Kinds lists the registered backends.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
