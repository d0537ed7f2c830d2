// Package storage defines the destination-store abstraction used by the
// loader and a factory that maps a storage kind to a backend.
//
// Backends register themselves in init; importing storage/all links every
// built-in backend into the binary. The rest of the application depends
// only on Repository and Tx.
package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"movieetl/internal/ddl"
	"movieetl/internal/etlerr"
)

// Config selects and configures a backend.
type Config struct {
	// Kind is the backend name: "postgres", "sqlite", "mysql" or "mssql".
	Kind string
	// DSN is the driver-specific connection string.
	DSN string
}

// Repository is one open connection to the destination store.
type Repository interface {
	// EnsureTable creates td if it does not exist. It is idempotent.
	EnsureTable(ctx context.Context, td ddl.TableDef) error
	// Begin starts the transaction the load runs in.
	Begin(ctx context.Context) (Tx, error)
	// Close releases the connection.
	Close(ctx context.Context) error
}

// Tx is a load transaction.
type Tx interface {
	// Reset removes every row from table and restarts its surrogate key.
	Reset(ctx context.Context, table string) error
	// Insert writes one row. A failed insert is rolled back to a savepoint
	// so the transaction stays usable for the next row.
	Insert(ctx context.Context, table string, cols []string, vals []any) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

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
		panic("storage: Register called twice for " + kind)
	}
	factories[kind] = f
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

// New opens a Repository for cfg. Failing to reach the store yields an
// error wrapping etlerr.ErrConnection.
func New(ctx context.Context, cfg Config) (Repository, error) {
	kind := strings.ToLower(strings.TrimSpace(cfg.Kind))
	mu.RLock()
	f, ok := factories[kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unknown kind %q (registered: %s)", cfg.Kind, strings.Join(Kinds(), ", "))
	}
	repo, err := f(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w: %w", kind, etlerr.ErrConnection, err)
	}
	return repo, nil
}
