// Package gcs fetches source objects from Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"movieetl/internal/datasource"
	"movieetl/internal/etlerr"
)

func init() {
	datasource.Register("gcs", func(ctx context.Context, cfg datasource.Config) (datasource.ObjectStore, error) {
		return New(ctx, cfg)
	})
}

// Store is a datasource.ObjectStore over a GCS client.
type Store struct {
	client *storage.Client
}

// New creates a client using application default credentials, or
// cfg.CredentialsFile and cfg.Endpoint when set.
func New(ctx context.Context, cfg datasource.Config) (*Store, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: new client: %w", err)
	}
	return &Store{client: client}, nil
}

// Close releases the client.
func (s *Store) Close() error { return s.client.Close() }

// Stat implements datasource.ObjectStore.
func (s *Store) Stat(ctx context.Context, loc datasource.Location) (datasource.ObjectInfo, error) {
	attrs, err := s.client.Bucket(loc.Bucket).Object(loc.Key).Attrs(ctx)
	if err != nil {
		return datasource.ObjectInfo{}, wrap("attrs", loc, err)
	}
	return datasource.ObjectInfo{Size: attrs.Size, ModTime: attrs.Updated}, nil
}

// Fetch implements datasource.ObjectStore.
func (s *Store) Fetch(ctx context.Context, loc datasource.Location) (io.ReadCloser, error) {
	r, err := s.client.Bucket(loc.Bucket).Object(loc.Key).NewReader(ctx)
	if err != nil {
		return nil, wrap("read", loc, err)
	}
	return r, nil
}

func wrap(op string, loc datasource.Location, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("gcs %s gs://%s: %w", op, loc, etlerr.ErrNotFound)
	}
	return fmt.Errorf("gcs %s gs://%s: %w", op, loc, err)
}

func isNotFound(err error) bool {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return true
	}
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
