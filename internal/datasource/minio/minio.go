// Package minio fetches source objects from an S3-compatible server.
package minio

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"movieetl/internal/datasource"
	"movieetl/internal/etlerr"
)

func init() {
	datasource.Register("minio", func(_ context.Context, cfg datasource.Config) (datasource.ObjectStore, error) {
		return New(cfg)
	})
}

// Store is a datasource.ObjectStore over a minio client.
type Store struct {
	client *minio.Client
}

// New creates a client for cfg.Endpoint with static credentials.
func New(cfg datasource.Config) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio: endpoint is required")
	}
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: new client: %w", err)
	}
	return &Store{client: cli}, nil
}

// Stat implements datasource.ObjectStore.
func (s *Store) Stat(ctx context.Context, loc datasource.Location) (datasource.ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, loc.Bucket, loc.Key, minio.StatObjectOptions{})
	if err != nil {
		return datasource.ObjectInfo{}, wrap("stat", loc, err)
	}
	return datasource.ObjectInfo{Size: info.Size, ModTime: info.LastModified}, nil
}

// Fetch implements datasource.ObjectStore.
func (s *Store) Fetch(ctx context.Context, loc datasource.Location) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, loc.Bucket, loc.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, wrap("get", loc, err)
	}
	// GetObject is lazy; Stat surfaces a missing key before the first Read.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, wrap("get", loc, err)
	}
	return obj, nil
}

func wrap(op string, loc datasource.Location, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("minio %s %s: %w", op, loc, etlerr.ErrNotFound)
	}
	return fmt.Errorf("minio %s %s: %w", op, loc, err)
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return true
	}
	return resp.StatusCode == http.StatusNotFound
}
