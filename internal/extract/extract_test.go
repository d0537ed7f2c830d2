package extract

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"movieetl/internal/datasource"
	"movieetl/internal/datasource/file"
	"movieetl/internal/etlerr"
)

func TestExtract(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "movies"), 0o755); err != nil {
		t.Fatal(err)
	}
	payload := "movie_title,imdb_score\nAvatar,7.9\n"
	if err := os.WriteFile(filepath.Join(root, "movies", "Movies.csv"), []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}
	store := file.NewStore(root)

	t.Run("found", func(t *testing.T) {
		t.Parallel()
		loc := datasource.Location{Bucket: "movies", Key: "Movies.csv"}
		a, err := Extract(context.Background(), store, loc)
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if a.Location != loc || a.Info.Size != int64(len(payload)) {
			t.Fatalf("artifact = %+v", a)
		}
		rc, err := a.Open(context.Background())
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		defer rc.Close()
		b, _ := io.ReadAll(rc)
		if string(b) != payload {
			t.Fatalf("content = %q", b)
		}
	})

	t.Run("missing_object", func(t *testing.T) {
		t.Parallel()
		_, err := Extract(context.Background(), store, datasource.Location{Bucket: "movies", Key: "Other.csv"})
		if !errors.Is(err, etlerr.ErrNotFound) {
			t.Fatalf("err = %v; want ErrNotFound", err)
		}
	})

	t.Run("missing_bucket", func(t *testing.T) {
		t.Parallel()
		_, err := Extract(context.Background(), store, datasource.Location{Bucket: "nope", Key: "Movies.csv"})
		if !errors.Is(err, etlerr.ErrNotFound) {
			t.Fatalf("err = %v; want ErrNotFound", err)
		}
	})
}
