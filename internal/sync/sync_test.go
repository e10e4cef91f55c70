package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/augmentcode/codesync/internal/api"
	"github.com/augmentcode/codesync/internal/cache"
	"github.com/augmentcode/codesync/internal/transport"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	full := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func acceptingUploadServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Blobs []api.BatchUploadBlob `json:"blobs"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		names := make([]string, len(req.Blobs))
		for i, b := range req.Blobs {
			names[i] = b.Path
		}
		_ = json.NewEncoder(w).Encode(api.BatchUploadResponse{BlobNames: names})
	}))
}

func TestSyncFullUploadsEveryFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package a\n")
	writeFile(t, dir, "b.go", "package b\n")

	srv := acceptingUploadServer(t)
	defer srv.Close()

	client := api.New(transport.New(transport.Config{BaseURL: srv.URL}), "")
	e := New(dir, client, cache.New())

	progress, err := e.SyncFull(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if progress.FilesScanned != 2 {
		t.Errorf("expected 2 files scanned, got %d", progress.FilesScanned)
	}
	if progress.BlobsUploaded != 2 {
		t.Errorf("expected 2 blobs uploaded, got %d", progress.BlobsUploaded)
	}
	if e.Status() != StatusComplete {
		t.Errorf("expected StatusComplete, got %v", e.Status())
	}
}

func TestSyncIncrementalSkipsUnchangedAndRemovesDeleted(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package a\n")

	srv := acceptingUploadServer(t)
	defer srv.Close()

	client := api.New(transport.New(transport.Config{BaseURL: srv.URL}), "")
	c := cache.New()
	c.Update("gone.go", 1, "stale", 0)

	e := New(dir, client, c)

	progress, err := e.SyncIncremental(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if progress.BlobsUploaded != 1 {
		t.Errorf("expected 1 blob uploaded, got %d", progress.BlobsUploaded)
	}
	if progress.BlobsDeleted != 1 {
		t.Errorf("expected 1 deleted path, got %d", progress.BlobsDeleted)
	}
	if _, ok := c.Get("gone.go"); ok {
		t.Error("expected gone.go to be removed from cache")
	}

	// second incremental sync should see the file as unchanged
	progress2, err := e.SyncIncremental(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if progress2.BlobsUnchanged != 1 {
		t.Errorf("expected 1 unchanged blob on second sync, got %d", progress2.BlobsUnchanged)
	}
}

func TestRunBackgroundStopsOnContextCancel(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package a\n")

	srv := acceptingUploadServer(t)
	defer srv.Close()

	client := api.New(transport.New(transport.Config{BaseURL: srv.URL}), "")
	e := New(dir, client, cache.New())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := e.RunBackground(ctx, 5*time.Millisecond)
	if err != context.DeadlineExceeded {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}
