// Package sync orchestrates scanning, uploading and cache maintenance for
// a single workspace: the full and incremental sync operations, and a
// background loop that keeps a workspace's index up to date.
package sync

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/augmentcode/codesync/internal/api"
	"github.com/augmentcode/codesync/internal/cache"
	"github.com/augmentcode/codesync/internal/debug"
	"github.com/augmentcode/codesync/internal/ignore"
	"github.com/augmentcode/codesync/internal/scanner"
	"github.com/augmentcode/codesync/internal/upload"
)

// Status is the state of the most recent sync attempt for a workspace.
type Status int

const (
	StatusIdle Status = iota
	StatusInProgress
	StatusComplete
	StatusFailed
)

// Progress holds the counts of one sync run. It is returned when the run
// ends and cannot be observed while the run is in progress; the run's
// state is reported separately by Engine.Status.
type Progress struct {
	FilesScanned   int
	BatchesTotal   int
	BatchesDone    int
	BlobsUploaded  int
	BlobsUnchanged int
	BlobsDeleted   int
}

// Engine drives sync for a single workspace.
type Engine struct {
	root    string
	matcher *ignore.Matcher
	client  *api.Client
	cache   *cache.Cache

	mu     sync.Mutex
	status Status

	dedupe singleflight.Group
}

// New builds an Engine rooted at root, using the given API client and a
// previously loaded cache (see cache.Load).
func New(root string, client *api.Client, c *cache.Cache) *Engine {
	return &Engine{
		root:    root,
		matcher: ignore.New(root),
		client:  client,
		cache:   c,
	}
}

// Status reports the engine's current sync status.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *Engine) setStatus(s Status) {
	e.mu.Lock()
	e.status = s
	e.mu.Unlock()
}

// SyncFull scans the entire workspace and uploads every file, regardless
// of cache state, then replaces the cache wholesale with the scan result.
func (e *Engine) SyncFull(ctx context.Context) (Progress, error) {
	v, err, _ := e.dedupe.Do("sync", func() (interface{}, error) {
		return e.syncFull(ctx)
	})
	if err != nil {
		return Progress{}, err
	}
	return v.(Progress), nil
}

func (e *Engine) syncFull(ctx context.Context) (Progress, error) {
	e.setStatus(StatusInProgress)

	result, err := scanner.Scan(e.root, e.matcher)
	if err != nil {
		e.setStatus(StatusFailed)
		return Progress{}, err
	}

	progress := Progress{FilesScanned: len(result.Files)}

	batches := upload.CreateBatches(result.Files)
	progress.BatchesTotal = len(batches)

	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex

	for _, batch := range batches {
		batch := batch
		g.Go(func() error {
			r := upload.UploadBatchWithFallback(gctx, e.client, batch)

			mu.Lock()
			upload.CommitUploaded(e.cache, r.UploadedFiles)
			progress.BatchesDone++
			progress.BlobsUploaded += r.BatchUploaded + r.SequentialUploaded
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		e.setStatus(StatusFailed)
		return progress, err
	}

	valid := make(map[string]struct{}, len(result.Files))
	for _, f := range result.Files {
		valid[f.Name] = struct{}{}
	}
	e.cache.RetainBlobs(valid)

	debug.Log("full sync of %v: %d files, %d blobs uploaded", e.root, progress.FilesScanned, progress.BlobsUploaded)
	e.setStatus(StatusComplete)
	return progress, nil
}

// SyncIncremental scans the workspace, uploading only files whose mtime
// has changed since the last scan, and removes deleted files from the
// cache. Concurrent calls collapse into a single in-flight sync.
func (e *Engine) SyncIncremental(ctx context.Context) (Progress, error) {
	v, err, _ := e.dedupe.Do("sync", func() (interface{}, error) {
		return e.syncIncremental(ctx)
	})
	if err != nil {
		return Progress{}, err
	}
	return v.(Progress), nil
}

func (e *Engine) syncIncremental(ctx context.Context) (Progress, error) {
	e.setStatus(StatusInProgress)

	result, err := scanner.ScanIncremental(e.root, e.matcher, e.cache)
	if err != nil {
		e.setStatus(StatusFailed)
		return Progress{}, err
	}

	progress := Progress{
		FilesScanned:   len(result.ToUpload) + len(result.UnchangedBlobs),
		BlobsUnchanged: len(result.UnchangedBlobs),
		BlobsDeleted:   len(result.DeletedPaths),
	}

	for _, path := range result.DeletedPaths {
		e.cache.Remove(path)
	}

	batches := upload.CreateBatches(result.ToUpload)
	progress.BatchesTotal = len(batches)

	for _, batch := range batches {
		if err := ctx.Err(); err != nil {
			e.setStatus(StatusFailed)
			return progress, err
		}

		r := upload.UploadBatchWithFallback(ctx, e.client, batch)
		upload.CommitUploaded(e.cache, r.UploadedFiles)
		progress.BatchesDone++
		progress.BlobsUploaded += r.BatchUploaded + r.SequentialUploaded
	}

	debug.Log("incremental sync of %v: %d uploaded, %d unchanged, %d deleted",
		e.root, progress.BlobsUploaded, progress.BlobsUnchanged, progress.BlobsDeleted)

	e.setStatus(StatusComplete)
	return progress, nil
}

// RunBackground runs SyncIncremental on a fixed interval until ctx is
// cancelled, logging (but not returning) per-tick errors so one failed
// sync never stops the loop.
func (e *Engine) RunBackground(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := e.SyncIncremental(ctx); err != nil {
				debug.Log("background sync of %v failed: %v", e.root, err)
			}
		}
	}
}
