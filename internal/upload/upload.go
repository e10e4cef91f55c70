// Package upload batches blob.File chunks into batch-upload requests and
// commits successful uploads to the cache.
package upload

import (
	"context"
	"encoding/base64"

	"github.com/augmentcode/codesync/internal/api"
	"github.com/augmentcode/codesync/internal/blob"
	"github.com/augmentcode/codesync/internal/cache"
	"github.com/augmentcode/codesync/internal/debug"
)

const (
	// MaxBatchBlobCount is the maximum number of blobs in one batch-upload
	// request.
	MaxBatchBlobCount = 128
	// MaxBatchByteSize is the maximum total content size, in bytes, of one
	// batch-upload request.
	MaxBatchByteSize = 1_000_000
)

// CreateBatches splits files into batches respecting both MaxBatchBlobCount
// and MaxBatchByteSize, matching the server's own batch-acceptance rule of
// rejecting a batch once either limit would be met or exceeded.
func CreateBatches(files []blob.File) [][]blob.File {
	var batches [][]blob.File
	var current []blob.File
	var currentBytes int

	for _, f := range files {
		size := len(f.Content)

		wouldExceedCount := len(current) >= MaxBatchBlobCount
		wouldExceedBytes := currentBytes+size >= MaxBatchByteSize

		if (wouldExceedCount || wouldExceedBytes) && len(current) > 0 {
			batches = append(batches, current)
			current = nil
			currentBytes = 0
		}

		current = append(current, f)
		currentBytes += size
	}

	if len(current) > 0 {
		batches = append(batches, current)
	}

	return batches
}

// Result reports the outcome of uploading one batch.
type Result struct {
	BatchUploaded      int
	SequentialUploaded int
	UploadedFiles      []blob.File
}

// UploadBatchWithFallback uploads batch in a single request; if the server
// accepts fewer blobs than were sent (including zero, on outright failure),
// the remainder is retried one file at a time so a single bad blob in a
// batch never blocks the rest.
func UploadBatchWithFallback(ctx context.Context, client *api.Client, batch []blob.File) Result {
	var result Result
	if len(batch) == 0 {
		return result
	}

	blobs := make([]api.BatchUploadBlob, len(batch))
	for i, f := range batch {
		blobs[i] = api.BatchUploadBlob{Path: f.Path, Content: encode(f.Content)}
	}

	resp, err := client.BatchUpload(ctx, blobs)
	successCount := 0
	if err != nil {
		debug.Log("batch upload failed: %v", err)
	} else {
		successCount = len(resp.BlobNames)
	}

	if successCount > 0 {
		result.BatchUploaded = successCount
		if successCount > len(batch) {
			successCount = len(batch)
		}
		result.UploadedFiles = append(result.UploadedFiles, batch[:successCount]...)
	}

	for _, f := range batch[successCount:] {
		single := []api.BatchUploadBlob{{Path: f.Path, Content: encode(f.Content)}}
		resp, err := client.BatchUpload(ctx, single)
		if err != nil || len(resp.BlobNames) == 0 {
			debug.Log("sequential upload failed for %v: %v", f.Path, err)
			continue
		}
		result.SequentialUploaded++
		result.UploadedFiles = append(result.UploadedFiles, f)
	}

	return result
}

// CommitUploaded records every uploaded file's scan-time mtime and blob
// name into c. The mtime committed is the one captured at scan time, not
// the time of the upload, so a file modified again mid-upload is correctly
// detected as changed on the next scan. Each committed entry gets a content
// sequence number one past the largest already in c.
func CommitUploaded(c *cache.Cache, files []blob.File) {
	var seq uint64
	for _, e := range c.Paths() {
		if e.ContentSeq > seq {
			seq = e.ContentSeq
		}
	}
	for _, f := range files {
		seq++
		c.Update(f.Path, f.ModTime, f.Name, seq)
	}
}

func encode(content []byte) string {
	return base64.StdEncoding.EncodeToString(content)
}
