// Package cache implements the per-workspace blob cache: the persistent
// record of which file chunks have already been uploaded, keyed both by
// workspace-relative path and by blob name.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/augmentcode/codesync/internal/debug"
)

const (
	dirMode  = 0700
	fileMode = 0600
)

// namespace is the fixed namespace UUID used to derive a deterministic
// cache filename from a workspace's normalized root path.
var namespace = uuid.Must(uuid.FromBytes([]byte{
	0x6b, 0xa7, 0xb8, 0x10, 0x9d, 0xad, 0x11, 0xd1, 0x80, 0xb4, 0x00, 0xc0, 0x4f, 0xd4, 0x30, 0xc8,
}))

// PathUUID derives a UUID v5 from a workspace's root path, normalized to
// forward slashes so the same workspace produces the same UUID across
// platforms.
func PathUUID(rootPath string) string {
	normalized := strings.ReplaceAll(rootPath, `\`, "/")
	return uuid.NewSHA1(namespace, []byte(normalized)).String()
}

// FileEntry is the cache's record for a single tracked path: its blob name,
// the modification time observed when it was last uploaded, and a
// monotonically increasing sequence number for change tracking.
type FileEntry struct {
	ModTime    int64  `json:"mtime"`
	BlobName   string `json:"blob_name"`
	ContentSeq uint64 `json:"content_seq"`
}

// Cache is the persisted state for one workspace: a forward map from path
// to FileEntry and a reverse map from blob name back to path, guarded by a
// single reader-writer lock.
type Cache struct {
	mu         sync.RWMutex
	pathToBlob map[string]FileEntry
	blobToPath map[string]string
}

// onDiskCache is the JSON wire shape of Cache, matching the historical
// augment.mjs layout (path_to_blob / blob_to_path).
type onDiskCache struct {
	PathToBlob map[string]FileEntry `json:"path_to_blob"`
	BlobToPath map[string]string   `json:"blob_to_path,omitempty"`
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{
		pathToBlob: make(map[string]FileEntry),
		blobToPath: make(map[string]string),
	}
}

// FilePath returns the on-disk cache file path for the workspace rooted at
// rootPath, honoring $CODESYNC_CACHE_DIR the way DefaultDir does.
func FilePath(rootPath string) (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, PathUUID(rootPath)+".json"), nil
}

// Load reads the cache file at path. A missing file is not an error: it
// yields a fresh, empty cache, matching the behavior of a first-time scan.
func Load(path string) (*Cache, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading blobs cache %v", path)
	}

	var disk onDiskCache
	if err := json.Unmarshal(data, &disk); err != nil {
		return nil, errors.Wrapf(err, "parsing blobs cache %v", path)
	}

	c := &Cache{
		pathToBlob: disk.PathToBlob,
		blobToPath: disk.BlobToPath,
	}
	if c.pathToBlob == nil {
		c.pathToBlob = make(map[string]FileEntry)
	}
	if len(c.blobToPath) == 0 && len(c.pathToBlob) > 0 {
		c.rebuildReverseIndex()
	}
	if c.blobToPath == nil {
		c.blobToPath = make(map[string]string)
	}

	return c, nil
}

// Save atomically writes the cache to path, creating parent directories as
// needed.
func (c *Cache) Save(path string) error {
	c.mu.RLock()
	disk := onDiskCache{PathToBlob: c.pathToBlob, BlobToPath: c.blobToPath}
	c.mu.RUnlock()

	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}

	data, err := json.MarshalIndent(disk, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling blobs cache")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "tmp-blobscache-")
	if err != nil {
		return errors.Wrap(err, "creating temp cache file")
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, "writing temp cache file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, "closing temp cache file")
	}
	if err := os.Chmod(tmp.Name(), fileMode); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, "chmod temp cache file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, "renaming temp cache file")
	}

	debug.Log("saved blobs cache to %v (%d entries)", path, len(disk.PathToBlob))
	return nil
}

func (c *Cache) rebuildReverseIndex() {
	c.blobToPath = make(map[string]string, len(c.pathToBlob))
	for path, entry := range c.pathToBlob {
		c.blobToPath[entry.BlobName] = path
	}
}

// Update records an upload of path with the given mtime, blob name and
// content sequence, replacing any previous entry for path.
func (c *Cache) Update(path string, modTime int64, blobName string, contentSeq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.pathToBlob[path]; ok && old.BlobName != blobName {
		delete(c.blobToPath, old.BlobName)
	}

	c.pathToBlob[path] = FileEntry{ModTime: modTime, BlobName: blobName, ContentSeq: contentSeq}
	c.blobToPath[blobName] = path
}

// Remove deletes path's entry from the cache, if present.
func (c *Cache) Remove(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.pathToBlob[path]; ok {
		delete(c.pathToBlob, path)
		delete(c.blobToPath, entry.BlobName)
	}
}

// Get returns the FileEntry for path, if tracked.
func (c *Cache) Get(path string) (FileEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.pathToBlob[path]
	return e, ok
}

// HasBlob reports whether blobName is already tracked by any path.
func (c *Cache) HasBlob(blobName string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.blobToPath[blobName]
	return ok
}

// Paths returns a snapshot of every tracked path, along with its entry.
func (c *Cache) Paths() map[string]FileEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]FileEntry, len(c.pathToBlob))
	for k, v := range c.pathToBlob {
		out[k] = v
	}
	return out
}

// Len returns the number of tracked paths.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pathToBlob)
}

// RetainBlobs drops every entry whose blob name is not in valid, returning
// the blob names that were removed. Used after a full scan to evict entries
// for files that no longer exist or no longer hash to a tracked blob.
func (c *Cache) RetainBlobs(valid map[string]struct{}) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed []string
	for path, entry := range c.pathToBlob {
		if _, ok := valid[entry.BlobName]; ok {
			continue
		}
		delete(c.pathToBlob, path)
		delete(c.blobToPath, entry.BlobName)
		removed = append(removed, entry.BlobName)
	}
	return removed
}
