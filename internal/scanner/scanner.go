// Package scanner walks a workspace directory tree and turns its files into
// blob.File chunks, applying the layered ignore rules from internal/ignore
// and skipping anything too large or binary to index.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/augmentcode/codesync/internal/blob"
	"github.com/augmentcode/codesync/internal/cache"
	"github.com/augmentcode/codesync/internal/debug"
	"github.com/augmentcode/codesync/internal/ignore"
)

// Result is the outcome of a full directory walk.
type Result struct {
	Files []blob.File
}

// IncrementalResult is the outcome of a walk that compares every file's
// mtime against a cache, so unchanged files never have their content read.
type IncrementalResult struct {
	// ToUpload holds newly created or modified chunks that must be uploaded.
	ToUpload []blob.File
	// UnchangedBlobs holds the blob names of files whose mtime matches the
	// cache, reused as-is without re-reading their content.
	UnchangedBlobs []string
	// DeletedPaths holds cache paths that no longer exist on disk.
	DeletedPaths []string
}

// Scan walks root and returns every indexable file as one or more chunks.
func Scan(root string, matcher *ignore.Matcher) (Result, error) {
	var result Result

	debug.Log("scanning workspace %v", root)

	err := walk(root, matcher, func(relPath, absPath string, info os.FileInfo) error {
		files, ok := processFile(relPath, absPath, info)
		if !ok {
			return nil
		}
		result.Files = append(result.Files, files...)
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	debug.Log("found %d chunks in workspace", len(result.Files))
	return result, nil
}

// ScanIncremental walks root, using c to skip reading files whose mtime is
// unchanged since the last scan. Multi-chunk files are compared as a single
// unit: if any of a file's cached chunk entries disagree with the file's
// current mtime, every chunk for that file is re-read.
func ScanIncremental(root string, matcher *ignore.Matcher, c *cache.Cache) (IncrementalResult, error) {
	var result IncrementalResult

	cachedByBase := make(map[string][]string) // base path -> cached chunk paths
	for path := range c.Paths() {
		base := blob.BasePath(path)
		cachedByBase[base] = append(cachedByBase[base], path)
	}

	seen := make(map[string]struct{})

	debug.Log("incrementally scanning workspace %v", root)

	err := walk(root, matcher, func(relPath, absPath string, info os.FileInfo) error {
		modTime := info.ModTime().UnixMilli()

		if cachedPaths, ok := cachedByBase[relPath]; ok {
			allMatch := true
			for _, p := range cachedPaths {
				entry, _ := c.Get(p)
				if entry.ModTime != modTime {
					allMatch = false
					break
				}
			}

			if allMatch {
				for _, p := range cachedPaths {
					seen[p] = struct{}{}
					entry, _ := c.Get(p)
					result.UnchangedBlobs = append(result.UnchangedBlobs, entry.BlobName)
				}
				return nil
			}

			debug.Log("file modified (mtime changed): %v", relPath)
		}

		files, ok := processFile(relPath, absPath, info)
		if !ok {
			return nil
		}
		for _, f := range files {
			seen[f.Path] = struct{}{}
		}
		result.ToUpload = append(result.ToUpload, files...)
		return nil
	})
	if err != nil {
		return IncrementalResult{}, err
	}

	for path := range c.Paths() {
		if _, ok := seen[path]; !ok {
			result.DeletedPaths = append(result.DeletedPaths, path)
		}
	}

	debug.Log("incremental scan: %d to upload, %d unchanged, %d deleted",
		len(result.ToUpload), len(result.UnchangedBlobs), len(result.DeletedPaths))

	return result, nil
}

// walk performs the shared directory traversal for Scan and ScanIncremental,
// invoking fn once per non-ignored regular file.
func walk(root string, matcher *ignore.Matcher, fn func(relPath, absPath string, info os.FileInfo) error) error {
	return filepath.WalkDir(root, func(absPath string, d fs.DirEntry, err error) error {
		if err != nil {
			debug.Log("error walking %v: %v", absPath, err)
			return nil
		}

		if absPath == root {
			return nil
		}

		relPath, relErr := filepath.Rel(root, absPath)
		if relErr != nil {
			debug.Log("failed to get relative path for %v: %v", absPath, relErr)
			return nil
		}
		relPath = strings.ReplaceAll(relPath, `\`, "/")

		if matcher.Ignore(relPath, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		// never follow symlinks
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			debug.Log("failed to stat %v: %v", absPath, err)
			return nil
		}

		return fn(relPath, absPath, info)
	})
}

// processFile reads and chunks a single file, returning ok=false if the
// file should be skipped (too large or binary).
func processFile(relPath, absPath string, info os.FileInfo) ([]blob.File, bool) {
	if info.Size() > blob.MaxReadableFileSize {
		debug.Log("skipping large file (%d bytes): %v", info.Size(), relPath)
		return nil, false
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		debug.Log("failed to read file %v: %v", relPath, err)
		return nil, false
	}

	if !isTextContent(content) {
		debug.Log("skipping binary file: %v", relPath)
		return nil, false
	}

	modTime := info.ModTime().UnixMilli()
	return blob.Files(relPath, content, modTime), true
}

// isTextContent reports whether content looks like UTF-8 text rather than
// binary data, mirroring the source scanner's "valid UTF-8" heuristic.
func isTextContent(content []byte) bool {
	if len(content) == 0 {
		return true
	}
	if containsNull(content) {
		return false
	}
	return isValidUTF8(content)
}

func containsNull(content []byte) bool {
	for _, b := range content {
		if b == 0 {
			return true
		}
	}
	return false
}

func isValidUTF8(content []byte) bool {
	return utf8.Valid(content)
}
