// Package blob implements the content-addressed identity and deterministic
// chunking scheme shared by the scanner, cache, and upload engine.
package blob

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// MaxBlobSize is the maximum size in bytes of a single chunk.
	MaxBlobSize = 128 * 1024

	// MaxLinesPerBlob is the maximum number of lines a chunk may contain.
	MaxLinesPerBlob = 800

	// MaxReadableFileSize is the largest file that will be read into memory
	// for scanning. Larger files are skipped entirely.
	MaxReadableFileSize = 1024 * 1024
)

// File is a single chunk of a workspace file, ready for upload.
type File struct {
	// Path is the chunk path: the file's workspace-relative path, suffixed
	// with "#chunkNofM" when the file was split into more than one chunk.
	Path string
	// Content is the chunk's raw bytes.
	Content []byte
	// Name is the content-addressed blob name, sha256(Path || Content).
	Name string
	// ModTime is the source file's modification time in milliseconds since
	// the Unix epoch, captured once at scan time.
	ModTime int64
}

// Name computes the blob name for a chunk: the hex-encoded SHA-256 digest
// of the chunk's path followed by its content. The path is hashed first so
// that two files with identical content never collide.
func Name(path string, content []byte) string {
	h := sha256.New()
	h.Write([]byte(path))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// Split divides file content into line-preserving chunks, each bounded by
// MaxLinesPerBlob lines and MaxBlobSize bytes. A line is never split across
// chunks: a chunk boundary is only introduced between lines. The returned
// slice always has at least one element, even for empty content.
func Split(content []byte) [][]byte {
	if len(content) == 0 {
		return [][]byte{{}}
	}

	var chunks [][]byte
	var current []byte
	var currentLines int

	for _, line := range splitInclusive(content, '\n') {
		wouldExceedLines := currentLines >= MaxLinesPerBlob
		wouldExceedBytes := len(current)+len(line) > MaxBlobSize

		if len(current) > 0 && (wouldExceedLines || wouldExceedBytes) {
			chunks = append(chunks, current)
			current = nil
			currentLines = 0
		}

		current = append(current, line...)
		currentLines++
	}

	if len(current) > 0 {
		chunks = append(chunks, current)
	}

	if len(chunks) == 0 {
		chunks = append(chunks, []byte{})
	}

	return chunks
}

// splitInclusive splits data into lines, keeping the trailing separator
// attached to each line, mirroring Rust's str::split_inclusive.
func splitInclusive(data []byte, sep byte) [][]byte {
	var lines [][]byte
	start := 0
	for i := 0; i < len(data); i++ {
		if data[i] == sep {
			lines = append(lines, data[start:i+1])
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, data[start:])
	}
	return lines
}

// ChunkPath formats the on-disk chunk path for the idx'th chunk (1-based)
// out of total chunks of relPath. Callers must only use this when total > 1;
// a file with a single chunk keeps its bare relative path.
func ChunkPath(relPath string, idx, total int) string {
	return fmt.Sprintf("%s#chunk%dof%d", relPath, idx, total)
}

// BasePath strips a "#chunkNofM" suffix from a cached path, returning the
// underlying file's relative path. Used to group a multi-chunk file's
// cache entries back together during incremental scans.
func BasePath(path string) string {
	if idx := strings.Index(path, "#chunk"); idx >= 0 {
		return path[:idx]
	}
	return path
}

// Files turns raw file content plus its relative path into one or more
// File chunks, computing each chunk's blob name.
func Files(relPath string, content []byte, modTime int64) []File {
	chunks := Split(content)

	if len(chunks) == 1 {
		return []File{{
			Path:    relPath,
			Content: chunks[0],
			Name:    Name(relPath, chunks[0]),
			ModTime: modTime,
		}}
	}

	total := len(chunks)
	files := make([]File, total)
	for i, c := range chunks {
		path := ChunkPath(relPath, i+1, total)
		files[i] = File{
			Path:    path,
			Content: c,
			Name:    Name(path, c),
			ModTime: modTime,
		}
	}
	return files
}
