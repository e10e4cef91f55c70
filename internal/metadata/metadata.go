// Package metadata persists session-tracking metadata (last used time,
// session count, first use) across invocations in metadata.json.
package metadata

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/augmentcode/codesync/internal/debug"
	"github.com/augmentcode/codesync/internal/errors"
)

// Version is the client version recorded against first use. Set by the
// main package at build time.
var Version = "dev"

// Data is the metadata persisted to metadata.json.
type Data struct {
	LastUsed     *string `json:"lastUsed,omitempty"`
	SessionCount uint64  `json:"sessionCount"`
	FirstUsed    *string `json:"firstUsed,omitempty"`
	FirstVersion *string `json:"firstVersion,omitempty"`
}

// Manager manages metadata persistence in <cacheDir>/metadata.json.
type Manager struct {
	path string
}

// NewManager builds a Manager rooted at cacheDir. If cacheDir is empty,
// ~/.augment is used.
func NewManager(cacheDir string) (*Manager, error) {
	dir := cacheDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "UserHomeDir")
		}
		dir = filepath.Join(home, ".augment")
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.Wrapf(err, "create cache directory %v", dir)
	}

	return &Manager{path: filepath.Join(dir, "metadata.json")}, nil
}

// Read loads metadata from disk, returning a zero-value Data if no
// metadata file exists yet.
func (m *Manager) Read() (Data, error) {
	content, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return Data{}, nil
	}
	if err != nil {
		return Data{}, errors.Wrapf(err, "read metadata file %v", m.path)
	}

	var data Data
	if err := json.Unmarshal(content, &data); err != nil {
		return Data{}, errors.Wrap(err, "parse metadata JSON")
	}
	return data, nil
}

// Write persists data to disk.
func (m *Manager) Write(data Data) error {
	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal metadata")
	}

	if err := os.WriteFile(m.path, content, 0600); err != nil {
		return errors.Wrapf(err, "write metadata file %v", m.path)
	}

	debug.Log("metadata saved to %v", m.path)
	return nil
}

// UpdateSession is called once per process startup: it bumps lastUsed to
// now, increments sessionCount, and records firstUsed/firstVersion the
// first time it is ever called.
func (m *Manager) UpdateSession() error {
	data, err := m.Read()
	if err != nil {
		debug.Log("failed to read metadata, starting fresh: %v", err)
		data = Data{}
	}

	now := time.Now().UTC().Format(time.RFC3339)

	data.LastUsed = &now
	data.SessionCount++

	if data.FirstUsed == nil {
		data.FirstUsed = &now
		v := Version
		data.FirstVersion = &v
	}

	if err := m.Write(data); err != nil {
		return err
	}

	debug.Log("session updated: count=%d, last_used=%v", data.SessionCount, now)
	return nil
}

// SessionCount returns the current session count, or 0 if no metadata
// exists yet or it cannot be read.
func (m *Manager) SessionCount() uint64 {
	data, err := m.Read()
	if err != nil {
		return 0
	}
	return data.SessionCount
}
