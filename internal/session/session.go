// Package session persists and resolves OAuth session data, checking the
// environment before falling back to a JSON file on disk.
package session

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/augmentcode/codesync/internal/debug"
	"github.com/augmentcode/codesync/internal/errors"
)

// DefaultScopes are the scopes assumed for a session built from the
// AUGMENT_API_TOKEN + AUGMENT_API_URL environment variables, which carry
// no scope information of their own.
var DefaultScopes = []string{"read", "write"}

// Data is the session persisted to session.json.
type Data struct {
	AccessToken string   `json:"accessToken"`
	TenantURL   string   `json:"tenantURL"`
	Scopes      []string `json:"scopes"`
}

func (d Data) valid() bool {
	return d.AccessToken != "" && d.TenantURL != "" && len(d.Scopes) > 0
}

// Store manages session persistence in <cacheDir>/session.json.
type Store struct {
	path string
}

// NewStore builds a Store rooted at cacheDir. If cacheDir is empty,
// ~/.augment is used.
func NewStore(cacheDir string) (*Store, error) {
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

	return &Store{path: filepath.Join(dir, "session.json")}, nil
}

// IsLoggedIn reports whether a usable session is available from any
// source, without returning its contents.
func (s *Store) IsLoggedIn() bool {
	data, err := s.Get()
	return err == nil && data != nil
}

// Get resolves the current session with priority:
//  1. AUGMENT_SESSION_AUTH (a JSON-encoded Data)
//  2. AUGMENT_API_TOKEN + AUGMENT_API_URL
//  3. the session file on disk
//
// A nil, nil return means no session is available from any source.
func (s *Store) Get() (*Data, error) {
	if raw := os.Getenv("AUGMENT_SESSION_AUTH"); raw != "" {
		if data := parse(raw); data != nil {
			return data, nil
		}
	}

	token, url := os.Getenv("AUGMENT_API_TOKEN"), os.Getenv("AUGMENT_API_URL")
	if token != "" && url != "" {
		return &Data{AccessToken: token, TenantURL: url, Scopes: DefaultScopes}, nil
	}

	content, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read session file %v", s.path)
	}

	data := parse(string(content))
	if data == nil {
		debug.Log("invalid session data in %v, removing", s.path)
		_ = s.Remove()
		return nil, nil
	}
	return data, nil
}

// Save writes a new session to disk.
func (s *Store) Save(accessToken, tenantURL string) error {
	data := Data{AccessToken: accessToken, TenantURL: tenantURL, Scopes: DefaultScopes}

	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal session data")
	}

	if err := os.WriteFile(s.path, content, 0600); err != nil {
		return errors.Wrapf(err, "write session file %v", s.path)
	}

	debug.Log("session saved to %v", s.path)
	return nil
}

// Remove deletes the session file, if present.
func (s *Store) Remove() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "remove session file %v", s.path)
	}
	return nil
}

func parse(raw string) *Data {
	var data Data
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		debug.Log("failed to parse session JSON: %v", err)
		return nil
	}
	if !data.valid() {
		debug.Log("session validation failed: missing required fields")
		return nil
	}
	return &data
}
