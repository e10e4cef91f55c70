package session

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"AUGMENT_SESSION_AUTH", "AUGMENT_API_TOKEN", "AUGMENT_API_URL"} {
		old, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, old)
			}
		})
	}
}

func TestSaveAndGetRoundtrip(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	s, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Save("tok-123", "https://example.augmentcode.com"); err != nil {
		t.Fatal(err)
	}

	data, err := s.Get()
	if err != nil {
		t.Fatal(err)
	}
	if data == nil {
		t.Fatal("expected session data")
	}
	if data.AccessToken != "tok-123" || data.TenantURL != "https://example.augmentcode.com" {
		t.Errorf("unexpected data: %+v", data)
	}
}

func TestGetPrefersSessionAuthEnvVar(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	s, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save("file-token", "https://file.example.com"); err != nil {
		t.Fatal(err)
	}

	os.Setenv("AUGMENT_SESSION_AUTH", `{"accessToken":"env-token","tenantURL":"https://env.example.com","scopes":["read"]}`)

	data, err := s.Get()
	if err != nil {
		t.Fatal(err)
	}
	if data.AccessToken != "env-token" {
		t.Errorf("expected env session to take priority, got %+v", data)
	}
}

func TestGetFallsBackToTokenAndURLEnvVars(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	s, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	os.Setenv("AUGMENT_API_TOKEN", "plain-token")
	os.Setenv("AUGMENT_API_URL", "https://plain.example.com")

	data, err := s.Get()
	if err != nil {
		t.Fatal(err)
	}
	if data.AccessToken != "plain-token" || data.TenantURL != "https://plain.example.com" {
		t.Errorf("unexpected data: %+v", data)
	}
	if len(data.Scopes) == 0 {
		t.Error("expected default scopes to be populated")
	}
}

func TestGetReturnsNilWhenNoSession(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	s, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	data, err := s.Get()
	if err != nil {
		t.Fatal(err)
	}
	if data != nil {
		t.Errorf("expected nil session, got %+v", data)
	}
}

func TestGetRemovesInvalidSessionFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "session.json"), []byte(`{"accessToken":""}`), 0600); err != nil {
		t.Fatal(err)
	}

	s, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	data, err := s.Get()
	if err != nil {
		t.Fatal(err)
	}
	if data != nil {
		t.Errorf("expected nil for invalid session, got %+v", data)
	}
	if _, err := os.Stat(filepath.Join(dir, "session.json")); !os.IsNotExist(err) {
		t.Error("expected invalid session file to be removed")
	}
}
