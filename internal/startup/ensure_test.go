package startup

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/augmentcode/codesync/internal/api"
	"github.com/augmentcode/codesync/internal/errors"
	"github.com/augmentcode/codesync/internal/metadata"
	"github.com/augmentcode/codesync/internal/session"
	"github.com/augmentcode/codesync/internal/transport"
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

func TestEnsureFailsFastWhenNotLoggedIn(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	sessionStore, err := session.NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	metadataManager, err := metadata.NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	_, err = Ensure(context.Background(), sessionStore, metadataManager, func(tenantURL, token string) *api.Client {
		return api.New(transport.New(transport.Config{BaseURL: tenantURL, Token: token}), "")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.IsFatal(err) {
		t.Errorf("expected a fatal error, got %v", err)
	}
}

func TestEnsureSucceeds(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(api.GetModelsResponse{
			Models: []api.ModelInfo{{Name: "claude-sonnet-4-5", IsDefault: true}},
			FeatureFlags: map[string]interface{}{
				"model_info_registry": `{"claude-sonnet-4-5":{"isDefault":true}}`,
			},
		})
	}))
	defer srv.Close()

	os.Setenv("AUGMENT_API_TOKEN", "tok")
	os.Setenv("AUGMENT_API_URL", srv.URL)

	sessionStore, err := session.NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	metadataManager, err := metadata.NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	state, err := Ensure(context.Background(), sessionStore, metadataManager, func(tenantURL, token string) *api.Client {
		return api.New(transport.New(transport.Config{BaseURL: tenantURL, Token: token}), "")
	})
	if err != nil {
		t.Fatal(err)
	}
	if state.DefaultModel == nil || *state.DefaultModel != "claude-sonnet-4-5" {
		t.Errorf("unexpected default model: %v", state.DefaultModel)
	}
	if metadataManager.SessionCount() != 1 {
		t.Errorf("expected session count 1, got %d", metadataManager.SessionCount())
	}
}
