package tool

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/augmentcode/codesync/internal/api"
	"github.com/augmentcode/codesync/internal/cache"
	"github.com/augmentcode/codesync/internal/transport"
)

func TestCodebaseRetrievalSyncsThenRetrieves(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0644); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/batch-upload":
			var req struct {
				Blobs []api.BatchUploadBlob `json:"blobs"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			names := make([]string, len(req.Blobs))
			for i, b := range req.Blobs {
				names[i] = b.Path
			}
			_ = json.NewEncoder(w).Encode(api.BatchUploadResponse{BlobNames: names})
		case "/agents/codebase-retrieval":
			var req struct {
				Blobs struct {
					AddedBlobs []string `json:"added_blobs"`
				} `json:"blobs"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			if len(req.Blobs.AddedBlobs) != 1 {
				t.Errorf("expected checkpoint with 1 blob, got %d", len(req.Blobs.AddedBlobs))
			}
			_ = json.NewEncoder(w).Encode(api.CodebaseRetrievalResponse{FormattedRetrieval: "main.go found"})
		default:
			t.Errorf("unexpected path: %v", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := api.New(transport.New(transport.Config{BaseURL: srv.URL}), "")
	surface := NewSurface(client)

	result, err := surface.CodebaseRetrieval(context.Background(), dir, cache.New(), "where is main")
	if err != nil {
		t.Fatal(err)
	}
	if result != "main.go found" {
		t.Errorf("unexpected result: %v", result)
	}
}

func TestPromptEnhancerEmptyTextIsNoop(t *testing.T) {
	surface := NewSurface(nil)
	result, err := surface.PromptEnhancer(context.Background(), "   ", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result != "" {
		t.Errorf("expected empty result for blank input, got %v", result)
	}
}

func TestPromptEnhancerCallsEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]api.PromptEnhancerChunk{
			{Text: strPtr("better ")},
			{Text: strPtr("prompt")},
		})
	}))
	defer srv.Close()

	client := api.New(transport.New(transport.Config{BaseURL: srv.URL}), "")
	surface := NewSurface(client)

	result, err := surface.PromptEnhancer(context.Background(), "raw prompt", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result != "better prompt" {
		t.Errorf("unexpected result: %q", result)
	}
}

func strPtr(s string) *string { return &s }
