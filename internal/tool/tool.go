// Package tool implements the two callable tool surfaces exposed to an
// agent: codebase-retrieval (sync the workspace, then ask the server to
// retrieve relevant context) and prompt-enhancer (pass text through
// without any workspace interaction).
package tool

import (
	"context"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/augmentcode/codesync/internal/api"
	"github.com/augmentcode/codesync/internal/cache"
	"github.com/augmentcode/codesync/internal/debug"
	sync2 "github.com/augmentcode/codesync/internal/sync"
)

// DefaultMaxOutputLength bounds the size of a codebase-retrieval response,
// matching the server's own default.
const DefaultMaxOutputLength = 4000

// Surface exposes the tool entry points for a single API client. Concurrent
// codebase-retrieval calls against the same workspace share one incremental
// sync; each call then sends its own retrieval request.
type Surface struct {
	client *api.Client
	dedupe singleflight.Group
}

// NewSurface builds a Surface backed by client.
func NewSurface(client *api.Client) *Surface {
	return &Surface{client: client}
}

// CodebaseRetrieval incrementally syncs the workspace rooted at root, then
// asks the server to retrieve context relevant to informationRequest using
// the resulting checkpoint. c is the workspace's persistent blob cache,
// loaded and saved by the caller.
func (s *Surface) CodebaseRetrieval(ctx context.Context, root string, c *cache.Cache, informationRequest string) (string, error) {
	return s.codebaseRetrieval(ctx, root, c, informationRequest)
}

func (s *Surface) codebaseRetrieval(ctx context.Context, root string, c *cache.Cache, informationRequest string) (string, error) {
	debug.Log("codebase-retrieval: incremental sync of %v", root)

	_, err, _ := s.dedupe.Do(root, func() (interface{}, error) {
		return sync2.New(root, s.client, c).SyncIncremental(ctx)
	})
	if err != nil {
		debug.Log("codebase-retrieval: sync failed, continuing with existing cache: %v", err)
	}

	var blobNames []string
	for _, entry := range c.Paths() {
		blobNames = append(blobNames, entry.BlobName)
	}

	checkpoint := api.Checkpoint{
		AddedBlobs:   blobNames,
		DeletedBlobs: []string{},
	}

	debug.Log("codebase-retrieval: searching with %d indexed blobs", len(blobNames))

	resp, err := s.client.CodebaseRetrieval(ctx, informationRequest, checkpoint, DefaultMaxOutputLength)
	if err != nil {
		return "", err
	}
	return resp.FormattedRetrieval, nil
}

// PromptEnhancer enhances text, optionally carrying prior chat history and
// a specific model, with no workspace interaction.
func (s *Surface) PromptEnhancer(ctx context.Context, text string, history []api.ChatHistoryExchange, model *string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	result, err := s.client.PromptEnhancer(ctx, text, history, nil, model)
	if err != nil {
		return "", err
	}
	return result.EnhancedPrompt, nil
}
