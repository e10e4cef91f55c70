package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/augmentcode/codesync/internal/errors"
	"github.com/augmentcode/codesync/internal/transport"
)

const (
	getModelsTimeout = 10 * time.Second
	validateTimeout  = 5 * time.Second
)

// Client is the typed Augment API surface for a single tenant, built on
// top of a transport.Client.
type Client struct {
	t         *transport.Client
	sessionID string
}

// New wraps t with the typed endpoint methods. sessionID is attached to
// every request as x-request-session-id.
func New(t *transport.Client, sessionID string) *Client {
	return &Client{t: t, sessionID: sessionID}
}

func (c *Client) call(ctx context.Context, endpoint string, req, resp interface{}) error {
	body, err := json.Marshal(req)
	if err != nil {
		return errors.Wrap(err, "marshal request")
	}

	requestID := uuid.New().String()
	data, err := c.t.Do(ctx, "POST", "/"+endpoint, body, requestID, c.sessionID)
	if err != nil {
		return err
	}

	if resp == nil {
		return nil
	}
	if err := json.Unmarshal(data, resp); err != nil {
		return errors.Wrap(err, "unmarshal response")
	}
	return nil
}

// Token exchanges an OAuth authorization code for an access token.
func (c *Client) Token(ctx context.Context, clientID, codeVerifier, redirectURI, code string) (string, error) {
	req := tokenRequest{
		GrantType:    "authorization_code",
		ClientID:     clientID,
		CodeVerifier: codeVerifier,
		RedirectURI:  redirectURI,
		Code:         code,
	}
	var resp tokenResponse
	if err := c.call(ctx, "token", req, &resp); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

// BatchUpload uploads a batch of blobs in a single request.
func (c *Client) BatchUpload(ctx context.Context, blobs []BatchUploadBlob) (BatchUploadResponse, error) {
	req := batchUploadRequest{Blobs: blobs}
	var resp BatchUploadResponse
	if err := c.call(ctx, "batch-upload", req, &resp); err != nil {
		return BatchUploadResponse{}, err
	}
	return resp, nil
}

// CodebaseRetrieval asks the agents/codebase-retrieval endpoint to retrieve
// context relevant to informationRequest, using blobs as the checkpoint
// describing what the server already has indexed.
func (c *Client) CodebaseRetrieval(ctx context.Context, informationRequest string, blobs Checkpoint, maxOutputLength int) (CodebaseRetrievalResponse, error) {
	req := codebaseRetrievalRequest{
		InformationRequest:       informationRequest,
		Blobs:                    blobs,
		Dialog:                   []interface{}{},
		MaxOutputLength:          maxOutputLength,
		DisableCodebaseRetrieval: false,
		EnableCommitRetrieval:    true,
	}
	var resp CodebaseRetrievalResponse
	if err := c.call(ctx, "agents/codebase-retrieval", req, &resp); err != nil {
		return CodebaseRetrievalResponse{}, err
	}
	return resp, nil
}

// PromptEnhancer sends text through the prompt-enhancer endpoint and
// returns the enhanced prompt. The protocol is a streamed sequence of
// PromptEnhancerChunk values server-side; this client assembles the final
// result from a single response body containing the joined chunks.
func (c *Client) PromptEnhancer(ctx context.Context, text string, history []ChatHistoryExchange, conversationID, model *string) (PromptEnhancerResult, error) {
	req := promptEnhancerRequest{
		Nodes: []promptEnhancerNode{{
			ID:       1,
			NodeType: 1,
			TextNode: promptEnhancerTextNode{Content: text},
		}},
		ChatHistory:    history,
		ConversationID: conversationID,
		Model:          model,
		Mode:           "enhance",
	}

	var chunks []PromptEnhancerChunk
	if err := c.call(ctx, "prompt-enhancer", req, &chunks); err != nil {
		return PromptEnhancerResult{}, err
	}

	var out string
	for _, chunk := range chunks {
		if chunk.Text != nil {
			out += *chunk.Text
		}
	}
	return PromptEnhancerResult{EnhancedPrompt: out}, nil
}

// GetModels validates the connection and returns the tenant's available
// models and feature flags.
func (c *Client) GetModels(ctx context.Context) (GetModelsResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, getModelsTimeout)
	defer cancel()

	var resp GetModelsResponse
	if err := c.call(ctx, "get-models", struct{}{}, &resp); err != nil {
		return GetModelsResponse{}, err
	}
	return resp, nil
}

// ValidateConnection performs a lightweight get-models call purely to
// check reachability and credential validity, classifying the outcome
// instead of returning the full response.
func (c *Client) ValidateConnection(ctx context.Context) ValidationResult {
	ctx, cancel := context.WithTimeout(ctx, validateTimeout)
	defer cancel()

	_, err := c.GetModels(ctx)
	if err == nil {
		return ValidationOK
	}

	if terr, ok := err.(*transport.Error); ok {
		switch terr.Status {
		case transport.StatusUnauthenticated, transport.StatusPermissionDenied:
			return ValidationInvalidCredentials
		case transport.StatusUnavailable, transport.StatusDeadlineExceeded:
			return ValidationServerError
		}
	}
	return ValidationConnectionError
}
