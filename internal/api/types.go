// Package api implements the typed Augment API surface: authentication,
// blob upload, codebase retrieval and prompt enhancement, built on top of
// internal/transport.
package api

// Checkpoint describes the set of blobs the server should consider present
// for a workspace, expressed as a diff against whatever checkpoint the
// server already has on file.
type Checkpoint struct {
	CheckpointID *string  `json:"checkpoint_id,omitempty"`
	AddedBlobs   []string `json:"added_blobs"`
	DeletedBlobs []string `json:"deleted_blobs"`
}

// BatchUploadBlob is a single blob in a batch-upload request.
type BatchUploadBlob struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type batchUploadRequest struct {
	Blobs []BatchUploadBlob `json:"blobs"`
}

// BatchUploadResponse reports which blobs the server accepted.
type BatchUploadResponse struct {
	BlobNames []string `json:"blob_names"`
}

type codebaseRetrievalRequest struct {
	InformationRequest       string        `json:"information_request"`
	Blobs                    Checkpoint    `json:"blobs"`
	Dialog                   []interface{} `json:"dialog"`
	MaxOutputLength          int           `json:"max_output_length"`
	DisableCodebaseRetrieval bool          `json:"disable_codebase_retrieval"`
	EnableCommitRetrieval    bool          `json:"enable_commit_retrieval"`
}

// CodebaseRetrievalResponse holds the formatted retrieval result text.
type CodebaseRetrievalResponse struct {
	FormattedRetrieval string `json:"formatted_retrieval"`
}

// ChatHistoryExchange is one turn of prior conversation passed to the
// prompt-enhancer endpoint for context.
type ChatHistoryExchange struct {
	Role    *string `json:"role,omitempty"`
	Content *string `json:"content,omitempty"`
}

type promptEnhancerTextNode struct {
	Content string `json:"content"`
}

type promptEnhancerNode struct {
	ID       int                    `json:"id"`
	NodeType int                    `json:"type"`
	TextNode promptEnhancerTextNode `json:"text_node"`
}

type promptEnhancerRequest struct {
	Nodes          []promptEnhancerNode  `json:"nodes"`
	ChatHistory    []ChatHistoryExchange `json:"chat_history"`
	ConversationID *string               `json:"conversation_id,omitempty"`
	Model          *string               `json:"model,omitempty"`
	Mode           string                `json:"mode"`
}

// PromptEnhancerChunk is one chunk of a streamed prompt-enhancer response.
type PromptEnhancerChunk struct {
	Text *string `json:"text,omitempty"`
}

// PromptEnhancerResult is the final, assembled result of a prompt-enhancer
// call once all streamed chunks have been joined.
type PromptEnhancerResult struct {
	EnhancedPrompt string
}

type tokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	CodeVerifier string `json:"code_verifier"`
	RedirectURI  string `json:"redirect_uri"`
	Code         string `json:"code"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// ModelInfo describes one model the tenant has access to.
type ModelInfo struct {
	Name      string `json:"name"`
	Disabled  bool   `json:"disabled"`
	IsDefault bool   `json:"is_default"`
}

// GetModelsResponse is the response to the lightweight get-models
// connection-validation endpoint.
type GetModelsResponse struct {
	Models       []ModelInfo            `json:"models"`
	FeatureFlags map[string]interface{} `json:"feature_flags"`
}

// ValidationResult classifies the outcome of validate_connection.
type ValidationResult int

const (
	ValidationOK ValidationResult = iota
	ValidationInvalidCredentials
	ValidationServerError
	ValidationConnectionError
	ValidationInvalidURL
)
