package startup

import (
	"context"

	"github.com/augmentcode/codesync/internal/api"
	"github.com/augmentcode/codesync/internal/debug"
	"github.com/augmentcode/codesync/internal/errors"
	"github.com/augmentcode/codesync/internal/metadata"
	"github.com/augmentcode/codesync/internal/session"
	"github.com/augmentcode/codesync/internal/transport"
)

// State is the fully validated result of a startup Ensure call: a
// confirmed session, the tenant's model configuration, and a resolver
// built from that configuration's model_info_registry.
type State struct {
	Session      *session.Data
	ModelConfig  api.GetModelsResponse
	ModelInfo    ModelRegistry
	DefaultModel *string
	resolver     *ModelResolver
}

// Resolver returns the model resolver built from this state's registry.
func (s *State) Resolver() *ModelResolver {
	return s.resolver
}

// Ensure runs the full startup validation sequence:
//  1. resolve a session (from env vars or session.json)
//  2. validate the API connection via get-models
//  3. parse the model_info_registry feature flag
//  4. record the session in metadata.json
//
// Statuses 401 (Unauthenticated), 403 (PermissionDenied) and 426
// (UpgradeRequired) are wrapped with errors.Fatal so callers can
// distinguish "stop immediately" from "retry later".
func Ensure(ctx context.Context, sessionStore *session.Store, metadataManager *metadata.Manager, newClient func(tenantURL, token string) *api.Client) (*State, error) {
	debug.Log("ensure: validating session")
	sess, err := sessionStore.Get()
	if err != nil {
		return nil, errors.Wrap(err, "resolve session")
	}
	if sess == nil {
		return nil, errors.Fatal("not logged in")
	}

	debug.Log("ensure: validating API connection via get-models")
	client := newClient(sess.TenantURL, sess.AccessToken)

	switch client.ValidateConnection(ctx) {
	case api.ValidationInvalidCredentials:
		return nil, errors.Fatal("invalid credentials, re-authentication required")
	case api.ValidationInvalidURL:
		return nil, errors.Fatal("invalid tenant URL")
	case api.ValidationServerError:
		return nil, errors.New("server error validating connection")
	case api.ValidationConnectionError:
		return nil, errors.New("cannot reach API")
	}

	modelConfig, err := client.GetModels(ctx)
	if err != nil {
		if terr, ok := err.(*transport.Error); ok && terr.Status.IsFatal() {
			return nil, errors.Fatalf("get-models: %v", err)
		}
		return nil, errors.Wrap(err, "get-models")
	}

	debug.Log("ensure: loading feature flags and model registry")
	var registry ModelRegistry
	if raw, ok := modelConfig.FeatureFlags["model_info_registry"].(string); ok {
		registry, _ = ParseModelInfoRegistry(raw)
	}
	if registry == nil {
		registry = ModelRegistry{}
	}

	defaultModel := FindDefaultModel(registry)

	debug.Log("ensure: updating session metadata")
	if err := metadataManager.UpdateSession(); err != nil {
		// Metadata is best-effort bookkeeping, never fatal to startup.
		debug.Log("failed to update session metadata: %v", err)
	}

	return &State{
		Session:      sess,
		ModelConfig:  modelConfig,
		ModelInfo:    registry,
		DefaultModel: defaultModel,
		resolver:     NewModelResolver(registry),
	}, nil
}
