// Package startup sequences the validators that must succeed before any
// tool surface can run: a valid session, a reachable API, a resolved
// model configuration, and an updated metadata record.
package startup

import (
	"encoding/json"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/augmentcode/codesync/internal/debug"
)

// ModelInfo is one entry of the model_info_registry feature flag.
type ModelInfo struct {
	Description    *string `json:"description,omitempty"`
	Disabled       bool    `json:"disabled"`
	DisplayName    *string `json:"displayName,omitempty"`
	ShortName      *string `json:"shortName,omitempty"`
	IsDefault      bool    `json:"isDefault"`
	IsNew          bool    `json:"isNew"`
	IsLegacyModel  bool    `json:"isLegacyModel"`
	DisabledReason *string `json:"disabledReason,omitempty"`
}

// ModelRegistry maps model ID to its ModelInfo.
type ModelRegistry map[string]ModelInfo

// MatchedBy records how a model input was resolved.
type MatchedBy int

const (
	MatchedByShortName MatchedBy = iota
	MatchedByID
)

// Resolution is the outcome of resolving a user-provided model string.
type Resolution struct {
	Kind        resolutionKind
	ID          string
	DisplayName *string
	ShortName   *string
	MatchedBy   MatchedBy
}

type resolutionKind int

const (
	resolutionResolved resolutionKind = iota
	resolutionDisplayNameNotSupported
	resolutionNotFound
	resolutionUseDefault
)

// ParseModelInfoRegistry parses the model_info_registry feature flag's raw
// JSON string value.
func ParseModelInfoRegistry(raw string) (ModelRegistry, bool) {
	var registry ModelRegistry
	if err := json.Unmarshal([]byte(raw), &registry); err != nil {
		debug.Log("failed to parse model_info_registry: %v", err)
		return nil, false
	}
	debug.Log("parsed model_info_registry with %d models", len(registry))
	return registry, true
}

// resolveModel matches input against the registry: displayName match first
// (reported as unsupported), then shortName, then full id.
func resolveModel(input string, registry ModelRegistry) Resolution {
	input = strings.TrimSpace(input)

	if strings.EqualFold(input, "default") {
		return Resolution{Kind: resolutionUseDefault}
	}

	for id, info := range registry {
		if info.DisplayName != nil && *info.DisplayName == input {
			return Resolution{
				Kind:        resolutionDisplayNameNotSupported,
				ID:          id,
				DisplayName: info.DisplayName,
				ShortName:   info.ShortName,
			}
		}
	}

	for id, info := range registry {
		if info.ShortName != nil && *info.ShortName == input {
			return Resolution{
				Kind:        resolutionResolved,
				ID:          id,
				DisplayName: info.DisplayName,
				MatchedBy:   MatchedByShortName,
			}
		}
	}

	if info, ok := registry[input]; ok {
		return Resolution{
			Kind:        resolutionResolved,
			ID:          input,
			DisplayName: info.DisplayName,
			MatchedBy:   MatchedByID,
		}
	}

	return Resolution{Kind: resolutionNotFound}
}

// ModelResolver resolves user model input to a model ID, memoizing
// repeated lookups against a fixed registry (the registry is refreshed at
// most once per startup.Ensure call, so a small LRU is enough to avoid
// re-scanning it on every tool invocation within a session).
type ModelResolver struct {
	registry ModelRegistry
	cache    *lru.Cache[string, *string]
}

// NewModelResolver builds a resolver over registry with a bounded
// memoization cache.
func NewModelResolver(registry ModelRegistry) *ModelResolver {
	cache, _ := lru.New[string, *string](64)
	return &ModelResolver{registry: registry, cache: cache}
}

// Resolve resolves userInput (the empty string means "use the API
// default") to a concrete model ID, falling back to defaultModel when the
// input is unrecognized or names a disabled model.
func (r *ModelResolver) Resolve(userInput string, defaultModel *string) *string {
	if strings.TrimSpace(userInput) == "" {
		return nil
	}

	key := userInput
	if defaultModel != nil {
		key += "\x00" + *defaultModel
	}

	if cached, ok := r.cache.Get(key); ok {
		return cached
	}

	result := r.resolveUncached(userInput, defaultModel)
	r.cache.Add(key, result)
	return result
}

func (r *ModelResolver) resolveUncached(userInput string, defaultModel *string) *string {
	switch res := resolveModel(userInput, r.registry); res.Kind {
	case resolutionResolved:
		info, ok := r.registry[res.ID]
		if ok && info.Disabled {
			name := res.ID
			if res.DisplayName != nil {
				name = *res.DisplayName
			}
			if info.DisabledReason != nil && *info.DisabledReason != "" {
				debug.Log("model disabled: %s - %s, falling back to default", name, *info.DisabledReason)
			} else {
				debug.Log("model disabled: %s, falling back to default", name)
			}
			return defaultModel
		}
		debug.Log("resolved model %q to %q", userInput, res.ID)
		id := res.ID
		return &id

	case resolutionDisplayNameNotSupported:
		suggestion := "the model short name or id"
		if res.ShortName != nil {
			suggestion = *res.ShortName
		}
		debug.Log("display name for model is no longer supported, use %q instead", suggestion)
		return defaultModel

	case resolutionNotFound:
		debug.Log("unknown model %q, falling back to default", userInput)
		return defaultModel

	default: // resolutionUseDefault
		return defaultModel
	}
}

// FindDefaultModel returns the first enabled model ID flagged as default
// in the registry, if any.
func FindDefaultModel(registry ModelRegistry) *string {
	for id, info := range registry {
		if info.IsDefault && !info.Disabled {
			return &id
		}
	}
	return nil
}
