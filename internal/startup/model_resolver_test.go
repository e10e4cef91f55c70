package startup

import "testing"

func strPtr(s string) *string { return &s }

func sampleRegistry() ModelRegistry {
	return ModelRegistry{
		"claude-haiku-4-5": ModelInfo{
			DisplayName: strPtr("Haiku 4.5"),
			ShortName:   strPtr("haiku4.5"),
		},
		"claude-sonnet-4-5": ModelInfo{
			DisplayName: strPtr("Sonnet 4.5"),
			ShortName:   strPtr("sonnet4.5"),
			IsDefault:   true,
		},
		"disabled-model": ModelInfo{
			DisplayName:    strPtr("Disabled Model"),
			ShortName:      strPtr("disabled"),
			Disabled:       true,
			DisabledReason: strPtr("retired"),
		},
	}
}

func TestResolveByShortName(t *testing.T) {
	r := NewModelResolver(sampleRegistry())
	got := r.Resolve("sonnet4.5", strPtr("claude-haiku-4-5"))
	if got == nil || *got != "claude-sonnet-4-5" {
		t.Errorf("expected claude-sonnet-4-5, got %v", got)
	}
}

func TestResolveByFullID(t *testing.T) {
	r := NewModelResolver(sampleRegistry())
	got := r.Resolve("claude-haiku-4-5", nil)
	if got == nil || *got != "claude-haiku-4-5" {
		t.Errorf("expected claude-haiku-4-5, got %v", got)
	}
}

func TestResolveDisplayNameFallsBackToDefault(t *testing.T) {
	r := NewModelResolver(sampleRegistry())
	got := r.Resolve("Sonnet 4.5", strPtr("claude-haiku-4-5"))
	if got == nil || *got != "claude-haiku-4-5" {
		t.Errorf("expected fallback to default, got %v", got)
	}
}

func TestResolveDisabledModelFallsBackToDefault(t *testing.T) {
	r := NewModelResolver(sampleRegistry())
	got := r.Resolve("disabled", strPtr("claude-sonnet-4-5"))
	if got == nil || *got != "claude-sonnet-4-5" {
		t.Errorf("expected fallback for disabled model, got %v", got)
	}
}

func TestResolveUnknownFallsBackToDefault(t *testing.T) {
	r := NewModelResolver(sampleRegistry())
	got := r.Resolve("nonexistent", strPtr("claude-sonnet-4-5"))
	if got == nil || *got != "claude-sonnet-4-5" {
		t.Errorf("expected fallback for unknown model, got %v", got)
	}
}

func TestResolveEmptyInputReturnsNil(t *testing.T) {
	r := NewModelResolver(sampleRegistry())
	if got := r.Resolve("", strPtr("claude-sonnet-4-5")); got != nil {
		t.Errorf("expected nil for empty input, got %v", *got)
	}
}

func TestResolveDefaultKeywordUsesDefault(t *testing.T) {
	r := NewModelResolver(sampleRegistry())
	got := r.Resolve("default", strPtr("claude-sonnet-4-5"))
	if got == nil || *got != "claude-sonnet-4-5" {
		t.Errorf("expected explicit default, got %v", got)
	}
}

func TestFindDefaultModel(t *testing.T) {
	id := FindDefaultModel(sampleRegistry())
	if id == nil || *id != "claude-sonnet-4-5" {
		t.Errorf("expected claude-sonnet-4-5, got %v", id)
	}
}

func TestFindDefaultModelSkipsDisabled(t *testing.T) {
	registry := sampleRegistry()
	registry["claude-sonnet-4-5"] = ModelInfo{IsDefault: true, Disabled: true}
	if id := FindDefaultModel(registry); id != nil {
		t.Errorf("expected no default model, got %v", *id)
	}
}
