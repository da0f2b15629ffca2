package llm

import (
	"context"
	"errors"
)

// ErrModelNotFound is returned when the provider does not know the requested model.
var ErrModelNotFound = errors.New("model not found")

// Provider defines the interface for LLM providers.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}

// ModelLister is implemented by providers that can report which models
// they serve locally.
type ModelLister interface {
	HasModel(ctx context.Context, name string) (bool, error)
}
