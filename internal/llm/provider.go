package llm

import (
	"context"
)

// Provider defines the interface for LLM providers.
// All providers MUST support structured output (JSON Schema) so the reply can be decoded
// into the song document.
type Provider interface {
	// Generate sends a single request and returns the raw text of the reply.
	// An empty reply is not an error at this level.
	Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error)

	// Name returns the provider name (e.g., "openai", "gemini")
	Name() string
}

// GenerationRequest contains all parameters needed for generation
type GenerationRequest struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	// ReasoningMode is a hint for models that think before answering: none, low, medium or high.
	// Providers without a reasoning control ignore it.
	ReasoningMode string
	// Structured output schema - REQUIRED for reliable JSON parsing
	OutputSchema *OutputSchema
}

const (
	ReasoningNone   = "none"
	ReasoningLow    = "low"
	ReasoningMedium = "medium"
	ReasoningHigh   = "high"
)

// OutputSchema defines the expected JSON output structure
type OutputSchema struct {
	Name        string
	Description string
	Schema      map[string]any // JSON Schema object
}

// Usage is the provider-neutral token accounting of one call
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// GenerationResponse contains the result from the LLM
type GenerationResponse struct {
	RawOutput string `json:"-"` // Raw JSON text output
	Usage     Usage  `json:"usage"`
	Model     string `json:"model"`
	Provider  string `json:"provider"`
}

// UnavailableProvider stands in for a provider that could not be constructed.
// Every call fails with the construction error, so a missing or rejected key surfaces
// as a generation failure instead of stopping the server.
type UnavailableProvider struct {
	name string
	err  error
}

func NewUnavailableProvider(name string, err error) *UnavailableProvider {
	return &UnavailableProvider{name: name, err: err}
}

func (p *UnavailableProvider) Name() string {
	return p.name
}

func (p *UnavailableProvider) Generate(_ context.Context, _ *GenerationRequest) (*GenerationResponse, error) {
	return nil, p.err
}
