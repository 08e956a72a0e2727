package ai

import "context"

// GenerateOptions controls a single generation call. Binary judgments run at
// low temperature, prose feedback at a higher one; JSONOutput asks the backend
// to constrain the response to a JSON object where supported.
type GenerateOptions struct {
	Temperature float32
	MaxTokens   int
	JSONOutput  bool
}

// Generator describes a text-generation model.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// Embedder describes an embedding model. Implementations return an error on
// failure; callers are expected to degrade to an empty vector rather than
// aborting an evaluation.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Provider bundles both model capabilities behind one backend.
type Provider interface {
	Generator
	Embedder
}
