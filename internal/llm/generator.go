// Package llm wraps the language-model providers behind small interfaces so
// pipeline stages depend on text-in/text-out contracts rather than vendor
// SDKs. Generation goes to Anthropic; embeddings go to OpenAI.
package llm

import "context"

// Request is a single text-generation call.
type Request struct {
	// System is the system prompt; empty means none.
	System string
	// Prompt is the user message.
	Prompt string
	// MaxTokens bounds the response length.
	MaxTokens int
	// Model overrides the generator's default model when non-empty.
	Model string
}

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Embedder turns texts into vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}
