package core

import "context"

// LanguageModel produces a completion for a fully rendered prompt. Callers
// own timeouts and cancellation via ctx; the core never retries.
type LanguageModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Embedder turns text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
