// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// Embedder generates vector embeddings from text.
//
// Implementations may include:
//   - Text Embeddings Inference (all-MiniLM-L6-v2)
//   - Ollama (nomic-embed-text)
//   - OpenAI (text-embedding-3-small)
//   - Feature hashing (offline)
//
// Errors are classified with domain.ErrModelUnavailable (retry),
// domain.ErrInputTooLong (skip) and domain.ErrTimeout.
type Embedder interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	// The result has the same length and order as texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 768).
	// This must match the vector index the embeddings are written to.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
