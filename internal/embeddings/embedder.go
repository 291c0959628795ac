package embeddings

import "context"

// Embedder turns document chunks and visitor questions into vectors for
// similarity search. Implementations batch where the backing API allows it.
type Embedder interface {
	// Embed returns one vector per input text, in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the configured output width of the model, or 0 when
	// unknown. Callers use it for drift checks, never for validation.
	Dimensions() int

	// Name identifies the embedding model.
	Name() string
}
