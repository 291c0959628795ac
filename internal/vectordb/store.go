package vectordb

import "context"

// Collection is a named set of documents supporting idempotent upsert and
// nearest-neighbor search in cosine space.
type Collection interface {
	// Upsert adds or replaces documents keyed by their IDs.
	Upsert(ctx context.Context, docs []Document) error

	// Query returns up to k documents ranked by similarity to the embedding.
	// k is clamped to the collection size; an empty collection yields nil.
	Query(ctx context.Context, embedding []float32, k int) ([]SearchResult, error)

	// GetAll returns every document, ranked against the given probe text.
	GetAll(ctx context.Context, probe string) ([]Document, error)

	// Get retrieves a single document by ID.
	Get(ctx context.Context, id string) (Document, bool, error)

	// Count returns the number of documents in the collection.
	Count() int
}

// Store groups the two persistent collections the assistant relies on:
// the chunked document corpus and the curated quick-info cards.
type Store interface {
	Docs() Collection
	Cards() Collection
}
